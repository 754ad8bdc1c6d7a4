package sourceadapter

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

// NewsAPI is a NewsSearch adapter over a generic news-search HTTP
// endpoint gated by an API key. With no key configured it degrades to
// always returning an empty result set without making any outbound call,
// matching the "missing optional config disables the feature" policy.
type NewsAPI struct {
	http    *resty.Client
	baseURL string
	apiKey  string
}

// NewNewsAPI constructs the adapter. An empty apiKey puts it in disabled
// mode.
func NewNewsAPI(baseURL, apiKey string) *NewsAPI {
	return &NewsAPI{
		http:    resty.New().SetTimeout(20 * time.Second),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (n *NewsAPI) available() bool {
	return n.apiKey != "" && n.baseURL != ""
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Search issues a single query with up to 3 bounded-backoff retries on
// rate-limit/5xx responses. Unconfigured or persistently failing search
// yields an empty slice, never an error.
func (n *NewsAPI) Search(ctx context.Context, query string) ([]RawItem, error) {
	if !n.available() {
		return nil, nil
	}

	var parsed newsAPIResponse
	operation := func() error {
		resp, err := n.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{"q": query, "apiKey": n.apiKey}).
			SetResult(&parsed).
			Get(n.baseURL)
		if err != nil {
			return err
		}
		if resp.StatusCode() == 429 || resp.StatusCode() >= 500 {
			return errRetryable
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, nil
	}

	out := make([]RawItem, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		out = append(out, RawItem{
			Title:       a.Title,
			Description: a.Description,
			FullText:    a.Content,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			ImageURL:    a.URLToImage,
			PublishedAt: published,
		})
	}
	return out, nil
}

// FetchArticle delegates full-text extraction to a shared goquery-based
// fetch identical to RSSNews's.
func (n *NewsAPI) FetchArticle(ctx context.Context, url string) (RawItem, error) {
	rss := &RSSNews{http: n.http}
	return rss.FetchArticle(ctx, url)
}

type retryableError string

func (e retryableError) Error() string { return string(e) }

var errRetryable = retryableError("retryable provider error")
