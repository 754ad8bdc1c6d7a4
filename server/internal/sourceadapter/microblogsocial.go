package sourceadapter

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/renatosilveira/politracker/server/internal/relevance"
)

// MicroblogSocial is a SocialSearch adapter over a generic microblog
// search endpoint (the handle-based first-party-post case) and also
// implements third-party mention search via SearchMentions, used by the
// social-mention aggregator.
type MicroblogSocial struct {
	http     *resty.Client
	baseURL  string
	user     string
	pass     string
	platform string
}

// NewMicroblogSocial constructs the adapter. Empty user/pass puts
// authenticated-only queries in disabled mode; unauthenticated public
// search (if the endpoint allows it) still runs.
func NewMicroblogSocial(baseURL, user, pass, platform string) *MicroblogSocial {
	return &MicroblogSocial{
		http:     resty.New().SetTimeout(30 * time.Second),
		baseURL:  baseURL,
		user:     user,
		pass:     pass,
		platform: platform,
	}
}

type microblogPost struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Text      string `json:"text"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"replies"`
	Shares    int    `json:"reposts"`
	Views     int    `json:"views"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
	CreatedAt string `json:"created_at"`
	Author    struct {
		Name   string `json:"name"`
		Handle string `json:"handle"`
	} `json:"author"`
}

type microblogSearchResponse struct {
	Results []microblogPost `json:"results"`
}

// Search returns first-party posts authored by nameOrHandle.
func (m *MicroblogSocial) Search(ctx context.Context, nameOrHandle string) ([]RawItem, error) {
	if m.baseURL == "" {
		return nil, nil
	}
	posts, err := m.search(ctx, "from:"+nameOrHandle)
	if err != nil {
		return nil, nil
	}
	return posts, nil
}

// SearchMentions returns third-party posts mentioning name, used for the
// social-mention aggregator (C6 social-mention scope). The returned items
// carry author identity in the provider-metadata-equivalent fields handled
// by the aggregator, not here.
func (m *MicroblogSocial) SearchMentions(ctx context.Context, name string) ([]RawItem, error) {
	if m.baseURL == "" {
		return nil, nil
	}
	posts, err := m.search(ctx, name)
	if err != nil {
		return nil, nil
	}
	return posts, nil
}

func (m *MicroblogSocial) search(ctx context.Context, query string) ([]RawItem, error) {
	var parsed microblogSearchResponse

	operation := func() error {
		req := m.http.R().SetContext(ctx).SetQueryParam("q", query).SetResult(&parsed)
		if m.user != "" {
			req.SetBasicAuth(m.user, m.pass)
		}
		resp, err := req.Get(m.baseURL)
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
		return nil, err
	}

	out := make([]RawItem, 0, len(parsed.Results))
	for _, p := range parsed.Results {
		published, _ := time.Parse(time.RFC3339, p.CreatedAt)
		out = append(out, RawItem{
			Title:       p.Author.Name,
			Description: p.Author.Handle,
			FullText:    p.Text,
			URL:         p.URL,
			SourceName:  m.platform,
			ImageURL:    p.MediaURL,
			PublishedAt: published,
			Engagement: relevance.Engagement{
				Likes:    p.Likes,
				Comments: p.Comments,
				Shares:   p.Shares,
			},
		})
	}
	return out, nil
}
