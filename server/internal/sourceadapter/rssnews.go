package sourceadapter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"
)

// RSSNews is a NewsSearch adapter over a fixed set of syndicated feeds. It
// matches the query against each item's title/description rather than
// issuing a provider-side search, since plain RSS/Atom has no query
// parameter of its own.
type RSSNews struct {
	parser *gofeed.Parser
	http   *resty.Client
	feeds  []string
}

// NewRSSNews constructs an adapter polling the given feed URLs.
func NewRSSNews(feedURLs []string) *RSSNews {
	return &RSSNews{
		parser: gofeed.NewParser(),
		http:   resty.New().SetTimeout(20 * time.Second),
		feeds:  feedURLs,
	}
}

// Search fetches every configured feed and keeps items whose title or
// description contains query (case/accent-insensitive match is the
// caller's job via textanalysis; this adapter does a plain substring
// match to stay a dumb source of candidates). Per-feed failures are
// logged and skipped; Search never returns an error for a partial set.
func (r *RSSNews) Search(ctx context.Context, query string) ([]RawItem, error) {
	queryLower := strings.ToLower(query)
	var out []RawItem

	for _, feedURL := range r.feeds {
		fetchCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		feed, err := r.parser.ParseURLWithContext(feedURL, fetchCtx)
		cancel()
		if err != nil {
			log.Printf("rssnews: skipping feed %s: %v", feedURL, err)
			continue
		}

		for _, item := range feed.Items {
			haystack := strings.ToLower(item.Title + " " + item.Description)
			if query != "" && !strings.Contains(haystack, queryLower) {
				continue
			}

			published := time.Now()
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			}

			content := item.Content
			if content == "" {
				content = item.Description
			}

			image := ""
			if item.Image != nil {
				image = item.Image.URL
			}

			out = append(out, RawItem{
				Title:       item.Title,
				Description: item.Description,
				FullText:    content,
				URL:         item.Link,
				SourceName:  feed.Title,
				ImageURL:    image,
				PublishedAt: published,
			})
		}
	}
	return out, nil
}

// FetchArticle retrieves url and extracts title/description/body/hero
// image via goquery, with bounded exponential backoff on transient
// failures. Parse errors yield an empty RawItem rather than an error,
// matching the adapter fail-soft contract.
func (r *RSSNews) FetchArticle(ctx context.Context, url string) (RawItem, error) {
	var item RawItem

	operation := func() error {
		resp, err := r.http.R().SetContext(ctx).Get(url)
		if err != nil {
			return err
		}
		if resp.StatusCode() == 429 || resp.StatusCode() >= 500 {
			return fmt.Errorf("transient status %d fetching %s", resp.StatusCode(), url)
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return nil
		}

		item.Title = strings.TrimSpace(doc.Find("title").First().Text())
		if meta, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			item.Description = strings.TrimSpace(meta)
		}
		if meta, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
			item.ImageURL = strings.TrimSpace(meta)
		}

		var body strings.Builder
		doc.Find("article p, .article-body p, p").Each(func(_ int, s *goquery.Selection) {
			body.WriteString(strings.TrimSpace(s.Text()))
			body.WriteString("\n")
		})
		item.FullText = strings.TrimSpace(body.String())
		item.URL = url
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	_ = backoff.Retry(operation, bo)
	return item, nil
}
