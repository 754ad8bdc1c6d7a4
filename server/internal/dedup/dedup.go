// Package dedup implements URL canonicalization, fold-by-canonical-key
// deduplication, latest-unique-portal selection for region-scoped
// aggregations, and selective full-content enrichment of the final
// selection.
package dedup

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/renatosilveira/politracker/server/internal/relevance"
)

// Candidate is the uniform shape every source adapter and aggregator stage
// passes around before it becomes a models.NewsItem.
type Candidate struct {
	Title       string
	Description string
	FullText    string
	URL         string
	SourceName  string
	ImageURL    string
	PublishedAt time.Time
	Engagement  relevance.Engagement
	seenOrder   int
}

// aggregatorWrapperHosts are known news-aggregator wrapper domains whose
// real target URL travels in a query parameter instead of the path.
var aggregatorWrapperHosts = map[string]bool{
	"news.google.com":    true,
	"news.yahoo.com":     true,
	"www.bing.com":       true,
	"t.co":               true,
}

var wrapperParams = []string{"url", "q", "u"}

// Canonicalize implements the glossary's "Canonical URL": unwrap known
// aggregator wrappers, strip a leading "www.", lowercase the host, trim a
// trailing slash from the path, and return host+path.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", raw, err)
	}

	host := strings.ToLower(u.Host)
	if aggregatorWrapperHosts[host] {
		for _, p := range wrapperParams {
			if v := u.Query().Get(p); v != "" {
				return Canonicalize(v)
			}
		}
	}

	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimSuffix(u.Path, "/")
	return host + path, nil
}

// Dedup folds candidates by canonical URL key, keeping on collision the
// record with the longer FullText (ties keep the earliest-seen record).
// Candidates whose URL fails to parse are dropped, matching the adapters'
// "fail soft" contract.
func Dedup(items []Candidate) []Candidate {
	type entry struct {
		c   Candidate
		key string
	}
	best := make(map[string]entry, len(items))
	order := make([]string, 0, len(items))

	for i, c := range items {
		c.seenOrder = i
		key, err := Canonicalize(c.URL)
		if err != nil || key == "" {
			continue
		}
		existing, ok := best[key]
		if !ok {
			best[key] = entry{c: c, key: key}
			order = append(order, key)
			continue
		}
		if len(c.FullText) > len(existing.c.FullText) {
			best[key] = entry{c: c, key: key}
		}
		// tie or shorter: keep earliest-seen, i.e. do nothing.
	}

	out := make([]Candidate, 0, len(order))
	for _, k := range order {
		out = append(out, best[k].c)
	}
	return out
}

// SelectLatestUniquePortal sorts by PublishedAt descending (missing treated
// as the minimum time), then admits at most one record per host (skipping
// canonical-key duplicates along the way) up to limit.
func SelectLatestUniquePortal(items []Candidate, limit int) []Candidate {
	sorted := make([]Candidate, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	seenHosts := make(map[string]bool)
	seenKeys := make(map[string]bool)
	out := make([]Candidate, 0, limit)

	for _, c := range sorted {
		if len(out) >= limit {
			break
		}
		key, err := Canonicalize(c.URL)
		if err != nil || key == "" || seenKeys[key] {
			continue
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if seenHosts[host] {
			continue
		}
		seenHosts[host] = true
		seenKeys[key] = true
		out = append(out, c)
	}
	return out
}

// ArticleFetcher is the subset of the news-search adapter C5 uses for
// selective enrichment.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) (Candidate, error)
}

// ImageUploader routes enrichment-discovered image URLs through durable
// object storage, falling back to the original URL on failure.
type ImageUploader interface {
	Upload(ctx context.Context, folder string, sourceURL string) (storedURL string, err error)
}

// EnrichOptions bounds the concurrency of the selective-enrichment fan-out.
type EnrichOptions struct {
	Concurrency  int
	ImageFolder  string
}

// Enrich fetches full content for any selected candidate lacking FullText,
// concurrently across the set with bounded parallelism. Only empty fields
// are filled in from the fetch result; existing non-empty fields are never
// overwritten. Image URLs are routed through uploader when present; a
// fetch failure leaves the candidate as it was, and an upload failure
// keeps the fetched image URL as-is (best-effort).
func Enrich(ctx context.Context, items []Candidate, fetcher ArticleFetcher, uploader ImageUploader, opts EnrichOptions) []Candidate {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	out := make([]Candidate, len(items))
	copy(out, items)

	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	for i := range out {
		if out[i].FullText != "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			fetched, err := fetcher.FetchArticle(ctx, out[i].URL)
			if err != nil {
				return
			}
			if out[i].FullText == "" {
				out[i].FullText = fetched.FullText
			}
			if out[i].Title == "" {
				out[i].Title = fetched.Title
			}
			if out[i].Description == "" {
				out[i].Description = fetched.Description
			}
			if out[i].PublishedAt.IsZero() {
				out[i].PublishedAt = fetched.PublishedAt
			}
			if out[i].ImageURL == "" && fetched.ImageURL != "" {
				img := fetched.ImageURL
				if uploader != nil {
					if stored, err := uploader.Upload(ctx, opts.ImageFolder, fetched.ImageURL); err == nil {
						img = stored
					}
				}
				out[i].ImageURL = img
			}
		}(i)
	}
	wg.Wait()
	return out
}
