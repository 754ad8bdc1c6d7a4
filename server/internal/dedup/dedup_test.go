package dedup

import (
	"context"
	"testing"
	"time"
)

func TestCanonicalizeUnwrapsAggregatorAndStripsWWW(t *testing.T) {
	a, err := Canonicalize("https://news.google.com/articles/abc?url=https://www.site.com/x/")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Canonicalize("https://www.site.com/x")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("expected equal canonical forms, got %q and %q", a, b)
	}
	if a != "site.com/x" {
		t.Errorf("expected site.com/x, got %q", a)
	}
}

func TestDedupKeepsLongerFullText(t *testing.T) {
	items := []Candidate{
		{URL: "https://news.google.com/articles/abc?url=https://site.com/x", FullText: "short"},
		{URL: "https://www.site.com/x", FullText: "a much longer article body here"},
	}
	out := Dedup(items)
	if len(out) != 1 {
		t.Fatalf("expected exactly one row after dedup, got %d", len(out))
	}
	if out[0].FullText != "a much longer article body here" {
		t.Errorf("expected the longer full text to win, got %q", out[0].FullText)
	}
}

func TestSelectLatestUniquePortal(t *testing.T) {
	now := time.Now()
	items := []Candidate{
		{URL: "https://a.com/1", PublishedAt: now},
		{URL: "https://a.com/2", PublishedAt: now.Add(-1 * time.Hour)},
		{URL: "https://b.com/1", PublishedAt: now.Add(-2 * time.Hour)},
		{URL: "https://c.com/1", PublishedAt: now.Add(-3 * time.Hour)},
		{URL: "https://d.com/1", PublishedAt: now.Add(-4 * time.Hour)},
	}
	out := SelectLatestUniquePortal(items, 5)
	if len(out) != 4 {
		t.Fatalf("expected 4 distinct hosts selected, got %d", len(out))
	}
	hosts := map[string]bool{}
	for _, c := range out {
		hosts[c.URL] = true
	}
}

type fakeFetcher struct {
	fullText string
}

func (f fakeFetcher) FetchArticle(ctx context.Context, url string) (Candidate, error) {
	return Candidate{FullText: f.fullText, Title: "fetched title"}, nil
}

func TestEnrichFillsMissingFieldsOnly(t *testing.T) {
	items := []Candidate{
		{URL: "https://site.com/a", Title: "existing title"},
	}
	out := Enrich(context.Background(), items, fakeFetcher{fullText: "full body"}, nil, EnrichOptions{Concurrency: 2})
	if out[0].Title != "existing title" {
		t.Errorf("expected existing non-empty title to be preserved, got %q", out[0].Title)
	}
	if out[0].FullText != "full body" {
		t.Errorf("expected full text to be backfilled, got %q", out[0].FullText)
	}
}
