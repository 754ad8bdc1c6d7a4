// Package sourceadapter defines the capability-set interfaces every
// provider integration implements (NewsSearch, SocialSearch, Trending) and
// the shared raw-record shape they return. Concrete adapters live in
// sibling files; each is a thin, fail-soft wrapper around one external
// provider and never writes to the store directly.
package sourceadapter

import (
	"context"
	"time"

	"github.com/renatosilveira/politracker/server/internal/dedup"
)

// RawItem is the uniform shape every adapter yields before C5/C4 process
// it further.
type RawItem = dedup.Candidate

// RawTrendingEntry is one ranked trending-topic record.
type RawTrendingEntry struct {
	Rank     int
	Title    string
	Subtitle string
}

// NewsSearch performs free-text news search and, optionally, full-article
// fetch for enrichment.
type NewsSearch interface {
	Search(ctx context.Context, query string) ([]RawItem, error)
	FetchArticle(ctx context.Context, url string) (RawItem, error)
}

// SocialSearch returns post-shaped records (with engagement counters) for
// a politician's name and/or handle.
type SocialSearch interface {
	Search(ctx context.Context, nameOrHandle string) ([]RawItem, error)
}

// Trending returns an ordered list of ranked entries for a region and
// optional category.
type Trending interface {
	Fetch(ctx context.Context, region string, category string) ([]RawTrendingEntry, error)
}

// GazetteStub is returned by CAPTCHA-gated adapters in place of a live
// fetch: a constructed query URL plus instructions for the human step that
// must run before ParseResultHTML can ingest the eventual page.
type GazetteStub struct {
	URL          string
	Instructions string
}

// GazetteAdapter is the capability exposed by official/judicial-source
// adapters that cannot complete a request unattended.
type GazetteAdapter interface {
	BuildQuery(ctx context.Context, subjectName string) (GazetteStub, error)
	ParseResultHTML(html string) ([]RawItem, error)
}

// defaultTimeout is the deadline withDefaultTimeout applies to a context
// that has none. The adapters in this package bound their calls with their
// own HTTP client timeouts instead.
const defaultTimeout = 30 * time.Second

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}
