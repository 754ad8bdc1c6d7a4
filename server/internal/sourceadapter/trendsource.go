package sourceadapter

import (
	"context"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
)

// trendingProvider is one underlying trending-topics source tried in
// priority order by TrendSource.
type trendingProvider interface {
	name() string
	fetch(ctx context.Context, region, category string) ([]RawTrendingEntry, error)
}

// TrendSource implements Trending by trying several underlying providers
// in a documented priority order, taking the first whose result meets
// minResults.
type TrendSource struct {
	providers  []trendingProvider
	minResults int
}

// NewTrendSource builds the adapter with providers in priority order:
// a general trends endpoint first, then a Google-Trends-shaped endpoint,
// then a microblog-platform-shaped endpoint — matching the two
// "trending categories depend on third-party endpoints that change shape
// frequently" open question, where only the output contract is fixed.
func NewTrendSource(generalURL, googleURL, microblogURL string) *TrendSource {
	return &TrendSource{
		providers: []trendingProvider{
			&httpTrendProvider{name_: "general", url: generalURL},
			&httpTrendProvider{name_: "google", url: googleURL},
			&httpTrendProvider{name_: "twitter", url: microblogURL},
		},
		minResults: 3,
	}
}

// Fetch tries each provider in order, returning the first result meeting
// the minimum-result threshold. If every provider falls short, it returns
// the best (longest) result seen.
func (t *TrendSource) Fetch(ctx context.Context, region, category string) ([]RawTrendingEntry, error) {
	var best []RawTrendingEntry
	for _, p := range t.providers {
		entries, err := p.fetch(ctx, region, category)
		if err != nil {
			log.Printf("trendsource: provider %s failed: %v", p.name(), err)
			continue
		}
		if len(entries) > len(best) {
			best = entries
		}
		if len(entries) >= t.minResults {
			return entries, nil
		}
	}
	return best, nil
}

type httpTrendProvider struct {
	name_ string
	url   string
	http  *resty.Client
}

func (h *httpTrendProvider) name() string { return h.name_ }

type trendResponse struct {
	Entries []struct {
		Rank     int    `json:"rank"`
		Title    string `json:"title"`
		Subtitle string `json:"subtitle"`
	} `json:"entries"`
}

func (h *httpTrendProvider) fetch(ctx context.Context, region, category string) ([]RawTrendingEntry, error) {
	if h.url == "" {
		return nil, nil
	}
	if h.http == nil {
		h.http = resty.New().SetTimeout(20 * time.Second)
	}

	var parsed trendResponse
	resp, err := h.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"region": region, "category": category}).
		SetResult(&parsed).
		Get(h.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, nil
	}

	out := make([]RawTrendingEntry, 0, len(parsed.Entries))
	for _, e := range parsed.Entries {
		out = append(out, RawTrendingEntry{Rank: e.Rank, Title: e.Title, Subtitle: e.Subtitle})
	}
	return out, nil
}
