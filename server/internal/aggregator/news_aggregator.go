package aggregator

import (
	"context"
	"sort"
	"time"

	"github.com/renatosilveira/politracker/server/internal/dedup"
	"github.com/renatosilveira/politracker/server/internal/models"
	"github.com/renatosilveira/politracker/server/internal/relevance"
)

// NewsAggregator implements the politician/competitor/city/state/national
// news scopes sharing the template from §4.6: fan out, merge, dedupe,
// score, filter or select+enrich, tag, and return a batch ready for
// store.UpsertNewsBatch.
type NewsAggregator struct {
	deps Deps
}

// NewNewsAggregator constructs the aggregator from its collaborators.
func NewNewsAggregator(deps Deps) *NewsAggregator {
	return &NewsAggregator{deps: deps}
}

// RunForPolitician fans out a query built from the politician's name,
// scores with the politician's name in scope, and applies the mention
// quality filter.
func (a *NewsAggregator) RunForPolitician(ctx context.Context, p models.Politician) []models.NewsItem {
	return a.runNamedScope(ctx, p, p.Name, models.ScopePolitician, p.ID)
}

// RunForCompetitor is identical to RunForPolitician but tags the output
// scope=competitor and persists under the competitor's own identity while
// keeping the tracked politician's FK for downstream summaries.
func (a *NewsAggregator) RunForCompetitor(ctx context.Context, trackedPoliticianID int, competitorName string) []models.NewsItem {
	fake := models.Politician{ID: trackedPoliticianID, Name: competitorName}
	return a.runNamedScope(ctx, fake, competitorName, models.ScopeCompetitor, trackedPoliticianID)
}

func (a *NewsAggregator) runNamedScope(ctx context.Context, p models.Politician, queryName string, scope models.Scope, politicianFK int) []models.NewsItem {
	raw := fanOutNews(ctx, a.deps.NewsAdapters, queryName, a.deps.Config.FanOutConcurrency)
	deduped := dedup.Dedup(raw)

	now := time.Now()
	out := make([]models.NewsItem, 0, len(deduped))
	for _, c := range deduped {
		trust := a.deps.Registry.TrustWeight(hostOf(c.URL))
		item, titleHit, bodyCount := scoreForPolitician(c, queryName, trust, now)
		if !relevance.PassesQualityFilter(titleHit, bodyCount, item.MentionScore) {
			continue
		}
		item.Scope = scope
		item.PoliticianID = politicianFK
		item.City = p.City
		item.State = p.State
		setCanonicalURL(&item)
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CompositeScore > out[j].CompositeScore })
	if len(out) > a.deps.Config.MaxNewsPerPolitician {
		out = out[:a.deps.Config.MaxNewsPerPolitician]
	}
	return out
}

// RunForCity performs the latest-unique-portal selection flow for a
// city-scoped query (no politician name in scope).
func (a *NewsAggregator) RunForCity(ctx context.Context, city, state string) []models.NewsItem {
	return a.runRegionScope(ctx, city, models.ScopeCity, city, state)
}

// RunForState mirrors RunForCity at state granularity.
func (a *NewsAggregator) RunForState(ctx context.Context, state string) []models.NewsItem {
	return a.runRegionScope(ctx, state, models.ScopeState, "", state)
}

// RunForNational mirrors RunForCity/State with no regional qualifier.
func (a *NewsAggregator) RunForNational(ctx context.Context, query string) []models.NewsItem {
	return a.runRegionScope(ctx, query, models.ScopeNational, "", "")
}

func (a *NewsAggregator) runRegionScope(ctx context.Context, query string, scope models.Scope, city, state string) []models.NewsItem {
	raw := fanOutNews(ctx, a.deps.NewsAdapters, query, a.deps.Config.FanOutConcurrency)
	deduped := dedup.Dedup(raw)

	limit := a.deps.Config.RegionSelectLimit
	if limit <= 0 {
		limit = 5
	}
	selected := dedup.SelectLatestUniquePortal(deduped, limit)
	enriched := dedup.Enrich(ctx, selected, a.deps.ArticleFetcher, a.deps.ImageUploader, dedup.EnrichOptions{
		Concurrency: a.deps.Config.FanOutConcurrency,
		ImageFolder: "news/",
	})

	now := time.Now()
	out := make([]models.NewsItem, 0, len(enriched))
	for _, c := range enriched {
		trust := a.deps.Registry.TrustWeight(hostOf(c.URL))
		item := scoreRegion(c, trust, now)
		item.Scope = scope
		item.City = city
		item.State = state
		setCanonicalURL(&item)
		out = append(out, item)
	}
	return out
}
