package aggregator

import (
	"context"
	"log"
	"time"

	"github.com/renatosilveira/politracker/server/internal/models"
)

// Store is the subset of the store gateway the full-run driver needs.
type Store interface {
	GetActivePoliticians(ctx context.Context) ([]models.Politician, error)
	GetFeaturedPoliticians(ctx context.Context) ([]models.Politician, error)
	GetCompetitors(ctx context.Context, politicianID int) ([]models.CompetitorLink, error)
	UpsertNewsBatch(ctx context.Context, items []models.NewsItem) error
	UpsertSocialPostsBatch(ctx context.Context, posts []models.SocialPost) error
	UpsertSocialMentionsBatch(ctx context.Context, mentions []models.SocialMention) error
}

// Summary tallies one full run's results by scope.
type Summary struct {
	ByScope map[models.Scope]int
	Errors  int
}

// NewsDriver runs the full news collection sweep: every active
// politician's politician-scoped news, its competitors, and (deduped
// across the run) each distinct city/state/national region reached by
// that politician's office.
type NewsDriver struct {
	store       Store
	newsAgg     *NewsAggregator
	config      Config
	coletarBR   bool // whether to run the single national-scope query at all
}

// NewNewsDriver constructs the driver. coletarBrasil mirrors the original
// pipeline's "coletar_brasil" flag: national-scope collection is run at
// most once per full run, gated by this flag so operators can disable it
// independently of the region sweep.
func NewNewsDriver(store Store, agg *NewsAggregator, config Config, coletarBrasil bool) *NewsDriver {
	return &NewsDriver{store: store, newsAgg: agg, config: config, coletarBR: coletarBrasil}
}

// Run executes the full sweep and returns a per-scope tally. Each
// politician's state and city are fetched at most once during this run
// regardless of how many politicians share that region (invariant 3).
func (d *NewsDriver) Run(ctx context.Context) (Summary, error) {
	summary := Summary{ByScope: make(map[models.Scope]int)}

	politicians, err := d.store.GetActivePoliticians(ctx)
	if err != nil {
		return summary, err
	}

	seenCities := make(map[string]bool)
	seenStates := make(map[string]bool)
	nationalDone := false

	for _, p := range politicians {
		items := d.newsAgg.RunForPolitician(ctx, p)
		summary.ByScope[models.ScopePolitician] += len(items)
		if err := d.store.UpsertNewsBatch(ctx, items); err != nil {
			log.Printf("fullrun: upserting politician news for %s: %v", p.Name, err)
			summary.Errors++
		}

		competitors, err := d.store.GetCompetitors(ctx, p.ID)
		if err != nil {
			log.Printf("fullrun: fetching competitors for %s: %v", p.Name, err)
			summary.Errors++
		}
		for _, comp := range competitors {
			compItems := d.newsAgg.RunForCompetitor(ctx, p.ID, comp.CompetitorUID)
			summary.ByScope[models.ScopeCompetitor] += len(compItems)
			if err := d.store.UpsertNewsBatch(ctx, compItems); err != nil {
				log.Printf("fullrun: upserting competitor news for %s: %v", p.Name, err)
				summary.Errors++
			}
			sleep(ctx, d.config.DelayBetweenRequests)
		}

		reach := ReachForOffice(p.Role)
		city := CityForPolitician(p)
		if reach.City && city != "" && !seenCities[city] {
			seenCities[city] = true
			cityItems := d.newsAgg.RunForCity(ctx, city, p.State)
			summary.ByScope[models.ScopeCity] += len(cityItems)
			if err := d.store.UpsertNewsBatch(ctx, cityItems); err != nil {
				log.Printf("fullrun: upserting city news for %s: %v", city, err)
				summary.Errors++
			}
		}
		if reach.State && p.State != "" && !seenStates[p.State] {
			seenStates[p.State] = true
			stateItems := d.newsAgg.RunForState(ctx, p.State)
			summary.ByScope[models.ScopeState] += len(stateItems)
			if err := d.store.UpsertNewsBatch(ctx, stateItems); err != nil {
				log.Printf("fullrun: upserting state news for %s: %v", p.State, err)
				summary.Errors++
			}
		}
		if reach.National && d.coletarBR && !nationalDone {
			nationalDone = true
			nationalItems := d.newsAgg.RunForNational(ctx, "política nacional")
			summary.ByScope[models.ScopeNational] += len(nationalItems)
			if err := d.store.UpsertNewsBatch(ctx, nationalItems); err != nil {
				log.Printf("fullrun: upserting national news: %v", err)
				summary.Errors++
			}
		}

		sleep(ctx, d.config.DelayBetweenRequests)
	}

	return summary, nil
}

// SocialDriver runs the featured-politician social-post and social-mention
// sweeps.
type SocialDriver struct {
	store    Store
	postAgg  *SocialPostAggregator
	mentAgg  *SocialMentionAggregator
	config   Config
	maxPosts int
}

// NewSocialDriver constructs the driver.
func NewSocialDriver(store Store, postAgg *SocialPostAggregator, mentAgg *SocialMentionAggregator, config Config, maxPosts int) *SocialDriver {
	return &SocialDriver{store: store, postAgg: postAgg, mentAgg: mentAgg, config: config, maxPosts: maxPosts}
}

// RunPosts collects first-party posts for every featured politician.
func (d *SocialDriver) RunPosts(ctx context.Context) (int, error) {
	politicians, err := d.store.GetFeaturedPoliticians(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range politicians {
		posts := d.postAgg.Run(ctx, p, d.maxPosts)
		total += len(posts)
		if err := d.store.UpsertSocialPostsBatch(ctx, posts); err != nil {
			log.Printf("fullrun: upserting posts for %s: %v", p.Name, err)
		}
		sleep(ctx, d.config.DelayPhotoPlatform)
	}
	return total, nil
}

// RunMentions collects and classifies third-party mentions for every
// active politician.
func (d *SocialDriver) RunMentions(ctx context.Context) (int, error) {
	politicians, err := d.store.GetActivePoliticians(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range politicians {
		mentions := d.mentAgg.Run(ctx, p)
		total += len(mentions)
		if err := d.store.UpsertSocialMentionsBatch(ctx, mentions); err != nil {
			log.Printf("fullrun: upserting mentions for %s: %v", p.Name, err)
		}
		sleep(ctx, d.config.DelayBetweenRequests)
	}
	return total, nil
}

// sleep is a cancellation-aware delay: it returns promptly if ctx is
// cancelled instead of blocking for the full duration.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
