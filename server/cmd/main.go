package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/renatosilveira/politracker/server/internal/aggregator"
	"github.com/renatosilveira/politracker/server/internal/auth"
	"github.com/renatosilveira/politracker/server/internal/config"
	"github.com/renatosilveira/politracker/server/internal/database"
	"github.com/renatosilveira/politracker/server/internal/models"
	"github.com/renatosilveira/politracker/server/internal/objectstore"
	"github.com/renatosilveira/politracker/server/internal/scheduler"
	"github.com/renatosilveira/politracker/server/internal/sourceadapter"
	"github.com/renatosilveira/politracker/server/internal/sourceregistry"
	"github.com/renatosilveira/politracker/server/internal/store"
	"github.com/renatosilveira/politracker/server/internal/topicclassifier"
	"github.com/renatosilveira/politracker/server/internal/topicrollup"
)

// app bundles every collaborator constructed at startup, replacing the
// module-level singletons the original codebase leaned on with one
// explicit value threaded through jobs and the admin router.
type app struct {
	cfg       config.Config
	gateway   *store.Gateway
	registry  *sourceregistry.Registry
	authSvc   *auth.Service
	scheduler *scheduler.Service

	newsAgg    *aggregator.NewsAggregator
	newsDriver *aggregator.NewsDriver

	socialDriver *aggregator.SocialDriver

	roller *topicrollup.Roller

	trending sourceadapter.Trending
	gazettes []sourceadapter.GazetteAdapter
}

func main() {
	cfg := config.Load()
	if cfg.NewsAPIKey == "" {
		log.Println("config: NEWS_API_KEY not set, news API search disabled")
	}
	if cfg.LLMAPIKey == "" {
		log.Println("config: LLM_API_KEY not set, mentions get the default classification")
	}
	if cfg.PhotoPlatformUser == "" {
		log.Println("config: PHOTO_PLATFORM_USER not set, social searches run unauthenticated")
	}
	if cfg.ObjectStoreEndpoint == "" {
		log.Println("config: OBJECT_STORE_ENDPOINT not set, image uploads disabled")
	}

	gateway, err := store.Open(cfg.StoreURL, cfg.StoreMaxOpenConns)
	if err != nil {
		log.Fatalf("failed to open store gateway: %v", err)
	}
	defer gateway.Close()

	if err := database.Migrate(gateway.DB().DB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	a, err := buildApp(cfg, gateway)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	if err := a.registry.Load(context.Background()); err != nil {
		log.Printf("source registry: initial load failed, falling back to default trust weight: %v", err)
	}

	if err := a.registerJobs(); err != nil {
		log.Fatalf("failed to register scheduled jobs: %v", err)
	}
	a.scheduler.Start()

	r := a.router()

	srv := &http.Server{
		Addr:         ":" + cfg.AdminPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("admin server starting on port %s", cfg.AdminPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("admin server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	a.scheduler.Stop(cfg.ShutdownDrain)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDrain)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("admin server forced to shutdown: %v", err)
	}
	log.Println("shutdown complete")
}

// buildApp wires every collaborator named in the module expansion: source
// adapters, the dedup/enrich bridge (object storage), the relevance/
// classifier stack, and the aggregator and scheduler layers sitting on top
// of them.
func buildApp(cfg config.Config, gateway *store.Gateway) (*app, error) {
	registry := sourceregistry.New(gateway)

	objStore, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.ObjectStoreEndpoint,
		AccessKey: cfg.ObjectStoreAccessKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		Bucket:    cfg.ObjectStoreBucket,
		UseSSL:    cfg.ObjectStoreUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing object store: %w", err)
	}
	if err := objStore.EnsureBucket(context.Background()); err != nil {
		log.Printf("object store: bucket setup failed, uploads will fall back to source URLs: %v", err)
	}

	rssAdapter := sourceadapter.NewRSSNews(cfg.RSSFeedURLs)
	newsAPIAdapter := sourceadapter.NewNewsAPI(cfg.NewsAPIBaseURL, cfg.NewsAPIKey)
	newsAdapters := []sourceadapter.NewsSearch{rssAdapter, newsAPIAdapter}

	microblog := sourceadapter.NewMicroblogSocial(cfg.MicroblogBaseURL, cfg.PhotoPlatformUser, cfg.PhotoPlatformPass, cfg.MicroblogPlatform)
	trendSource := sourceadapter.NewTrendSource(cfg.TrendGeneralURL, cfg.TrendGoogleURL, cfg.TrendMicroblogURL)
	classifier := topicclassifier.New(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)

	aggConfig := aggregator.DefaultConfig
	aggConfig.MaxNewsPerPolitician = cfg.MaxNewsPerPolitician
	aggConfig.DelayBetweenRequests = cfg.DelayBetweenRequests
	aggConfig.DelayPhotoPlatform = cfg.DelayPhotoPlatform

	deps := aggregator.Deps{
		NewsAdapters:   newsAdapters,
		SocialAdapter:  microblog,
		MentionAdapter: microblog,
		Classifier:     classifierAdapter{classifier},
		Registry:       registry,
		ArticleFetcher: rssAdapter,
		ImageUploader:  objStore,
		Config:         aggConfig,
	}

	newsAgg := aggregator.NewNewsAggregator(deps)
	newsDriver := aggregator.NewNewsDriver(gateway, newsAgg, aggConfig, true)

	postAgg := aggregator.NewSocialPostAggregator(deps)
	mentionAgg := aggregator.NewSocialMentionAggregator(deps)
	socialDriver := aggregator.NewSocialDriver(gateway, postAgg, mentionAgg, aggConfig, cfg.MaxPostsPerPolitician)

	roller := topicrollup.New(gateway)

	gazettes := []sourceadapter.GazetteAdapter{
		sourceadapter.NewGazetteAdapter("tjsp-esaj", cfg.GazetteTJSPURL),
		sourceadapter.NewGazetteAdapter("trf3-consulta", cfg.GazetteTRF3URL),
		sourceadapter.NewGazetteAdapter("tse-divulgacand", cfg.GazetteTSEURL),
	}

	authSvc := auth.NewService(cfg.JWTSecret, cfg.AdminKeyHash)
	sched := scheduler.New(gateway, cfg.Location(), cfg.JobTimeout)

	return &app{
		cfg:          cfg,
		gateway:      gateway,
		registry:     registry,
		authSvc:      authSvc,
		scheduler:    sched,
		newsAgg:      newsAgg,
		newsDriver:   newsDriver,
		socialDriver: socialDriver,
		roller:       roller,
		trending:     trendSource,
		gazettes:     gazettes,
	}, nil
}

// classifierAdapter adapts topicclassifier.Classifier to the narrower
// aggregator.MentionClassifier interface, translating between the two
// packages' identically-shaped but independently-declared structs.
type classifierAdapter struct {
	c *topicclassifier.Classifier
}

func (a classifierAdapter) ClassifyBatch(ctx context.Context, mentions []aggregator.MentionInput, politicianName string) []aggregator.MentionClassification {
	in := make([]topicclassifier.MentionInput, len(mentions))
	for i, m := range mentions {
		in[i] = topicclassifier.MentionInput{ID: m.ID, Content: m.Content}
	}
	results := a.c.ClassifyBatch(ctx, in, politicianName)
	out := make([]aggregator.MentionClassification, len(results))
	for i, r := range results {
		out[i] = aggregator.MentionClassification{Subject: r.Subject, SubjectDetail: r.SubjectDetail, Sentiment: r.Sentiment}
	}
	return out
}

// registerJobs wires the default schedule from §4.10: news at H:M, featured
// social posts at H:M+45, social mentions at (H+1):M, trending at
// (H+2):M, retention at (H+2):M+15, and the weekly heavy scrape every
// Sunday at 03:00.
func (a *app) registerJobs() error {
	h, m := a.cfg.CollectHourLocal, a.cfg.CollectMinute

	if err := a.scheduler.Register("news", "News collection", cronAt(h, m), a.runNewsJob); err != nil {
		return err
	}
	sh, sm := addMinutes(h, m, 45)
	if err := a.scheduler.Register("social_posts", "Featured politician social posts", cronAt(sh, sm), a.runSocialPostsJob); err != nil {
		return err
	}
	mh, mm := addMinutes(h, m, 60)
	if err := a.scheduler.Register("social_mentions", "Social mentions + topic rollup", cronAt(mh, mm), a.runSocialMentionsJob); err != nil {
		return err
	}
	th, tm := addMinutes(h, m, 120)
	if err := a.scheduler.Register("trending", "Trending topics", cronAt(th, tm), a.runTrendingJob); err != nil {
		return err
	}
	rh, rm := addMinutes(h, m, 135)
	if err := a.scheduler.Register("retention", "Retention cleanup", cronAt(rh, rm), a.runRetentionJob); err != nil {
		return err
	}
	if err := a.scheduler.Register("weekly_heavy_scrape", "Weekly official-source scrape", "0 3 * * 0", a.runWeeklyHeavyScrapeJob); err != nil {
		return err
	}
	return nil
}

// cronAt renders a standard 5-field "minute hour * * *" spec.
func cronAt(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// addMinutes offsets a base hour/minute by delta minutes, wrapping across
// day boundaries.
func addMinutes(hour, minute, delta int) (int, int) {
	const day = 24 * 60
	total := ((hour*60+minute+delta)%day + day) % day
	return total / 60, total % 60
}

func (a *app) runNewsJob(ctx context.Context) scheduler.RunResult {
	summary, err := a.newsDriver.Run(ctx)
	total := 0
	for _, n := range summary.ByScope {
		total += n
	}
	if err != nil {
		return scheduler.RunResult{Status: models.JobError, Count: total, Message: err.Error()}
	}
	if summary.Errors > 0 {
		return scheduler.RunResult{Status: models.JobPartial, Count: total, Message: fmt.Sprintf("%d adapter/store errors isolated", summary.Errors)}
	}
	return scheduler.RunResult{Status: models.JobOK, Count: total, Message: "news collection complete"}
}

func (a *app) runSocialPostsJob(ctx context.Context) scheduler.RunResult {
	count, err := a.socialDriver.RunPosts(ctx)
	if err != nil {
		return scheduler.RunResult{Status: models.JobError, Count: count, Message: err.Error()}
	}
	return scheduler.RunResult{Status: models.JobOK, Count: count, Message: "social posts collected"}
}

// runSocialMentionsJob collects third-party mentions and immediately rolls
// them up into the current 7-day window's mention_topic rows, matching C8's
// idempotent per-window accumulation.
func (a *app) runSocialMentionsJob(ctx context.Context) scheduler.RunResult {
	count, err := a.socialDriver.RunMentions(ctx)
	if err != nil {
		return scheduler.RunResult{Status: models.JobError, Count: count, Message: err.Error()}
	}

	politicians, err := a.gateway.GetActivePoliticians(ctx)
	if err != nil {
		return scheduler.RunResult{Status: models.JobPartial, Count: count, Message: fmt.Sprintf("mentions collected but rollup failed: %v", err)}
	}

	end := time.Now()
	start := end.AddDate(0, 0, -7)
	rollupErrors := 0
	for _, p := range politicians {
		if _, err := a.roller.RollUp(ctx, p.ID, start, end); err != nil {
			log.Printf("social mentions job: rollup failed for %s: %v", p.Name, err)
			rollupErrors++
		}
	}
	if rollupErrors > 0 {
		return scheduler.RunResult{Status: models.JobPartial, Count: count, Message: fmt.Sprintf("%d rollup errors isolated", rollupErrors)}
	}
	return scheduler.RunResult{Status: models.JobOK, Count: count, Message: "mentions collected and rolled up"}
}

// trendingCategories is the closed category set §3 names for the
// trending_topic table.
var trendingCategories = []string{"politics", "twitter", "google", "general"}

func (a *app) runTrendingJob(ctx context.Context) scheduler.RunResult {
	total := 0
	errCount := 0
	for _, category := range trendingCategories {
		entries, err := a.trending.Fetch(ctx, "BR", category)
		if err != nil {
			log.Printf("trending job: category %s failed: %v", category, err)
			errCount++
			continue
		}
		rows := make([]models.TrendingTopic, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, models.TrendingTopic{Category: category, Rank: e.Rank, Title: e.Title, Subtitle: e.Subtitle})
		}
		if err := a.gateway.ReplaceTrendingTopics(ctx, category, rows); err != nil {
			log.Printf("trending job: replacing category %s failed: %v", category, err)
			errCount++
			continue
		}
		total += len(rows)
	}
	if errCount > 0 && total == 0 {
		return scheduler.RunResult{Status: models.JobError, Message: fmt.Sprintf("%d/%d categories failed", errCount, len(trendingCategories))}
	}
	if errCount > 0 {
		return scheduler.RunResult{Status: models.JobPartial, Count: total, Message: fmt.Sprintf("%d/%d categories failed", errCount, len(trendingCategories))}
	}
	return scheduler.RunResult{Status: models.JobOK, Count: total, Message: "trending topics refreshed"}
}

// runRetentionJob deletes rows older than the configured TTL per table, per
// §4.10's dedicated retention job.
func (a *app) runRetentionJob(ctx context.Context) scheduler.RunResult {
	ttls := map[string]int{
		"news":           a.cfg.RetentionNewsDays,
		"social_post":    a.cfg.RetentionPostsDays,
		"social_mention": a.cfg.RetentionMentionsDays,
		"mention_topic":  a.cfg.RetentionMentionsDays,
	}
	total := int64(0)
	errCount := 0
	for table, days := range ttls {
		n, err := a.gateway.DeleteOlderThan(ctx, table, days)
		if err != nil {
			log.Printf("retention job: table %s failed: %v", table, err)
			errCount++
			continue
		}
		total += n
	}
	if errCount > 0 {
		return scheduler.RunResult{Status: models.JobPartial, Count: int(total), Message: fmt.Sprintf("%d/%d tables failed", errCount, len(ttls))}
	}
	return scheduler.RunResult{Status: models.JobOK, Count: int(total), Message: "retention cleanup complete"}
}

// runWeeklyHeavyScrapeJob builds the CAPTCHA-gated query stubs for every
// active politician against every configured official-source adapter. It
// never performs a live fetch (these sources require a human to clear a
// CAPTCHA); the job's record count is the number of stubs produced, and its
// message surfaces operator instructions for the next manual step.
func (a *app) runWeeklyHeavyScrapeJob(ctx context.Context) scheduler.RunResult {
	politicians, err := a.gateway.GetActivePoliticians(ctx)
	if err != nil {
		return scheduler.RunResult{Status: models.JobError, Message: err.Error()}
	}

	stubs := 0
	errCount := 0
	for _, p := range politicians {
		for _, g := range a.gazettes {
			if _, err := g.BuildQuery(ctx, p.Name); err != nil {
				errCount++
				continue
			}
			stubs++
		}
	}
	if errCount > 0 {
		return scheduler.RunResult{Status: models.JobPartial, Count: stubs, Message: fmt.Sprintf("%d stub builds failed", errCount)}
	}
	return scheduler.RunResult{Status: models.JobOK, Count: stubs, Message: "official-source query stubs generated for manual follow-up"}
}

// router builds the minimal admin/read HTTP surface named in §6: a health
// check, source-weight update, and manual job trigger, the only two
// mutating operations the external read API needs this pipeline to expose.
func (a *app) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(a.requireAdmin)
		r.Put("/sources/{domain}/weight", a.handleSetSourceWeight)
		r.Post("/jobs/{id}/run", a.handleRunJobNow)
		r.Get("/jobs", a.handleListJobs)
	})

	return r
}

func (a *app) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		ok, err := a.authSvc.ValidateToken(tokenString)
		if err != nil || !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithAdmin(r.Context())))
	})
}

func (a *app) handleSetSourceWeight(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	var body struct {
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Weight < 0 || body.Weight > 2 {
		http.Error(w, "weight must be within [0,2]", http.StatusBadRequest)
		return
	}
	if err := a.registry.SetWeight(r.Context(), domain, body.Weight); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *app) handleRunJobNow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.scheduler.RunNow(id); err != nil {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *app) handleListJobs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.scheduler.ListJobs())
}
