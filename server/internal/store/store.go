// Package store is the gateway to the external relational datastore: every
// operation the pipeline needs is exposed as a typed method here, so
// callers never construct SQL themselves. It wraps lib/pq for the
// connection and sqlx for named-parameter batch upserts, following the
// teacher's database package for connection setup and the gonews
// backend's sqlx usage for struct-slice scanning.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/renatosilveira/politracker/server/internal/models"
)

// Gateway owns the connection pool and exposes every domain operation the
// pipeline's jobs use.
type Gateway struct {
	db *sqlx.DB
}

// Open establishes the pool (reusing database/sql's pq driver via sqlx)
// and verifies connectivity, and caps the pool size per the concurrency
// model's "store gateway owns its own connection pool with a configurable
// upper bound" requirement.
func Open(dataSourceURL string, maxOpenConns int) (*Gateway, error) {
	db, err := sqlx.Connect("postgres", dataSourceURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	db.SetMaxOpenConns(maxOpenConns)
	return &Gateway{db: db}, nil
}

// Close releases the connection pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// DB exposes the underlying handle for migration purposes only.
func (g *Gateway) DB() *sqlx.DB { return g.db }

const defaultPageSize = 500

// ============================================================================
// POLITICIANS
// ============================================================================

// GetActivePoliticians returns every active politician, paginated
// internally in defaultPageSize chunks to bound any single query's result
// set.
func (g *Gateway) GetActivePoliticians(ctx context.Context) ([]models.Politician, error) {
	return g.scanPoliticians(ctx, "SELECT * FROM politician WHERE active = true ORDER BY id")
}

// GetFeaturedPoliticians returns the "featured" subset used by social/
// photo-platform jobs.
func (g *Gateway) GetFeaturedPoliticians(ctx context.Context) ([]models.Politician, error) {
	return g.scanPoliticians(ctx, "SELECT * FROM politician WHERE active = true AND featured = true ORDER BY id")
}

func (g *Gateway) scanPoliticians(ctx context.Context, baseQuery string) ([]models.Politician, error) {
	var out []models.Politician
	offset := 0
	for {
		var page []models.Politician
		q := fmt.Sprintf("%s LIMIT $1 OFFSET $2", baseQuery)
		if err := g.db.SelectContext(ctx, &page, q, defaultPageSize, offset); err != nil {
			return nil, fmt.Errorf("scanning politicians: %w", err)
		}
		out = append(out, page...)
		if len(page) < defaultPageSize {
			break
		}
		offset += defaultPageSize
	}
	return out, nil
}

// GetCompetitors returns the competitor roster for politicianID via the
// competitor_link join table.
func (g *Gateway) GetCompetitors(ctx context.Context, politicianID int) ([]models.CompetitorLink, error) {
	var out []models.CompetitorLink
	err := g.db.SelectContext(ctx, &out,
		"SELECT * FROM competitor_link WHERE politician_id = $1", politicianID)
	if err != nil {
		return nil, fmt.Errorf("fetching competitors: %w", err)
	}
	return out, nil
}

// ============================================================================
// NEWS
// ============================================================================

// UpsertNewsBatch inserts or updates news rows, conflicting on the
// canonical URL. On conflict, full_text is kept as the longer of the two
// variants (matching the dedup package's own tie-break rule, enforced
// again here since two different job runs can race on the same URL).
func (g *Gateway) UpsertNewsBatch(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	const q = `
		INSERT INTO news (
			title, description, full_text, canonical_url, source_url, source_name,
			source_id, image_url, published_at, scope, city, state, politician_id,
			collected_at, recency_score, mention_score, source_score, engagement_score, composite_score
		) VALUES (
			:title, :description, :full_text, :canonical_url, :source_url, :source_name,
			:source_id, :image_url, :published_at, :scope, :city, :state, :politician_id,
			:collected_at, :recency_score, :mention_score, :source_score, :engagement_score, :composite_score
		)
		ON CONFLICT (canonical_url) DO UPDATE SET
			full_text = CASE WHEN length(EXCLUDED.full_text) > length(news.full_text) THEN EXCLUDED.full_text ELSE news.full_text END,
			title = CASE WHEN length(EXCLUDED.full_text) > length(news.full_text) THEN EXCLUDED.title ELSE news.title END,
			description = CASE WHEN length(EXCLUDED.full_text) > length(news.full_text) THEN EXCLUDED.description ELSE news.description END,
			image_url = COALESCE(NULLIF(news.image_url, ''), EXCLUDED.image_url),
			recency_score = EXCLUDED.recency_score,
			mention_score = EXCLUDED.mention_score,
			source_score = EXCLUDED.source_score,
			engagement_score = EXCLUDED.engagement_score,
			composite_score = EXCLUDED.composite_score
	`
	if _, err := g.db.NamedExecContext(ctx, q, items); err != nil {
		return fmt.Errorf("upserting news batch: %w", err)
	}
	return nil
}

// CountNewsForPolitician returns the current news row count for a
// politician.
func (g *Gateway) CountNewsForPolitician(ctx context.Context, politicianID int) (int, error) {
	var n int
	err := g.db.GetContext(ctx, &n, "SELECT count(*) FROM news WHERE politician_id = $1", politicianID)
	return n, err
}

// GetNewsForPolitician returns up to limit news rows scoring at least
// minScore. When diversifyBySource, it fetches 5*limit candidates ordered
// by composite score, groups by source (each source's group ordered by its
// own top score), and round-robins across source groups admitting up to
// limit distinct URLs — guaranteeing up to min(K,L) distinct sources are
// represented per invariant 5.
func (g *Gateway) GetNewsForPolitician(ctx context.Context, politicianID int, limit int, minScore float64, diversifyBySource bool) ([]models.NewsItem, error) {
	if !diversifyBySource {
		var out []models.NewsItem
		err := g.db.SelectContext(ctx, &out,
			`SELECT * FROM news WHERE politician_id = $1 AND composite_score >= $2
			 ORDER BY composite_score DESC LIMIT $3`, politicianID, minScore, limit)
		return out, err
	}

	var pool []models.NewsItem
	err := g.db.SelectContext(ctx, &pool,
		`SELECT * FROM news WHERE politician_id = $1 AND composite_score >= $2
		 ORDER BY composite_score DESC LIMIT $3`, politicianID, minScore, limit*5)
	if err != nil {
		return nil, fmt.Errorf("fetching diversification pool: %w", err)
	}

	return diversifyBySourceRoundRobin(pool, limit), nil
}

// diversifyBySourceRoundRobin implements the round-robin selection
// described in §4.9: group by source name (each group already sorted by
// composite score since pool is), order groups by their own top score, and
// walk groups in rotation admitting one item per pass until limit is
// reached or the pool is exhausted.
func diversifyBySourceRoundRobin(pool []models.NewsItem, limit int) []models.NewsItem {
	order := make([]string, 0)
	groups := make(map[string][]models.NewsItem)
	for _, item := range pool {
		if _, ok := groups[item.SourceName]; !ok {
			order = append(order, item.SourceName)
		}
		groups[item.SourceName] = append(groups[item.SourceName], item)
	}

	out := make([]models.NewsItem, 0, limit)
	idx := make(map[string]int, len(order))
	for {
		progressed := false
		for _, source := range order {
			if len(out) >= limit {
				return out
			}
			i := idx[source]
			if i >= len(groups[source]) {
				continue
			}
			out = append(out, groups[source][i])
			idx[source] = i + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}

// ============================================================================
// SOCIAL POSTS / MENTIONS
// ============================================================================

// UpsertSocialPostsBatch conflicts on (politician_id, platform, post_id).
func (g *Gateway) UpsertSocialPostsBatch(ctx context.Context, posts []models.SocialPost) error {
	if len(posts) == 0 {
		return nil
	}
	const q = `
		INSERT INTO social_post (
			politician_id, platform, post_id, url, content, likes, comments, shares, views,
			engagement_score, media_type, media_url, posted_at, collected_at, metadata
		) VALUES (
			:politician_id, :platform, :post_id, :url, :content, :likes, :comments, :shares, :views,
			:engagement_score, :media_type, :media_url, :posted_at, :collected_at, :metadata
		)
		ON CONFLICT (politician_id, platform, post_id) DO UPDATE SET
			likes = EXCLUDED.likes, comments = EXCLUDED.comments, shares = EXCLUDED.shares,
			views = EXCLUDED.views, engagement_score = EXCLUDED.engagement_score
	`
	_, err := g.db.NamedExecContext(ctx, q, posts)
	if err != nil {
		return fmt.Errorf("upserting social posts batch: %w", err)
	}
	return nil
}

// CountSocialPostsForPolitician mirrors CountNewsForPolitician for posts.
func (g *Gateway) CountSocialPostsForPolitician(ctx context.Context, politicianID int) (int, error) {
	var n int
	err := g.db.GetContext(ctx, &n, "SELECT count(*) FROM social_post WHERE politician_id = $1", politicianID)
	return n, err
}

// UpsertSocialMentionsBatch conflicts on (politician_id, platform,
// mention_id).
func (g *Gateway) UpsertSocialMentionsBatch(ctx context.Context, mentions []models.SocialMention) error {
	if len(mentions) == 0 {
		return nil
	}
	const q = `
		INSERT INTO social_mention (
			politician_id, platform, mention_id, author_name, author_handle, content, url,
			subject, subject_detail, sentiment, likes, comments, shares, engagement_score,
			posted_at, collected_at, metadata
		) VALUES (
			:politician_id, :platform, :mention_id, :author_name, :author_handle, :content, :url,
			:subject, :subject_detail, :sentiment, :likes, :comments, :shares, :engagement_score,
			:posted_at, :collected_at, :metadata
		)
		ON CONFLICT (politician_id, platform, mention_id) DO UPDATE SET
			subject = EXCLUDED.subject, subject_detail = EXCLUDED.subject_detail,
			sentiment = EXCLUDED.sentiment, likes = EXCLUDED.likes, comments = EXCLUDED.comments,
			shares = EXCLUDED.shares, engagement_score = EXCLUDED.engagement_score
	`
	_, err := g.db.NamedExecContext(ctx, q, mentions)
	if err != nil {
		return fmt.Errorf("upserting social mentions batch: %w", err)
	}
	return nil
}

// CountSocialMentionsForPolitician mirrors the other Count* operations for
// mentions.
func (g *Gateway) CountSocialMentionsForPolitician(ctx context.Context, politicianID int) (int, error) {
	var n int
	err := g.db.GetContext(ctx, &n, "SELECT count(*) FROM social_mention WHERE politician_id = $1", politicianID)
	return n, err
}

// GetMentionsInWindow returns every mention collected within [start,end]
// for topicrollup.RollUp.
func (g *Gateway) GetMentionsInWindow(ctx context.Context, politicianID int, start, end time.Time) ([]models.SocialMention, error) {
	var out []models.SocialMention
	err := g.db.SelectContext(ctx, &out,
		`SELECT * FROM social_mention WHERE politician_id = $1 AND collected_at >= $2 AND collected_at <= $3`,
		politicianID, start, end)
	return out, err
}

// ============================================================================
// TOPIC ROLLUP
// ============================================================================

// UpsertMentionTopic conflicts on (politician_id, subject, period_start).
func (g *Gateway) UpsertMentionTopic(ctx context.Context, t models.MentionTopic) error {
	const q = `
		INSERT INTO mention_topic (
			politician_id, subject, period_start, period_end, total, positive, negative,
			neutral, engagement_sum, last_mention_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (politician_id, subject, period_start) DO UPDATE SET
			period_end = EXCLUDED.period_end, total = EXCLUDED.total, positive = EXCLUDED.positive,
			negative = EXCLUDED.negative, neutral = EXCLUDED.neutral,
			engagement_sum = EXCLUDED.engagement_sum, last_mention_at = EXCLUDED.last_mention_at,
			updated_at = now()
	`
	_, err := g.db.ExecContext(ctx, q,
		t.PoliticianID, t.Subject, t.PeriodStart, t.PeriodEnd, t.Total, t.Positive,
		t.Negative, t.Neutral, t.EngagementSum, t.LastMentionAt)
	if err != nil {
		return fmt.Errorf("upserting mention topic: %w", err)
	}
	return nil
}

// ============================================================================
// TRENDING
// ============================================================================

// ReplaceTrendingTopics atomically deletes category's existing rows and
// inserts items in a single transaction, so GetTrending readers never
// observe an empty or partial set mid-replacement (invariant 7).
func (g *Gateway) ReplaceTrendingTopics(ctx context.Context, category string, items []models.TrendingTopic) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning trending replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trending_topic WHERE category = $1", category); err != nil {
		return fmt.Errorf("clearing trending rows for %s: %w", category, err)
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trending_topic (category, rank, title, subtitle) VALUES ($1, $2, $3, $4)",
			category, item.Rank, item.Title, item.Subtitle)
		if err != nil {
			return fmt.Errorf("inserting trending row: %w", err)
		}
	}
	return tx.Commit()
}

// ============================================================================
// SOURCE REGISTRY
// ============================================================================

// ListSources returns every configured source row.
func (g *Gateway) ListSources(ctx context.Context) ([]models.Source, error) {
	var out []models.Source
	err := g.db.SelectContext(ctx, &out, "SELECT * FROM source ORDER BY domain")
	return out, err
}

// SetSourceWeight upserts a single source's trust weight.
func (g *Gateway) SetSourceWeight(ctx context.Context, domain string, weight float64) error {
	const q = `
		INSERT INTO source (domain, name, category, trust_weight, active)
		VALUES ($1, $1, 'unknown', $2, true)
		ON CONFLICT (domain) DO UPDATE SET trust_weight = EXCLUDED.trust_weight
	`
	_, err := g.db.ExecContext(ctx, q, domain, weight)
	if err != nil {
		return fmt.Errorf("setting source weight: %w", err)
	}
	return nil
}

// ============================================================================
// RETENTION
// ============================================================================

// allowedRetentionTables whitelists the tables DeleteOlderThan may target,
// since the table name can't be bound as a query parameter.
var allowedRetentionTables = map[string]string{
	"news":           "published_at",
	"social_post":    "posted_at",
	"social_mention": "collected_at",
	"mention_topic":  "period_end",
}

// DeleteOlderThan deletes rows older than days in one of the whitelisted
// tables, using that table's natural retention timestamp column.
func (g *Gateway) DeleteOlderThan(ctx context.Context, table string, days int) (int64, error) {
	column, ok := allowedRetentionTables[table]
	if !ok {
		return 0, fmt.Errorf("table %q is not eligible for retention deletes", table)
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s < now() - ($1 || ' days')::interval", table, column)
	res, err := g.db.ExecContext(ctx, q, days)
	if err != nil {
		return 0, fmt.Errorf("deleting old rows from %s: %w", table, err)
	}
	return res.RowsAffected()
}

// ============================================================================
// JOB LOG
// ============================================================================

// LogJobStart inserts a `started` row and returns its id.
func (g *Gateway) LogJobStart(ctx context.Context, kind string) (int, error) {
	var id int
	err := g.db.GetContext(ctx, &id,
		`INSERT INTO job_log (kind, status, started_at) VALUES ($1, $2, now()) RETURNING id`,
		kind, models.JobStarted)
	if err != nil {
		return 0, fmt.Errorf("logging job start: %w", err)
	}
	return id, nil
}

// LogJobEnd finalizes a job_log row with its terminal status.
func (g *Gateway) LogJobEnd(ctx context.Context, id int, status models.JobStatus, message string, recordCount int) error {
	_, err := g.db.ExecContext(ctx,
		`UPDATE job_log SET status = $1, message = $2, records = $3, ended_at = now() WHERE id = $4`,
		status, message, recordCount, id)
	if err != nil {
		return fmt.Errorf("logging job end: %w", err)
	}
	return nil
}
