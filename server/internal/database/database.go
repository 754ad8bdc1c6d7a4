// Package database provides the PostgreSQL schema migration for the
// ingestion pipeline. It runs one idempotent schema over a connection the
// caller already opened, declaring every core table: politicians and their
// competitor links, collected news/social rows, topic rollups, the
// source-trust registry, and the job-run log.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Migrate executes schema migrations against an already-open connection
// (the store gateway's own pool). It is idempotent: every statement
// uses CREATE TABLE/INDEX IF NOT EXISTS, so it is safe to run on every
// process start.
//
// Politicians and their competitor links are owned by an external system
// of record; this migration only declares the shape this pipeline expects
// to read, it never seeds or mutates politician rows itself.
func Migrate(db *sql.DB) error {
	schema := `
	-- ========================================================================
	-- TABLE: politician
	-- ========================================================================
	-- Read-only as far as this pipeline is concerned; owned by an external
	-- system. role drives the scope-to-query routing table (national/state/
	-- city reach varies by office).
	CREATE TABLE IF NOT EXISTS politician (
		id SERIAL PRIMARY KEY,
		uuid VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		city VARCHAR(255) DEFAULT '',
		state VARCHAR(2) DEFAULT '',
		role VARCHAR(100) DEFAULT '',
		active BOOLEAN DEFAULT true,
		featured BOOLEAN DEFAULT false,
		photo_handle VARCHAR(255) DEFAULT '',
		microblog_user VARCHAR(255) DEFAULT ''
	);

	-- ========================================================================
	-- TABLE: competitor_link
	-- ========================================================================
	-- Electoral competitors tracked for news-scope purposes only; no
	-- independent politician row.
	CREATE TABLE IF NOT EXISTS competitor_link (
		politician_id INTEGER NOT NULL REFERENCES politician(id) ON DELETE CASCADE,
		competitor_id SERIAL,
		competitor_uuid VARCHAR(64) NOT NULL,
		PRIMARY KEY (politician_id, competitor_id)
	);

	-- ========================================================================
	-- TABLE: news
	-- ========================================================================
	-- One row per deduplicated, scored article. canonical_url is the
	-- dedup key; on conflict the row with the longer full_text wins.
	CREATE TABLE IF NOT EXISTS news (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		full_text TEXT DEFAULT '',
		canonical_url TEXT NOT NULL UNIQUE,
		source_url TEXT NOT NULL,
		source_name VARCHAR(255) DEFAULT '',
		source_id VARCHAR(255) DEFAULT '',
		image_url TEXT DEFAULT '',
		published_at TIMESTAMPTZ,
		scope VARCHAR(20) NOT NULL,
		city VARCHAR(255) DEFAULT '',
		state VARCHAR(2) DEFAULT '',
		politician_id INTEGER REFERENCES politician(id) ON DELETE CASCADE,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		recency_score DOUBLE PRECISION DEFAULT 0,
		mention_score DOUBLE PRECISION DEFAULT 0,
		source_score DOUBLE PRECISION DEFAULT 0,
		engagement_score DOUBLE PRECISION DEFAULT 0,
		composite_score DOUBLE PRECISION DEFAULT 0
	);

	-- ========================================================================
	-- TABLE: social_post
	-- ========================================================================
	-- First-party posts authored by the tracked politician.
	CREATE TABLE IF NOT EXISTS social_post (
		id SERIAL PRIMARY KEY,
		politician_id INTEGER NOT NULL REFERENCES politician(id) ON DELETE CASCADE,
		platform VARCHAR(50) NOT NULL,
		post_id VARCHAR(255) NOT NULL,
		url TEXT DEFAULT '',
		content TEXT DEFAULT '',
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		shares INTEGER DEFAULT 0,
		views INTEGER DEFAULT 0,
		engagement_score DOUBLE PRECISION DEFAULT 0,
		media_type VARCHAR(50) DEFAULT '',
		media_url TEXT DEFAULT '',
		posted_at TIMESTAMPTZ,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		metadata JSONB,
		UNIQUE (politician_id, platform, post_id)
	);

	-- ========================================================================
	-- TABLE: social_mention
	-- ========================================================================
	-- Third-party posts referring to a tracked politician, classified by
	-- subject/sentiment.
	CREATE TABLE IF NOT EXISTS social_mention (
		id SERIAL PRIMARY KEY,
		politician_id INTEGER NOT NULL REFERENCES politician(id) ON DELETE CASCADE,
		platform VARCHAR(50) NOT NULL,
		mention_id VARCHAR(255) NOT NULL,
		author_name VARCHAR(255) DEFAULT '',
		author_handle VARCHAR(255) DEFAULT '',
		content TEXT DEFAULT '',
		url TEXT DEFAULT '',
		subject VARCHAR(50) NOT NULL DEFAULT 'Other',
		subject_detail VARCHAR(150) DEFAULT '',
		sentiment VARCHAR(20) NOT NULL DEFAULT 'neutral',
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		shares INTEGER DEFAULT 0,
		engagement_score DOUBLE PRECISION DEFAULT 0,
		posted_at TIMESTAMPTZ,
		collected_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		metadata JSONB,
		UNIQUE (politician_id, platform, mention_id)
	);

	-- ========================================================================
	-- TABLE: mention_topic
	-- ========================================================================
	-- Rollup of social_mention rows by (politician, subject, period window).
	-- Idempotent: re-rolling the same window updates the same row.
	CREATE TABLE IF NOT EXISTS mention_topic (
		id SERIAL PRIMARY KEY,
		politician_id INTEGER NOT NULL REFERENCES politician(id) ON DELETE CASCADE,
		subject VARCHAR(50) NOT NULL,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		total INTEGER DEFAULT 0,
		positive INTEGER DEFAULT 0,
		negative INTEGER DEFAULT 0,
		neutral INTEGER DEFAULT 0,
		engagement_sum DOUBLE PRECISION DEFAULT 0,
		last_mention_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (politician_id, subject, period_start)
	);

	-- ========================================================================
	-- TABLE: trending_topic
	-- ========================================================================
	-- Ranked entries within a category; each run for a category replaces
	-- its rows atomically.
	CREATE TABLE IF NOT EXISTS trending_topic (
		id SERIAL PRIMARY KEY,
		category VARCHAR(50) NOT NULL,
		rank INTEGER NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT DEFAULT ''
	);

	-- ========================================================================
	-- TABLE: source
	-- ========================================================================
	-- Domain-level trust registry feeding the relevance engine's source
	-- subscore.
	CREATE TABLE IF NOT EXISTS source (
		id SERIAL PRIMARY KEY,
		domain VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) DEFAULT '',
		category VARCHAR(100) DEFAULT '',
		trust_weight DOUBLE PRECISION NOT NULL DEFAULT 1.0 CHECK (trust_weight >= 0 AND trust_weight <= 2),
		active BOOLEAN DEFAULT true
	);

	-- ========================================================================
	-- TABLE: job_log
	-- ========================================================================
	-- Append-only record of every scheduled job execution.
	CREATE TABLE IF NOT EXISTS job_log (
		id SERIAL PRIMARY KEY,
		kind VARCHAR(100) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'started',
		message TEXT DEFAULT '',
		records INTEGER DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		ended_at TIMESTAMPTZ
	);

	-- ========================================================================
	-- PERFORMANCE INDEXES
	-- ========================================================================
	CREATE INDEX IF NOT EXISTS idx_politician_active ON politician(active);
	CREATE INDEX IF NOT EXISTS idx_politician_featured ON politician(featured) WHERE featured;
	CREATE INDEX IF NOT EXISTS idx_news_politician_id ON news(politician_id);
	CREATE INDEX IF NOT EXISTS idx_news_scope ON news(scope);
	CREATE INDEX IF NOT EXISTS idx_news_published_at ON news(published_at);
	CREATE INDEX IF NOT EXISTS idx_news_collected_at ON news(collected_at);
	CREATE INDEX IF NOT EXISTS idx_social_post_politician_id ON social_post(politician_id);
	CREATE INDEX IF NOT EXISTS idx_social_post_collected_at ON social_post(collected_at);
	CREATE INDEX IF NOT EXISTS idx_social_mention_politician_id ON social_mention(politician_id);
	CREATE INDEX IF NOT EXISTS idx_social_mention_posted_at ON social_mention(posted_at);
	CREATE INDEX IF NOT EXISTS idx_mention_topic_politician_id ON mention_topic(politician_id);
	CREATE INDEX IF NOT EXISTS idx_trending_topic_category ON trending_topic(category);
	CREATE INDEX IF NOT EXISTS idx_job_log_kind ON job_log(kind);
	CREATE INDEX IF NOT EXISTS idx_job_log_started_at ON job_log(started_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}

	return nil
}
