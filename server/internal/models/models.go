// Package models defines the domain records persisted and moved between the
// ingestion pipeline's stages: politicians (read-only, owned externally),
// news items, social posts and mentions, topic rollups, trending topics, the
// source-trust registry, and job-run logs.
//
// Struct tags follow the same convention throughout: `json` for API
// responses, `db` for sqlx/lib-pq column mapping.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Scope tags a news item with the aggregation scope that produced it.
type Scope string

const (
	ScopePolitician Scope = "politician"
	ScopeCompetitor Scope = "competitor"
	ScopeCity       Scope = "city"
	ScopeState      Scope = "state"
	ScopeNational   Scope = "national"
)

// Sentiment is the closed set a topic classifier assigns to a mention.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Subject is the closed category set the topic classifier assigns.
type Subject string

const (
	SubjectHealth         Subject = "Health"
	SubjectEducation      Subject = "Education"
	SubjectSecurity       Subject = "Security"
	SubjectEconomy        Subject = "Economy"
	SubjectInfrastructure Subject = "Infrastructure"
	SubjectEnvironment    Subject = "Environment"
	SubjectCorruption     Subject = "Corruption"
	SubjectPolitics       Subject = "Politics"
	SubjectSocial         Subject = "Social"
	SubjectCulture        Subject = "Culture"
	SubjectTechnology     Subject = "Technology"
	SubjectAgribusiness   Subject = "Agribusiness"
	SubjectOther          Subject = "Other"
)

// ValidSubjects lists the closed category set; anything else normalizes to
// SubjectOther.
var ValidSubjects = map[Subject]bool{
	SubjectHealth: true, SubjectEducation: true, SubjectSecurity: true,
	SubjectEconomy: true, SubjectInfrastructure: true, SubjectEnvironment: true,
	SubjectCorruption: true, SubjectPolitics: true, SubjectSocial: true,
	SubjectCulture: true, SubjectTechnology: true, SubjectAgribusiness: true,
	SubjectOther: true,
}

// JobStatus is the taxonomy job_log rows are recorded under.
type JobStatus string

const (
	JobStarted JobStatus = "started"
	JobOK      JobStatus = "ok"
	JobPartial JobStatus = "partial"
	JobError   JobStatus = "error"
)

// ============================================================================
// POLITICIAN
// ============================================================================

// Politician is owned by an external source of truth; this system only
// reads it. Role drives the scope-to-query routing table in the aggregator
// package (national/state/city reach depends on office).
type Politician struct {
	ID            int    `json:"id" db:"id"`
	UUID          string `json:"uuid" db:"uuid"`
	Name          string `json:"name" db:"name"`
	City          string `json:"city" db:"city"`
	State         string `json:"state" db:"state"`
	Role          string `json:"role" db:"role"`
	Active        bool   `json:"active" db:"active"`
	Featured      bool   `json:"featured" db:"featured"`
	PhotoHandle   string `json:"photo_handle" db:"photo_handle"`
	MicroblogUser string `json:"microblog_user" db:"microblog_user"`
}

// CompetitorLink joins a tracked politician to a named electoral competitor
// tracked only for news-scope purposes (no independent Politician row).
type CompetitorLink struct {
	PoliticianID  int    `json:"politician_id" db:"politician_id"`
	CompetitorID  int    `json:"competitor_id" db:"competitor_id"`
	CompetitorUID string `json:"competitor_uuid" db:"competitor_uuid"`
}

// ============================================================================
// NEWS
// ============================================================================

// NewsItem is a candidate article after scoring. CanonicalURL is the unique
// key (see dedup.Canonicalize); on conflict the row with
// the longer FullText wins.
type NewsItem struct {
	ID            int       `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	FullText      string    `json:"full_text" db:"full_text"`
	CanonicalURL  string    `json:"canonical_url" db:"canonical_url"`
	SourceURL     string    `json:"source_url" db:"source_url"`
	SourceName    string    `json:"source_name" db:"source_name"`
	SourceID      string    `json:"source_id" db:"source_id"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	PublishedAt   time.Time `json:"published_at" db:"published_at"`
	Scope         Scope     `json:"scope" db:"scope"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	PoliticianID  int       `json:"politician_id" db:"politician_id"`
	CollectedAt   time.Time `json:"collected_at" db:"collected_at"`
	RecencyScore  float64   `json:"recency_score" db:"recency_score"`
	MentionScore  float64   `json:"mention_score" db:"mention_score"`
	SourceScore   float64   `json:"source_score" db:"source_score"`
	EngageScore   float64   `json:"engagement_score" db:"engagement_score"`
	CompositeScore float64  `json:"composite_score" db:"composite_score"`
}

// ============================================================================
// SOCIAL
// ============================================================================

// SocialPost is a first-party post authored by the tracked politician.
// Unique on (politician_id, platform, post_id).
type SocialPost struct {
	ID             int             `json:"id" db:"id"`
	PoliticianID   int             `json:"politician_id" db:"politician_id"`
	Platform       string          `json:"platform" db:"platform"`
	PostID         string          `json:"post_id" db:"post_id"`
	URL            string          `json:"url" db:"url"`
	Content        string          `json:"content" db:"content"`
	Likes          int             `json:"likes" db:"likes"`
	Comments       int             `json:"comments" db:"comments"`
	Shares         int             `json:"shares" db:"shares"`
	Views          int             `json:"views" db:"views"`
	EngagementScore float64        `json:"engagement_score" db:"engagement_score"`
	MediaType      string          `json:"media_type" db:"media_type"`
	MediaURL       string          `json:"media_url" db:"media_url"`
	PostedAt       time.Time       `json:"posted_at" db:"posted_at"`
	CollectedAt    time.Time       `json:"collected_at" db:"collected_at"`
	Metadata       json.RawMessage `json:"metadata" db:"metadata"`
}

// SocialMention is a third-party post referring to a tracked politician.
// Unique on (politician_id, platform, mention_id).
type SocialMention struct {
	ID              int             `json:"id" db:"id"`
	PoliticianID    int             `json:"politician_id" db:"politician_id"`
	Platform        string          `json:"platform" db:"platform"`
	MentionID       string          `json:"mention_id" db:"mention_id"`
	AuthorName      string          `json:"author_name" db:"author_name"`
	AuthorHandle    string          `json:"author_handle" db:"author_handle"`
	Content         string          `json:"content" db:"content"`
	URL             string          `json:"url" db:"url"`
	Subject         Subject         `json:"subject" db:"subject"`
	SubjectDetail   string          `json:"subject_detail" db:"subject_detail"`
	Sentiment       Sentiment       `json:"sentiment" db:"sentiment"`
	Likes           int             `json:"likes" db:"likes"`
	Comments        int             `json:"comments" db:"comments"`
	Shares          int             `json:"shares" db:"shares"`
	EngagementScore float64         `json:"engagement_score" db:"engagement_score"`
	PostedAt        time.Time       `json:"posted_at" db:"posted_at"`
	CollectedAt     time.Time       `json:"collected_at" db:"collected_at"`
	Metadata        json.RawMessage `json:"metadata" db:"metadata"`
}

// MentionTopic is a rollup row for a (politician, subject, period-start)
// triple. Idempotent under repeated rollups over the same window.
type MentionTopic struct {
	ID              int       `json:"id" db:"id"`
	PoliticianID    int       `json:"politician_id" db:"politician_id"`
	Subject         Subject   `json:"subject" db:"subject"`
	PeriodStart     time.Time `json:"period_start" db:"period_start"`
	PeriodEnd       time.Time `json:"period_end" db:"period_end"`
	Total           int       `json:"total" db:"total"`
	Positive        int       `json:"positive" db:"positive"`
	Negative        int       `json:"negative" db:"negative"`
	Neutral         int       `json:"neutral" db:"neutral"`
	EngagementSum   float64   `json:"engagement_sum" db:"engagement_sum"`
	LastMentionAt   time.Time `json:"last_mention_at" db:"last_mention_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ============================================================================
// TRENDING
// ============================================================================

// TrendingTopic is one ranked entry within a category. Each run for a
// category replaces its rows atomically (see store.ReplaceTrendingTopics).
type TrendingTopic struct {
	ID       int    `json:"id" db:"id"`
	Category string `json:"category" db:"category"`
	Rank     int    `json:"rank" db:"rank"`
	Title    string `json:"title" db:"title"`
	Subtitle string `json:"subtitle" db:"subtitle"`
}

// ============================================================================
// SOURCE REGISTRY
// ============================================================================

// Source is one domain's trust entry. TrustWeight scales the relevance
// engine's source subscore and must stay within [0,2].
type Source struct {
	ID          int     `json:"id" db:"id"`
	Domain      string  `json:"domain" db:"domain"`
	Name        string  `json:"name" db:"name"`
	Category    string  `json:"category" db:"category"`
	TrustWeight float64 `json:"trust_weight" db:"trust_weight"`
	Active      bool    `json:"active" db:"active"`
}

// ============================================================================
// JOB LOG
// ============================================================================

// JobLog is one append-only row per job execution.
type JobLog struct {
	ID        int        `json:"id" db:"id"`
	Kind      string     `json:"kind" db:"kind"`
	Status    JobStatus  `json:"status" db:"status"`
	Message   string     `json:"message" db:"message"`
	Records   int        `json:"records" db:"records"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at" db:"ended_at"`
}

// ============================================================================
// DATABASE TYPE HELPERS
// ============================================================================

// StringArray adapts []string to PostgreSQL TEXT[] columns via lib/pq.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	return pq.Array(a).Value()
}

func (a *StringArray) Scan(value interface{}) error {
	return pq.Array(a).Scan(value)
}
