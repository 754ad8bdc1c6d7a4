// Package relevance scores candidate news items and mentions: four
// subscores in [0,100] (recency, mention strength, source trust,
// engagement) combined into a weighted composite, plus the quality filter
// applied to politician/competitor-scoped output.
package relevance

import (
	"math"
	"time"
)

// Weights is a preset of composite coefficients. Sum must be 1.0 ± 0.01.
type Weights struct {
	Recency    float64
	Mention    float64
	Source     float64
	Engagement float64
}

// Default, BreakingNews and VerifiedSource are the three presets §4.4 and
// §6 name. BreakingNews leans harder on recency for time-sensitive runs;
// VerifiedSource leans harder on source trust for official-gazette-derived
// items where mention strength is structurally weak (no politician name in
// a judicial filing's title).
var (
	Default = Weights{Recency: 0.25, Mention: 0.35, Source: 0.25, Engagement: 0.15}

	BreakingNews = Weights{Recency: 0.45, Mention: 0.25, Source: 0.20, Engagement: 0.10}

	VerifiedSource = Weights{Recency: 0.20, Mention: 0.25, Source: 0.45, Engagement: 0.10}
)

// Valid reports whether the weights sum to 1.0 within tolerance 0.01.
func (w Weights) Valid() bool {
	sum := w.Recency + w.Mention + w.Source + w.Engagement
	return math.Abs(sum-1.0) <= 0.01
}

// Engagement is the raw engagement-counter input to the engagement
// subscore; posts/mentions with no likes/comments/shares pass a zero
// value.
type Engagement struct {
	Likes    int
	Comments int
	Shares   int
}

// Subscores is the four independent [0,100] component scores.
type Subscores struct {
	Recency    float64
	Mention    float64
	Source     float64
	Engagement float64
}

// Composite combines subscores with the given weights into a single
// [0,100] score, rounded to 2 decimals like every subscore.
func Composite(s Subscores, w Weights) float64 {
	v := w.Recency*s.Recency + w.Mention*s.Mention + w.Source*s.Source + w.Engagement*s.Engagement
	return round2(v)
}

// RecencyScore implements `max(0, 100 - 2*hours_since_published)`; a zero
// publishedAt (unknown timestamp) scores the documented neutral 50.
func RecencyScore(publishedAt time.Time, now time.Time) float64 {
	if publishedAt.IsZero() {
		return 50
	}
	hours := now.Sub(publishedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return round2(math.Max(0, 100-2*hours))
}

// MentionScore implements `(titleHit?50:0) + min(50, 10*bodyCount)`.
func MentionScore(titleHit bool, bodyCount int) float64 {
	v := 0.0
	if titleHit {
		v = 50
	}
	v += math.Min(50, 10*float64(bodyCount))
	return round2(v)
}

// SourceScore implements `min(100, 50*trustWeight)`.
func SourceScore(trustWeight float64) float64 {
	return round2(math.Min(100, 50*trustWeight))
}

// EngagementScore implements `min(100, (3*shares + 2*comments + likes)/10)`.
func EngagementScore(e Engagement) float64 {
	v := (3*float64(e.Shares) + 2*float64(e.Comments) + float64(e.Likes)) / 10
	return round2(math.Min(100, v))
}

// PassesQualityFilter implements the politician/competitor-scope filter:
// keep iff title-hit OR body-count>0 OR mention-score>20.
func PassesQualityFilter(titleHit bool, bodyCount int, mentionScore float64) bool {
	return titleHit || bodyCount > 0 || mentionScore > 20
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
