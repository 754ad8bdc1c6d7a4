// Package topicrollup folds classified social mentions into
// per-politician-per-subject counters for a time window. Rollups are
// computed in memory from the window's mentions and upserted through the
// store gateway; running the same window twice must produce identical
// rows, since the computation is a pure function of the mention set.
package topicrollup

import (
	"context"
	"fmt"
	"time"

	"github.com/renatosilveira/politracker/server/internal/models"
)

// Store is the subset of the store gateway this package needs.
type Store interface {
	GetMentionsInWindow(ctx context.Context, politicianID int, start, end time.Time) ([]models.SocialMention, error)
	UpsertMentionTopic(ctx context.Context, topic models.MentionTopic) error
}

// Roller computes and persists rollups.
type Roller struct {
	store Store
}

// New constructs a Roller.
func New(store Store) *Roller {
	return &Roller{store: store}
}

type accumulator struct {
	total         int
	positive      int
	negative      int
	neutral       int
	engagementSum float64
	lastMentionAt time.Time
}

// RollUp groups politicianID's mentions collected within [start,end] by
// subject and upserts one mention_topic row per group. Returns the number
// of subject groups written.
func (r *Roller) RollUp(ctx context.Context, politicianID int, start, end time.Time) (int, error) {
	mentions, err := r.store.GetMentionsInWindow(ctx, politicianID, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetching mentions for rollup: %w", err)
	}

	groups := make(map[models.Subject]*accumulator)
	order := make([]models.Subject, 0)

	for _, m := range mentions {
		acc, ok := groups[m.Subject]
		if !ok {
			acc = &accumulator{}
			groups[m.Subject] = acc
			order = append(order, m.Subject)
		}
		acc.total++
		switch m.Sentiment {
		case models.SentimentPositive:
			acc.positive++
		case models.SentimentNegative:
			acc.negative++
		default:
			acc.neutral++
		}
		acc.engagementSum += m.EngagementScore
		if m.CollectedAt.After(acc.lastMentionAt) {
			acc.lastMentionAt = m.CollectedAt
		}
	}

	for _, subject := range order {
		acc := groups[subject]
		topic := models.MentionTopic{
			PoliticianID:  politicianID,
			Subject:       subject,
			PeriodStart:   start,
			PeriodEnd:     end,
			Total:         acc.total,
			Positive:      acc.positive,
			Negative:      acc.negative,
			Neutral:       acc.neutral,
			EngagementSum: acc.engagementSum,
			LastMentionAt: acc.lastMentionAt,
		}
		if err := r.store.UpsertMentionTopic(ctx, topic); err != nil {
			return len(order), fmt.Errorf("upserting topic %s: %w", subject, err)
		}
	}

	return len(order), nil
}
