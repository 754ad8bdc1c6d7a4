package topicrollup

import (
	"context"
	"testing"
	"time"

	"github.com/renatosilveira/politracker/server/internal/models"
)

type fakeRollupStore struct {
	mentions []models.SocialMention
	upserts  []models.MentionTopic
}

func (f *fakeRollupStore) GetMentionsInWindow(ctx context.Context, politicianID int, start, end time.Time) ([]models.SocialMention, error) {
	return f.mentions, nil
}

func (f *fakeRollupStore) UpsertMentionTopic(ctx context.Context, topic models.MentionTopic) error {
	f.upserts = append(f.upserts, topic)
	return nil
}

func TestRollUpScenarioS4(t *testing.T) {
	now := time.Now()
	store := &fakeRollupStore{
		mentions: []models.SocialMention{
			{Subject: models.SubjectEconomy, Sentiment: models.SentimentPositive, EngagementScore: 10, CollectedAt: now},
			{Subject: models.SubjectEconomy, Sentiment: models.SentimentNegative, EngagementScore: 20, CollectedAt: now},
			{Subject: models.SubjectHealth, Sentiment: models.SentimentNeutral, EngagementScore: 5, CollectedAt: now},
		},
	}
	roller := New(store)

	n, err := roller.RollUp(context.Background(), 1, now.Add(-7*24*time.Hour), now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 subject groups, got %d", n)
	}

	byline := map[models.Subject]models.MentionTopic{}
	for _, u := range store.upserts {
		byline[u.Subject] = u
	}

	econ := byline[models.SubjectEconomy]
	if econ.Total != 2 || econ.Positive != 1 || econ.Negative != 1 || econ.EngagementSum != 30 {
		t.Errorf("unexpected economy rollup: %+v", econ)
	}
	health := byline[models.SubjectHealth]
	if health.Total != 1 || health.Neutral != 1 || health.EngagementSum != 5 {
		t.Errorf("unexpected health rollup: %+v", health)
	}
}

func TestRollUpIdempotent(t *testing.T) {
	now := time.Now()
	store := &fakeRollupStore{
		mentions: []models.SocialMention{
			{Subject: models.SubjectSecurity, Sentiment: models.SentimentNeutral, EngagementScore: 3, CollectedAt: now},
		},
	}
	roller := New(store)
	ctx := context.Background()
	start, end := now.Add(-24*time.Hour), now

	if _, err := roller.RollUp(ctx, 1, start, end); err != nil {
		t.Fatal(err)
	}
	if _, err := roller.RollUp(ctx, 1, start, end); err != nil {
		t.Fatal(err)
	}

	if len(store.upserts) != 2 {
		t.Fatalf("expected 2 upsert calls across two runs, got %d", len(store.upserts))
	}
	if store.upserts[0] != store.upserts[1] {
		t.Errorf("expected byte-equal rollup rows across repeated runs, got %+v vs %+v", store.upserts[0], store.upserts[1])
	}
}
