package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/renatosilveira/politracker/server/internal/models"
	"github.com/renatosilveira/politracker/server/internal/relevance"
)

// SocialPostAggregator collects first-party posts for featured
// politicians via the configured SocialSearch adapter.
type SocialPostAggregator struct {
	deps Deps
}

// NewSocialPostAggregator constructs the aggregator.
func NewSocialPostAggregator(deps Deps) *SocialPostAggregator {
	return &SocialPostAggregator{deps: deps}
}

// Run fetches p's own posts and converts them to models.SocialPost,
// capped at maxPosts.
func (a *SocialPostAggregator) Run(ctx context.Context, p models.Politician, maxPosts int) []models.SocialPost {
	handle := p.MicroblogUser
	if handle == "" {
		handle = p.PhotoHandle
	}
	if handle == "" || a.deps.SocialAdapter == nil {
		return nil
	}

	items, err := a.deps.SocialAdapter.Search(ctx, handle)
	if err != nil {
		return nil
	}

	now := time.Now()
	out := make([]models.SocialPost, 0, len(items))
	for i, c := range items {
		if len(out) >= maxPosts {
			break
		}
		out = append(out, models.SocialPost{
			PoliticianID:    p.ID,
			Platform:        c.SourceName,
			PostID:          fmt.Sprintf("%s-%d", p.UUID, i),
			URL:             c.URL,
			Content:         c.FullText,
			Likes:           c.Engagement.Likes,
			Comments:        c.Engagement.Comments,
			Shares:          c.Engagement.Shares,
			EngagementScore: relevance.EngagementScore(c.Engagement),
			MediaURL:        c.ImageURL,
			PostedAt:        c.PublishedAt,
			CollectedAt:     now,
		})
	}
	return out
}

// SocialMentionAggregator collects third-party mentions of a politician,
// classifies them (C7), and scores them.
type SocialMentionAggregator struct {
	deps Deps
}

// NewSocialMentionAggregator constructs the aggregator.
func NewSocialMentionAggregator(deps Deps) *SocialMentionAggregator {
	return &SocialMentionAggregator{deps: deps}
}

// Run fetches mentions of p, classifies them in batch, and returns scored
// models.SocialMention rows. Mentions are not subject to the quality
// filter (that applies only to news items per §4.6 step 5).
func (a *SocialMentionAggregator) Run(ctx context.Context, p models.Politician) []models.SocialMention {
	if a.deps.MentionAdapter == nil {
		return nil
	}
	raw, err := a.deps.MentionAdapter.SearchMentions(ctx, p.Name)
	if err != nil || len(raw) == 0 {
		return nil
	}

	inputs := make([]MentionInput, len(raw))
	for i, c := range raw {
		inputs[i] = MentionInput{ID: fmt.Sprintf("%d", i), Content: c.Title + " " + c.FullText}
	}

	var classifications []MentionClassification
	if a.deps.Classifier != nil {
		classifications = a.deps.Classifier.ClassifyBatch(ctx, inputs, p.Name)
	}

	now := time.Now()
	out := make([]models.SocialMention, 0, len(raw))
	for i, c := range raw {
		var cls MentionClassification
		if i < len(classifications) {
			cls = classifications[i]
		} else {
			cls = MentionClassification{Subject: models.SubjectOther, Sentiment: models.SentimentNeutral}
		}
		out = append(out, models.SocialMention{
			PoliticianID:    p.ID,
			Platform:        c.SourceName,
			MentionID:       fmt.Sprintf("%s-%d", p.UUID, i),
			AuthorName:      c.Title,
			AuthorHandle:    c.Description,
			Content:         c.FullText,
			URL:             c.URL,
			Subject:         cls.Subject,
			SubjectDetail:   cls.SubjectDetail,
			Sentiment:       cls.Sentiment,
			Likes:           c.Engagement.Likes,
			Comments:        c.Engagement.Comments,
			Shares:          c.Engagement.Shares,
			EngagementScore: relevance.EngagementScore(c.Engagement),
			PostedAt:        c.PublishedAt,
			CollectedAt:     now,
		})
	}
	return out
}
