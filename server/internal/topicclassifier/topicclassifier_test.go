package topicclassifier

import (
	"context"
	"testing"

	"github.com/renatosilveira/politracker/server/internal/models"
)

func TestClassifyBatchDegradesWhenUnconfigured(t *testing.T) {
	c := New("", "", "")
	mentions := make([]MentionInput, 50)
	for i := range mentions {
		mentions[i] = MentionInput{ID: "m", Content: "some text"}
	}

	results := c.ClassifyBatch(context.Background(), mentions, "Fulano de Tal")
	if len(results) != 50 {
		t.Fatalf("expected 50 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Subject != models.SubjectOther || r.Sentiment != models.SentimentNeutral || r.SubjectDetail != "" {
			t.Fatalf("expected default classification, got %+v", r)
		}
	}
}

func TestNormalizeUnknownSubjectFallsBackToOther(t *testing.T) {
	got := normalize(chunkResult{Subject: "NotARealCategory", Sentiment: "positive"})
	if got.Subject != models.SubjectOther {
		t.Errorf("expected unknown subject to normalize to Other, got %v", got.Subject)
	}
	if got.Sentiment != models.SentimentPositive {
		t.Errorf("expected sentiment positive, got %v", got.Sentiment)
	}
}

func TestNormalizeTruncatesSubjectDetail(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	got := normalize(chunkResult{Subject: "Economy", SubjectDetail: long, Sentiment: "neutral"})
	if len(got.SubjectDetail) != MaxSubjectDetailLen {
		t.Errorf("expected subject detail truncated to %d, got %d", MaxSubjectDetailLen, len(got.SubjectDetail))
	}
}
