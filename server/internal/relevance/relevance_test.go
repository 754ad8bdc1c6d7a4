package relevance

import (
	"testing"
	"time"
)

func TestScenarioS1(t *testing.T) {
	now := time.Now()
	published := now.Add(-2 * time.Hour)

	recency := RecencyScore(published, now)
	if recency < 95.9 || recency > 96.1 {
		t.Errorf("expected recency ~96, got %v", recency)
	}

	mention := MentionScore(true, 0)
	if mention != 50 {
		t.Errorf("expected mention 50, got %v", mention)
	}

	source := SourceScore(1.5)
	if source != 75 {
		t.Errorf("expected source 75, got %v", source)
	}

	engagement := EngagementScore(Engagement{})
	if engagement != 0 {
		t.Errorf("expected engagement 0, got %v", engagement)
	}

	composite := Composite(Subscores{Recency: recency, Mention: mention, Source: source, Engagement: engagement}, Default)
	// 0.25*96 + 0.35*50 + 0.25*75 + 0.15*0 = 24 + 17.5 + 18.75 = 60.25
	if composite < 60.2 || composite > 60.3 {
		t.Errorf("expected composite ~60.25, got %v", composite)
	}

	if !PassesQualityFilter(true, 0, mention) {
		t.Error("expected item with title hit to pass the quality filter")
	}
}

func TestWeightsValid(t *testing.T) {
	for name, w := range map[string]Weights{"default": Default, "breaking": BreakingNews, "verified": VerifiedSource} {
		if !w.Valid() {
			t.Errorf("%s weights do not sum to ~1.0: %+v", name, w)
		}
	}
}

func TestMissingPublishedAtIsNeutral(t *testing.T) {
	if got := RecencyScore(time.Time{}, time.Now()); got != 50 {
		t.Errorf("expected neutral 50 for missing timestamp, got %v", got)
	}
}

func TestQualityFilterRejectsWeakMention(t *testing.T) {
	if PassesQualityFilter(false, 0, 15) {
		t.Error("expected weak mention (no hit, no body count, score<=20) to fail the filter")
	}
}

func TestQualityFilterAcceptsHighMentionScore(t *testing.T) {
	if !PassesQualityFilter(false, 0, 21) {
		t.Error("expected mention score >20 to pass the filter even without a direct hit")
	}
}
