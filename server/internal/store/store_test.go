package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatosilveira/politracker/server/internal/models"
)

func TestDiversifyBySourceRoundRobin(t *testing.T) {
	pool := []models.NewsItem{
		{SourceName: "a", CompositeScore: 90},
		{SourceName: "a", CompositeScore: 80},
		{SourceName: "a", CompositeScore: 70},
		{SourceName: "b", CompositeScore: 85},
		{SourceName: "c", CompositeScore: 60},
	}
	out := diversifyBySourceRoundRobin(pool, 3)
	require.Len(t, out, 3)

	sources := map[string]bool{}
	for _, item := range out {
		sources[item.SourceName] = true
	}
	assert.Lenf(t, sources, 3, "expected round-robin to surface all 3 distinct sources within limit 3, got %v", sources)
}

func TestDiversifyBySourceRoundRobinFewerSourcesThanLimit(t *testing.T) {
	pool := []models.NewsItem{
		{SourceName: "a", CompositeScore: 90},
		{SourceName: "a", CompositeScore: 80},
	}
	out := diversifyBySourceRoundRobin(pool, 5)
	assert.Len(t, out, 2, "expected both items when pool is smaller than limit")
}
