// Package sourceregistry holds the in-memory domain-to-trust-weight mapping
// the relevance engine consults for its source subscore. It is loaded once
// at startup from the store gateway and mutated rarely (an admin weight
// update), so reads take a RWMutex read lock and writes a write lock —
// mirroring the scheduler package's own running-state locking idiom.
package sourceregistry

import (
	"context"
	"strings"
	"sync"

	"github.com/renatosilveira/politracker/server/internal/models"
)

// DefaultTrustWeight is returned for any domain with no registry entry and
// no suffix match.
const DefaultTrustWeight = 1.0

// Store is the subset of the store gateway this package needs; kept narrow
// so the registry can be tested without a real database.
type Store interface {
	ListSources(ctx context.Context) ([]models.Source, error)
	SetSourceWeight(ctx context.Context, domain string, weight float64) error
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byDomain map[string]models.Source
	store   Store
}

// New constructs an empty registry. Call Load before first use.
func New(store Store) *Registry {
	return &Registry{
		byDomain: make(map[string]models.Source),
		store:    store,
	}
}

// Load replaces the in-memory map with the current contents of the store.
func (r *Registry) Load(ctx context.Context) error {
	sources, err := r.store.ListSources(ctx)
	if err != nil {
		return err
	}
	m := make(map[string]models.Source, len(sources))
	for _, s := range sources {
		m[strings.ToLower(s.Domain)] = s
	}
	r.mu.Lock()
	r.byDomain = m
	r.mu.Unlock()
	return nil
}

// TrustWeight resolves domain by exact match, else the first entry whose
// domain is a suffix-contained match (e.g. "g1.globo.com" matching a
// registered "globo.com"), else DefaultTrustWeight.
func (r *Registry) TrustWeight(domain string) float64 {
	domain = strings.ToLower(domain)
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.byDomain[domain]; ok && s.Active {
		return s.TrustWeight
	}
	for d, s := range r.byDomain {
		if !s.Active {
			continue
		}
		if strings.HasSuffix(domain, d) || strings.HasSuffix(d, domain) {
			return s.TrustWeight
		}
	}
	return DefaultTrustWeight
}

// SetWeight updates both the store and the in-memory map, used by the
// admin weight-update operation.
func (r *Registry) SetWeight(ctx context.Context, domain string, weight float64) error {
	if err := r.store.SetSourceWeight(ctx, domain, weight); err != nil {
		return err
	}
	domain = strings.ToLower(domain)
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byDomain[domain]
	if !ok {
		s = models.Source{Domain: domain, Active: true}
	}
	s.TrustWeight = weight
	r.byDomain[domain] = s
	return nil
}
