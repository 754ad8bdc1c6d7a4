package sourceregistry

import (
	"context"
	"testing"

	"github.com/renatosilveira/politracker/server/internal/models"
)

type fakeStore struct {
	sources []models.Source
}

func (f *fakeStore) ListSources(ctx context.Context) ([]models.Source, error) {
	return f.sources, nil
}

func (f *fakeStore) SetSourceWeight(ctx context.Context, domain string, weight float64) error {
	for i := range f.sources {
		if f.sources[i].Domain == domain {
			f.sources[i].TrustWeight = weight
			return nil
		}
	}
	f.sources = append(f.sources, models.Source{Domain: domain, TrustWeight: weight, Active: true})
	return nil
}

func TestTrustWeightExactAndDefault(t *testing.T) {
	store := &fakeStore{sources: []models.Source{
		{Domain: "globo.com", TrustWeight: 1.5, Active: true},
	}}
	reg := New(store)
	if err := reg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if w := reg.TrustWeight("globo.com"); w != 1.5 {
		t.Errorf("expected exact match weight 1.5, got %v", w)
	}
	if w := reg.TrustWeight("g1.globo.com"); w != 1.5 {
		t.Errorf("expected suffix match weight 1.5, got %v", w)
	}
	if w := reg.TrustWeight("unknown-portal.example"); w != DefaultTrustWeight {
		t.Errorf("expected default weight for unknown domain, got %v", w)
	}
}

func TestSetWeightUpdatesStoreAndMemory(t *testing.T) {
	store := &fakeStore{}
	reg := New(store)
	if err := reg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetWeight(context.Background(), "novo.com", 1.8); err != nil {
		t.Fatal(err)
	}
	if w := reg.TrustWeight("novo.com"); w != 1.8 {
		t.Errorf("expected updated weight 1.8, got %v", w)
	}
	if len(store.sources) != 1 || store.sources[0].TrustWeight != 1.8 {
		t.Errorf("expected store to be updated, got %+v", store.sources)
	}
}
