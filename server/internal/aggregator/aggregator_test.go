package aggregator

import (
	"testing"

	"github.com/renatosilveira/politracker/server/internal/models"
)

func TestReachForOfficePresidentReachesEverywhere(t *testing.T) {
	r := ReachForOffice("Presidente")
	if !r.National || !r.State || !r.City {
		t.Errorf("expected president to reach national/state/city, got %+v", r)
	}
}

func TestReachForOfficeMayorIsLocalOnly(t *testing.T) {
	r := ReachForOffice("Prefeito")
	if r.National {
		t.Errorf("expected mayor to not reach national scope, got %+v", r)
	}
	if !r.State || !r.City {
		t.Errorf("expected mayor to reach state and city scope, got %+v", r)
	}
}

func TestReachForOfficeUnknownDefaultsToStateAndCity(t *testing.T) {
	r := ReachForOffice("Cargo Desconhecido")
	if r.National || !r.State || !r.City {
		t.Errorf("expected unknown office to default to state+city only, got %+v", r)
	}
}

func TestCityForPoliticianSubstitutesCapital(t *testing.T) {
	p := models.Politician{State: "sp"}
	if got := CityForPolitician(p); got != "São Paulo" {
		t.Errorf("expected capital substitution São Paulo, got %q", got)
	}
}

func TestCityForPoliticianKeepsExplicitCity(t *testing.T) {
	p := models.Politician{City: "Campinas", State: "SP"}
	if got := CityForPolitician(p); got != "Campinas" {
		t.Errorf("expected explicit city to be kept, got %q", got)
	}
}
