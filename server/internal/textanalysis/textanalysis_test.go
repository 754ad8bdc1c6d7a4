package textanalysis

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"João da Silva": "joao da silva",
		"  Multiple   Spaces ": "multiple spaces",
		"ÀÉÎÕÜ": "aeiou",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNameVariants(t *testing.T) {
	variants := NameVariants("João da Silva Neto")
	full := Normalize("João da Silva Neto")
	if variants[0] != full {
		t.Fatalf("expected first variant to be the full normalized name, got %q", variants[0])
	}

	found := map[string]bool{}
	for _, v := range variants {
		found[v] = true
	}
	if !found["joao neto"] {
		t.Errorf("expected first+last significant token variant joao neto, got %v", variants)
	}
	if !found["neto"] {
		t.Errorf("expected last significant token variant neto, got %v", variants)
	}
	if !found["joao"] {
		t.Errorf("expected first token variant joao, got %v", variants)
	}
}

func TestNameVariantsSingleToken(t *testing.T) {
	variants := NameVariants("Lula")
	if len(variants) != 1 || variants[0] != "lula" {
		t.Fatalf("single-token name should yield exactly one variant, got %v", variants)
	}
}

func TestAnalyzeMentionsExactTitleHit(t *testing.T) {
	titleHit, bodyCount, sim := AnalyzeMentions("João Silva visita obra", "", "João da Silva Neto")
	if !titleHit {
		t.Error("expected title hit via name variant")
	}
	if bodyCount != 0 {
		t.Errorf("expected zero body hits on empty body, got %d", bodyCount)
	}
	if sim != 100 {
		t.Errorf("expected similarity 100 on exact substring match, got %d", sim)
	}
}

func TestAnalyzeMentionsBodyCount(t *testing.T) {
	_, bodyCount, _ := AnalyzeMentions("Notícia geral", "joao silva esteve presente. joao silva declarou apoio.", "João Silva")
	if bodyCount == 0 {
		t.Error("expected body hits to be counted for repeated variant occurrences")
	}
}

func TestAnalyzeMentionsNoHit(t *testing.T) {
	titleHit, bodyCount, _ := AnalyzeMentions("Previsão do tempo para amanhã", "Sem menção a nenhum político nesta matéria.", "Maria Souza")
	if titleHit {
		t.Error("expected no title hit for unrelated content")
	}
	if bodyCount != 0 {
		t.Error("expected no body hits for unrelated content")
	}
}

func TestIsPoliticalNews(t *testing.T) {
	if !IsPoliticalNews("Prefeito anuncia nova escola", "") {
		t.Error("expected prefeito headline to be flagged political")
	}
	if IsPoliticalNews("Time vence partida de futebol", "Jogo terminou empatado") {
		t.Error("expected unrelated sports headline to not be flagged political")
	}
}
