package sourceadapter

import (
	"context"
	"testing"
)

func TestGazetteAdapterBuildQueryNeverFetches(t *testing.T) {
	ga := NewGazetteAdapter("tjsp-esaj", "https://esaj.tjsp.jus.br/cpopg/search")
	stub, err := ga.BuildQuery(context.Background(), "Maria Souza")
	if err != nil {
		t.Fatal(err)
	}
	if stub.URL == "" || stub.Instructions == "" {
		t.Fatalf("expected a populated stub, got %+v", stub)
	}
}

func TestGazetteAdapterParseResultHTML(t *testing.T) {
	ga := NewGazetteAdapter("tjsp-esaj", "https://esaj.tjsp.jus.br/cpopg/search")
	html := `
		<table>
			<tr class="resultado">
				<td class="titulo">Processo nº 123 - Maria Souza</td>
				<td><a href="https://esaj.tjsp.jus.br/processo/123">ver</a></td>
			</tr>
		</table>
	`
	items, err := ga.ParseResultHTML(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 parsed record, got %d", len(items))
	}
	if items[0].URL != "https://esaj.tjsp.jus.br/processo/123" {
		t.Errorf("unexpected link %q", items[0].URL)
	}
}

func TestGazetteAdapterParseResultHTMLEmpty(t *testing.T) {
	ga := NewGazetteAdapter("tjsp-esaj", "https://esaj.tjsp.jus.br/cpopg/search")
	items, err := ga.ParseResultHTML("<html><body>no results</body></html>")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("expected no records for an empty result page, got %d", len(items))
	}
}
