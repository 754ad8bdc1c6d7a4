package textanalysis

import "strings"

// politicalKeywords back IsPoliticalNews, a pre-filter that the analyzer the
// original pipeline used to gate noisy general-news feeds before scoring.
// Not required by any invariant; it only trims obviously off-topic
// candidates earlier in the pipeline.
var politicalKeywords = []string{
	"prefeito", "prefeita", "governador", "governadora", "senador", "senadora",
	"deputado", "deputada", "vereador", "vereadora", "camara", "câmara",
	"assembleia", "assembleia legislativa", "congresso", "eleicao", "eleição",
	"politica", "política", "gabinete", "secretaria municipal",
}

// IsPoliticalNews reports whether normalized title/description text
// contains at least one recognizable political keyword.
func IsPoliticalNews(title, description string) bool {
	combined := Normalize(title + " " + description)
	for _, kw := range politicalKeywords {
		if strings.Contains(combined, Normalize(kw)) {
			return true
		}
	}
	return false
}

// ExtractCityFromContent does a best-effort scan for "em <City>" and
// "de <City>" patterns, used to backfill a city tag on national-wire
// articles that mention a specific municipality but weren't collected
// under a city-scoped run.
func ExtractCityFromContent(content string, knownCities []string) string {
	normContent := Normalize(content)
	for _, city := range knownCities {
		if city == "" {
			continue
		}
		normCity := Normalize(city)
		if strings.Contains(normContent, " em "+normCity) || strings.Contains(normContent, " de "+normCity) {
			return city
		}
	}
	return ""
}
