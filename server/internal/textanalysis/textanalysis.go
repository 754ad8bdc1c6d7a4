// Package textanalysis implements the pure, stateless text operations the
// aggregators use to detect and score politician mentions: Unicode
// normalization, name-variant expansion, and fuzzy mention analysis.
//
// Nothing here touches the network or the store; every function is safe to
// call concurrently from many aggregator workers.
package textanalysis

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TitleHitThreshold is the minimum fuzzy partial-ratio score (0-100) at
// which a title is considered a mention hit in the absence of an exact
// substring match.
const TitleHitThreshold = 85

// connectives are dropped when building "first + last significant token"
// name variants, matching how Portuguese personal names compose.
var connectives = map[string]bool{
	"da": true, "de": true, "do": true, "dos": true, "das": true, "e": true,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases, strips diacritics, and collapses whitespace.
func Normalize(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	lowered := strings.ToLower(stripped)
	collapsed := whitespaceRe.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(collapsed)
}

// NameVariants returns the set of normalized strings used to detect
// mentions of fullName: the full name; "first + last significant token"
// (connectives dropped); the last significant token alone; and the first
// token alone. Order is stable but callers must treat the result as a set.
func NameVariants(fullName string) []string {
	normalized := Normalize(fullName)
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return nil
	}

	seen := map[string]bool{normalized: true}
	variants := []string{normalized}

	significant := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !connectives[tok] {
			significant = append(significant, tok)
		}
	}

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	if len(significant) >= 2 {
		add(significant[0] + " " + significant[len(significant)-1])
		add(significant[len(significant)-1])
	}
	add(tokens[0])

	return variants
}

// AnalyzeMentions reports whether any name variant appears in title or
// body: titleHit is true on an exact substring match, or (absent one) a
// fuzzy partial-ratio match against the title scoring at least
// TitleHitThreshold. bodyCount tallies exact substring occurrences across
// all variants in body. bestSimilarity is the highest similarity score
// (0-100) observed for the title across all variants.
func AnalyzeMentions(title, body, name string) (titleHit bool, bodyCount int, bestSimilarity int) {
	normTitle := Normalize(title)
	normBody := Normalize(body)
	variants := NameVariants(name)

	for _, v := range variants {
		if v == "" {
			continue
		}
		if strings.Contains(normTitle, v) {
			titleHit = true
			bestSimilarity = 100
		} else if !titleHit {
			score := partialRatio(normTitle, v)
			if score > bestSimilarity {
				bestSimilarity = score
			}
			if score >= TitleHitThreshold {
				titleHit = true
			}
		}
		bodyCount += strings.Count(normBody, v)
	}

	return titleHit, bodyCount, bestSimilarity
}

// partialRatio approximates fuzzywuzzy's partial_ratio: the best
// Jaro-Winkler-style similarity of needle against any equal-length window
// of haystack, expressed as an integer percentage.
func partialRatio(haystack, needle string) int {
	if needle == "" || haystack == "" {
		return 0
	}
	if len(needle) >= len(haystack) {
		return int(smetrics.JaroWinkler(haystack, needle, 0.7, 4) * 100)
	}

	best := 0.0
	step := 1
	for i := 0; i+len(needle) <= len(haystack); i += step {
		window := haystack[i : i+len(needle)]
		score := smetrics.JaroWinkler(window, needle, 0.7, 4)
		if score > best {
			best = score
		}
	}
	return int(best * 100)
}
