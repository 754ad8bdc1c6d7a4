// Package aggregator implements the per-scope orchestrators: fan out to
// adapters, merge, dedupe via dedup, score via relevance (using
// textanalysis and sourceregistry), filter, select/enrich, tag, and hand
// the result to the store gateway in a batch. NewsAggregator covers the
// politician, competitor, city, state and national scopes with one method
// per scope; SocialPostAggregator and SocialMentionAggregator cover social
// posts and social mentions.
package aggregator

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/renatosilveira/politracker/server/internal/dedup"
	"github.com/renatosilveira/politracker/server/internal/models"
	"github.com/renatosilveira/politracker/server/internal/relevance"
	"github.com/renatosilveira/politracker/server/internal/sourceadapter"
	"github.com/renatosilveira/politracker/server/internal/sourceregistry"
	"github.com/renatosilveira/politracker/server/internal/textanalysis"
)

// Reach describes which aggregation regions a politician's office reaches,
// per the §4.6 scope-to-query routing table.
type Reach struct {
	National bool
	State    bool
	City     bool
}

// officeReach implements ESCOPO_POR_FUNCAO: office (lowercased,
// accent-stripped) → reach. Roles not listed default to state+city only,
// the most common case among municipal and state offices.
var officeReach = map[string]Reach{
	"presidente":        {National: true, State: true, City: true},
	"senador":           {National: true, State: true, City: true},
	"senadora":          {National: true, State: true, City: true},
	"deputado federal":  {National: true, State: true, City: true},
	"deputada federal":  {National: true, State: true, City: true},
	"governador":        {National: false, State: true, City: true},
	"governadora":       {National: false, State: true, City: true},
	"vice-governador":   {National: false, State: true, City: true},
	"vice-governadora":  {National: false, State: true, City: true},
	"deputado estadual": {National: false, State: true, City: true},
	"deputada estadual": {National: false, State: true, City: true},
	"prefeito":          {National: false, State: true, City: true},
	"prefeita":          {National: false, State: true, City: true},
	"vereador":          {National: false, State: true, City: true},
	"vereadora":         {National: false, State: true, City: true},
}

// ReachForOffice resolves a politician's role to the regions its news
// aggregation reaches.
func ReachForOffice(role string) Reach {
	key := textanalysis.Normalize(role)
	if r, ok := officeReach[key]; ok {
		return r
	}
	return Reach{National: false, State: true, City: true}
}

// stateCapitals implements CAPITAIS_POR_ESTADO: two-letter state code →
// capital city, used to substitute a city query when a politician has no
// explicit one.
var stateCapitals = map[string]string{
	"AC": "Rio Branco", "AL": "Maceió", "AP": "Macapá", "AM": "Manaus",
	"BA": "Salvador", "CE": "Fortaleza", "DF": "Brasília", "ES": "Vitória",
	"GO": "Goiânia", "MA": "São Luís", "MT": "Cuiabá", "MS": "Campo Grande",
	"MG": "Belo Horizonte", "PA": "Belém", "PB": "João Pessoa", "PR": "Curitiba",
	"PE": "Recife", "PI": "Teresina", "RJ": "Rio de Janeiro", "RN": "Natal",
	"RS": "Porto Alegre", "RO": "Porto Velho", "RR": "Boa Vista", "SC": "Florianópolis",
	"SP": "São Paulo", "SE": "Aracaju", "TO": "Palmas",
}

// CityForPolitician returns p.City, or the capital of p.State when City is
// empty.
func CityForPolitician(p models.Politician) string {
	if p.City != "" {
		return p.City
	}
	return stateCapitals[strings.ToUpper(p.State)]
}

// Config bounds every aggregator run: adapter fan-out concurrency, per-run
// selection limits, and inter-request delays.
type Config struct {
	FanOutConcurrency   int
	RegionSelectLimit   int
	MaxNewsPerPolitician int
	DelayBetweenRequests time.Duration
	DelayPhotoPlatform   time.Duration
}

// DefaultConfig mirrors the documented defaults in §6/§5.
var DefaultConfig = Config{
	FanOutConcurrency:    4,
	RegionSelectLimit:    5,
	MaxNewsPerPolitician: 20,
	DelayBetweenRequests: 2 * time.Second,
	DelayPhotoPlatform:   5 * time.Second,
}

// fanOutNews runs every adapter's Search concurrently (bounded) and merges
// results; an individual adapter failure is logged and treated as an empty
// contribution.
func fanOutNews(ctx context.Context, adapters []sourceadapter.NewsSearch, query string, concurrency int) []dedup.Candidate {
	type result struct {
		items []dedup.Candidate
	}
	results := make(chan result, len(adapters))
	sem := make(chan struct{}, max(concurrency, 1))

	for _, a := range adapters {
		sem <- struct{}{}
		go func(a sourceadapter.NewsSearch) {
			defer func() { <-sem }()
			items, err := a.Search(ctx, query)
			if err != nil {
				log.Printf("aggregator: adapter search for %q failed: %v", query, err)
				results <- result{}
				return
			}
			results <- result{items: items}
		}(a)
	}

	var merged []dedup.Candidate
	for range adapters {
		r := <-results
		merged = append(merged, r.items...)
	}
	return merged
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// scoreForPolitician runs C2+C4 over a candidate with a politician name in
// scope (politician/competitor scopes): computes recency/source/engagement
// as usual but the mention subscore uses the real analyzer output.
func scoreForPolitician(c dedup.Candidate, politicianName string, trustWeight float64, now time.Time) (models.NewsItem, bool, int) {
	titleHit, bodyCount, _ := textanalysis.AnalyzeMentions(c.Title, c.FullText, politicianName)

	recency := relevance.RecencyScore(c.PublishedAt, now)
	mention := relevance.MentionScore(titleHit, bodyCount)
	source := relevance.SourceScore(trustWeight)
	engagement := relevance.EngagementScore(c.Engagement)
	composite := relevance.Composite(relevance.Subscores{
		Recency: recency, Mention: mention, Source: source, Engagement: engagement,
	}, relevance.Default)

	item := models.NewsItem{
		Title:          c.Title,
		Description:    c.Description,
		FullText:       c.FullText,
		SourceURL:      c.URL,
		SourceName:     c.SourceName,
		ImageURL:       c.ImageURL,
		PublishedAt:    c.PublishedAt,
		CollectedAt:    now,
		RecencyScore:   recency,
		MentionScore:   mention,
		SourceScore:    source,
		EngageScore:    engagement,
		CompositeScore: composite,
	}
	return item, titleHit, bodyCount
}

// scoreRegion scores a candidate with no politician name in scope (city/
// state/national): mention subscore is always 0.
func scoreRegion(c dedup.Candidate, trustWeight float64, now time.Time) models.NewsItem {
	recency := relevance.RecencyScore(c.PublishedAt, now)
	source := relevance.SourceScore(trustWeight)
	engagement := relevance.EngagementScore(c.Engagement)
	composite := relevance.Composite(relevance.Subscores{
		Recency: recency, Mention: 0, Source: source, Engagement: engagement,
	}, relevance.Default)

	return models.NewsItem{
		Title:          c.Title,
		Description:    c.Description,
		FullText:       c.FullText,
		SourceURL:      c.URL,
		SourceName:     c.SourceName,
		ImageURL:       c.ImageURL,
		PublishedAt:    c.PublishedAt,
		CollectedAt:    now,
		RecencyScore:   recency,
		MentionScore:   0,
		SourceScore:    source,
		EngageScore:    engagement,
		CompositeScore: composite,
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

func setCanonicalURL(item *models.NewsItem) {
	key, err := dedup.Canonicalize(item.SourceURL)
	if err == nil {
		item.CanonicalURL = key
	}
}

// Deps bundles the collaborators every aggregator needs, avoiding a
// sprawling constructor parameter list per aggregator type.
type Deps struct {
	NewsAdapters    []sourceadapter.NewsSearch
	SocialAdapter   sourceadapter.SocialSearch
	MentionAdapter  SocialMentionSearcher
	Classifier      MentionClassifier
	Registry        *sourceregistry.Registry
	ArticleFetcher  dedup.ArticleFetcher
	ImageUploader   dedup.ImageUploader
	Config          Config
}

// MentionClassifier is the capability-set slice of topicclassifier.Classifier
// the social-mention aggregator needs.
type MentionClassifier interface {
	ClassifyBatch(ctx context.Context, mentions []MentionInput, politicianName string) []MentionClassification
}

// MentionInput and MentionClassification mirror topicclassifier's own
// types; declared locally so this package doesn't import topicclassifier
// just for two struct shapes (main.go adapts the concrete classifier to
// this interface).
type MentionInput struct {
	ID      string
	Content string
}

type MentionClassification struct {
	Subject       models.Subject
	SubjectDetail string
	Sentiment     models.Sentiment
}

// SocialMentionSearcher is the mention-search capability used by the
// social-mention aggregator.
type SocialMentionSearcher interface {
	SearchMentions(ctx context.Context, name string) ([]dedup.Candidate, error)
}
