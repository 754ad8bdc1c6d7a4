package sourceadapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// GazetteAdapterImpl models the judicial/official-gazette sources that
// require a CAPTCHA-gated human step. BuildQuery never contacts the
// network; it only constructs the URL a human operator must visit.
// ParseResultHTML is the pure function that ingests the HTML the human
// fetched afterward.
type GazetteAdapterImpl struct {
	name    string
	baseURL string
}

// NewGazetteAdapter constructs a stub adapter for one official source
// (e.g. a state court or electoral-court public-records portal).
func NewGazetteAdapter(name, baseURL string) *GazetteAdapterImpl {
	return &GazetteAdapterImpl{name: name, baseURL: baseURL}
}

// BuildQuery returns a {url, instructions} stub rather than performing any
// fetch, since these sources are gated behind a CAPTCHA this system never
// attempts to solve.
func (g *GazetteAdapterImpl) BuildQuery(ctx context.Context, subjectName string) (GazetteStub, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return GazetteStub{}, fmt.Errorf("invalid base url for %s: %w", g.name, err)
	}
	q := u.Query()
	q.Set("nome", subjectName)
	u.RawQuery = q.Encode()

	return GazetteStub{
		URL: u.String(),
		Instructions: fmt.Sprintf(
			"Open %s, solve the CAPTCHA challenge, submit the search for %q, "+
				"then save the resulting page HTML and pass it to ParseResultHTML.",
			g.name, subjectName,
		),
	}, nil
}

// ParseResultHTML is a pure function over an operator-supplied HTML page;
// it performs no I/O and must be covered by fixture-based unit tests. The
// selector below is deliberately generic (table rows with a result class)
// since each official portal's markup differs; concrete deployments are
// expected to specialize this per-source.
func (g *GazetteAdapterImpl) ParseResultHTML(html string) ([]RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing %s result html: %w", g.name, err)
	}

	var out []RawItem
	doc.Find(".resultado-item, tr.resultado").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find(".titulo, td:first-child").First().Text())
		link, _ := s.Find("a").Attr("href")
		if title == "" && link == "" {
			return
		}
		out = append(out, RawItem{
			Title:       title,
			URL:         link,
			SourceName:  g.name,
			PublishedAt: time.Time{},
		})
	})
	return out, nil
}
