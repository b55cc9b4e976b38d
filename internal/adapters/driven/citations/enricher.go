package citations

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure Enricher implements CitationEnricher
var _ driven.CitationEnricher = (*Enricher)(nil)

// DefaultUnknownFreshness is assigned when a page carries no date or cannot
// be fetched.
const DefaultUnknownFreshness = 30

// Enricher assigns domain authority from an AuthorityTable and freshness from
// the cited page's metadata. Publication dates are cached per URL.
type Enricher struct {
	table   *AuthorityTable
	dater   *PageDater
	unknown int
	now     func() time.Time

	mu        sync.Mutex
	published map[string]*time.Time
}

// EnricherOption customises an Enricher
type EnricherOption func(*Enricher)

// WithUnknownFreshness sets the freshness used for undated pages
func WithUnknownFreshness(days int) EnricherOption {
	return func(e *Enricher) { e.unknown = days }
}

// WithoutFetching disables page fetches; every citation gets the unknown freshness
func WithoutFetching() EnricherOption {
	return func(e *Enricher) { e.dater = nil }
}

// NewEnricher creates an enricher. A nil dater uses a default PageDater.
func NewEnricher(table *AuthorityTable, dater *PageDater, opts ...EnricherOption) *Enricher {
	if table == nil {
		table = DefaultAuthorityTable()
	}
	if dater == nil {
		dater = NewPageDater(nil)
	}
	e := &Enricher{
		table:     table,
		dater:     dater,
		unknown:   DefaultUnknownFreshness,
		now:       time.Now,
		published: make(map[string]*time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich sets DomainAuthority and Freshness. On fetch failure the citation
// keeps the unknown freshness and the error is returned.
func (e *Enricher) Enrich(ctx context.Context, c *domain.CitingDomain) error {
	c.DomainAuthority = e.table.Lookup(c.Domain)
	c.Freshness = e.unknown

	if e.dater == nil || !isHTTP(c.URL) {
		return nil
	}

	e.mu.Lock()
	cached, hit := e.published[c.URL]
	e.mu.Unlock()
	if hit {
		if cached != nil {
			c.Freshness = DaysSince(*cached, e.now())
		}
		return nil
	}

	t, ok, err := e.dater.Published(ctx, c.URL)
	if err != nil {
		return err
	}

	var entry *time.Time
	if ok {
		entry = &t
		c.Freshness = DaysSince(t, e.now())
	}
	e.mu.Lock()
	e.published[c.URL] = entry
	e.mu.Unlock()
	return nil
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
