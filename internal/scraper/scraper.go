package scraper

import (
	"errors"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/fetcher"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
)

// Extractor turns every listing node of a results page into a Listing.
type Extractor struct {
	rowSelector string
	rules       []Rule
	logger      *observability.Logger
	progress    io.Writer
}

// NewExtractor builds an extractor with the default classifieds rules.
func NewExtractor(selectors config.SelectorsConfig, baseURL string, logger *observability.Logger) *Extractor {
	return NewExtractorWithRules(selectors.Row, DefaultRules(selectors, baseURL), logger)
}

func NewExtractorWithRules(rowSelector string, rules []Rule, logger *observability.Logger) *Extractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Extractor{
		rowSelector: rowSelector,
		rules:       rules,
		logger:      logger.With("component", "extractor"),
	}
}

// SetProgress makes the extractor print each listing's location to w.
func (e *Extractor) SetProgress(w io.Writer) {
	e.progress = w
}

// ExtractAll derives one Listing per row node, in document order. Nodes a rule
// fails on are skipped and reported in Result.Skipped. The page is not modified.
func (e *Extractor) ExtractAll(page *fetcher.Page) Result {
	if page == nil || page.Doc == nil {
		return Result{Listings: []Listing{}}
	}
	return e.ExtractDocument(page.Doc)
}

// ExtractDocument is ExtractAll for a bare document.
func (e *Extractor) ExtractDocument(doc *goquery.Document) Result {
	nodes := doc.Find(e.rowSelector)
	result := Result{
		Listings: make([]Listing, 0, nodes.Length()),
		Nodes:    nodes.Length(),
	}

	e.logger.Debug("Listing nodes found", "selector", e.rowSelector, "count", result.Nodes)

	nodes.Each(func(i int, node *goquery.Selection) {
		listing, field, err := e.Derive(node)
		if err != nil {
			e.logger.Warn("Skipping listing node",
				"index", i,
				"field", field,
				"error", err.Error(),
			)
			result.Skipped = append(result.Skipped, SkippedNode{Index: i, Field: field, Err: err})
			return
		}

		e.logger.Info("Listing extracted",
			"index", i,
			"name", listing.Name,
			"url", listing.URL,
			"price", listing.Price,
			"location", listing.Location,
		)
		if e.progress != nil {
			fmt.Fprintln(e.progress, listing.Location)
		}
		result.Listings = append(result.Listings, listing)
	})

	return result
}

// Derive applies every rule to one node. On failure it returns the name of the
// field whose rule failed.
func (e *Extractor) Derive(node *goquery.Selection) (Listing, string, error) {
	var listing Listing
	for _, rule := range e.rules {
		if err := rule.Apply(node, &listing); err != nil {
			return Listing{}, rule.Field, err
		}
	}
	return listing, "", nil
}

// IsMissingLink reports whether a skip was caused by an absent title link.
func (s SkippedNode) IsMissingLink() bool {
	return errors.Is(s.Err, scrapeerr.ErrMissingLink)
}
