package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/normalize"
	"classifieds-scraper/internal/scrapeerr"
)

// Field names used by the default rule set and in skip records.
const (
	FieldName     = "name"
	FieldURL      = "url"
	FieldPrice    = "price"
	FieldLocation = "location"
)

// Query pulls a raw value out of a listing node.
type Query func(node *goquery.Selection) (string, error)

// Rule derives one Listing field: a markup query, a post-processing step and the
// field it fills.
type Rule struct {
	Field  string
	Query  Query
	Post   normalize.Func
	Assign func(l *Listing, value string)
}

// Apply runs the rule against node and stores the result in l.
func (r Rule) Apply(node *goquery.Selection, l *Listing) error {
	raw, err := r.Query(node)
	if err != nil {
		return err
	}
	post := r.Post
	if post == nil {
		post = normalize.Identity
	}
	r.Assign(l, post(raw))
	return nil
}

// DefaultRules is the classifieds row layout: a thumbnail anchor followed by the
// title anchor, a price span and a decorated neighborhood span.
func DefaultRules(sel config.SelectorsConfig, baseURL string) []Rule {
	return []Rule{
		{
			Field:  FieldName,
			Query:  AnchorText(sel.Link, sel.LinkIndex),
			Post:   normalize.TrimSpace,
			Assign: func(l *Listing, v string) { l.Name = v },
		},
		{
			Field:  FieldURL,
			Query:  AnchorAttr(sel.Link, sel.LinkIndex, "href"),
			Post:   normalize.Prefix(baseURL),
			Assign: func(l *Listing, v string) { l.URL = v },
		},
		{
			Field:  FieldPrice,
			Query:  TextOf(sel.Price),
			Assign: func(l *Listing, v string) { l.Price = v },
		},
		{
			Field:  FieldLocation,
			Query:  TextOf(sel.Location),
			Post:   normalize.StripOffsets(sel.LocationTrimPrefix, sel.LocationTrimSuffix),
			Assign: func(l *Listing, v string) { l.Location = v },
		},
	}
}

// TextOf concatenates the text of every descendant matching selector. No match
// yields "".
func TextOf(selector string) Query {
	return func(node *goquery.Selection) (string, error) {
		return node.Find(selector).Text(), nil
	}
}

// AnchorText returns the text of the index-th match of selector.
func AnchorText(selector string, index int) Query {
	return func(node *goquery.Selection) (string, error) {
		a, err := nthMatch(node, selector, index)
		if err != nil {
			return "", err
		}
		return a.Text(), nil
	}
}

// AnchorAttr returns attribute attr of the index-th match of selector. A missing
// anchor or attribute is a missing link.
func AnchorAttr(selector string, index int, attr string) Query {
	return func(node *goquery.Selection) (string, error) {
		a, err := nthMatch(node, selector, index)
		if err != nil {
			return "", err
		}
		v, ok := a.Attr(attr)
		if !ok {
			return "", scrapeerr.New(scrapeerr.KindMissingLink, "link has no "+attr+" attribute", nil)
		}
		return v, nil
	}
}

func nthMatch(node *goquery.Selection, selector string, index int) (*goquery.Selection, error) {
	matches := node.Find(selector)
	if index < 0 || index >= matches.Length() {
		return nil, scrapeerr.NewMissingLink(index, matches.Length())
	}
	return matches.Eq(index), nil
}
