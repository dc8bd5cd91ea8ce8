package form

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"classifieds-scraper/internal/fetcher"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
)

// SearchParameters are the values typed into the search form. MinPrice <= MaxPrice
// is the caller's responsibility.
type SearchParameters struct {
	Query    string
	MinPrice float64
	MaxPrice float64
}

// FieldNames maps SearchParameters onto the form's control names.
type FieldNames struct {
	Query    string
	MinPrice string
	MaxPrice string
}

// Doer sends a request and returns the parsed page. *fetcher.Fetcher satisfies it.
type Doer interface {
	Do(ctx context.Context, req *fetcher.Request) (*fetcher.Page, error)
}

type Submitter struct {
	doer   Doer
	fields FieldNames
	logger *observability.Logger
}

func NewSubmitter(doer Doer, fields FieldNames, logger *observability.Logger) *Submitter {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Submitter{doer: doer, fields: fields, logger: logger.With("component", "form")}
}

// Submit fills the form with id formID on page and submits it through the same
// transport (and rate limit) as every other request.
func (s *Submitter) Submit(ctx context.Context, page *fetcher.Page, formID string, params SearchParameters) (*fetcher.Page, error) {
	req, err := s.Build(page, formID, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Submitting form",
		"form_id", formID,
		"method", req.Method,
		"action", req.URL,
		"query", params.Query,
		"min_price", params.MinPrice,
		"max_price", params.MaxPrice,
	)

	return s.doer.Do(ctx, req)
}

// Build renders the filled form as a request without sending it.
func (s *Submitter) Build(page *fetcher.Page, formID string, params SearchParameters) (*fetcher.Request, error) {
	sel := page.Doc.Find("form").FilterFunction(func(_ int, f *goquery.Selection) bool {
		id, _ := f.Attr("id")
		return id == formID
	}).First()
	if sel.Length() == 0 {
		return nil, scrapeerr.NewFormNotFound(formID)
	}

	f := Parse(sel)

	values := []struct {
		name  string
		value string
	}{
		{s.fields.Query, params.Query},
		{s.fields.MinPrice, formatNumber(params.MinPrice)},
		{s.fields.MaxPrice, formatNumber(params.MaxPrice)},
	}
	for _, v := range values {
		if err := f.Set(v.name, v.value); err != nil {
			return nil, scrapeerr.NewFieldNotFound(formID, v.name)
		}
	}

	action, err := f.ResolveAction(page.URL)
	if err != nil {
		return nil, fmt.Errorf("form %q: %w", formID, err)
	}

	return &fetcher.Request{
		Method: f.Method,
		URL:    action,
		Form:   f.Values(),
	}, nil
}

// Form is the submittable state of an HTML form.
type Form struct {
	Action string
	Method string
	fields []field
}

type field struct {
	name  string
	value string
	// declared controls that are not successful (unchecked boxes) are settable but
	// not sent until set
	active bool
}

// Parse collects the form's controls the way a browser would build the form data
// set: disabled controls and buttons are skipped, unchecked boxes are known but
// inactive, a select contributes its selected (or first) option.
func Parse(sel *goquery.Selection) *Form {
	f := &Form{
		Action: strings.TrimSpace(sel.AttrOr("action", "")),
		Method: strings.ToUpper(strings.TrimSpace(sel.AttrOr("method", http.MethodGet))),
	}
	if f.Method != http.MethodPost {
		f.Method = http.MethodGet
	}

	sel.Find("input, select, textarea").Each(func(_ int, c *goquery.Selection) {
		name, ok := c.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := c.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(c) {
		case "textarea":
			f.fields = append(f.fields, field{name: name, value: c.Text(), active: true})
		case "select":
			opt := c.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = c.Find("option").First()
			}
			if opt.Length() == 0 {
				f.fields = append(f.fields, field{name: name})
				return
			}
			f.fields = append(f.fields, field{name: name, value: optionValue(opt), active: true})
		default:
			typ := strings.ToLower(c.AttrOr("type", "text"))
			switch typ {
			case "submit", "button", "image", "reset", "file":
				return
			case "checkbox", "radio":
				_, checked := c.Attr("checked")
				f.fields = append(f.fields, field{name: name, value: c.AttrOr("value", "on"), active: checked})
			default:
				f.fields = append(f.fields, field{name: name, value: c.AttrOr("value", ""), active: true})
			}
		}
	})

	return f
}

// Set assigns value to the first control named name. It fails if the form has no
// such control.
func (f *Form) Set(name, value string) error {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].value = value
			f.fields[i].active = true
			return nil
		}
	}
	return fmt.Errorf("no field %q", name)
}

// Values returns the form data set in document order.
func (f *Form) Values() fetcher.FormData {
	values := fetcher.FormData{}
	for _, fd := range f.fields {
		if fd.active {
			values = append(values, fetcher.FormField{Name: fd.name, Value: fd.value})
		}
	}
	return values
}

// ResolveAction resolves the action attribute against the page URL. An empty
// action submits to the page itself.
func (f *Form) ResolveAction(base *url.URL) (string, error) {
	if f.Action == "" {
		if base == nil {
			return "", fmt.Errorf("form has no action and page URL is unknown")
		}
		return base.String(), nil
	}

	action, err := url.Parse(f.Action)
	if err != nil {
		return "", fmt.Errorf("invalid form action %q: %w", f.Action, err)
	}
	if base == nil {
		return action.String(), nil
	}
	return base.ResolveReference(action).String(), nil
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

// formatNumber renders 250 as "250" and 99.5 as "99.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
