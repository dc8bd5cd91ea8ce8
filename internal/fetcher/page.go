package fetcher

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched and parsed HTML response. It is only ever queried.
type Page struct {
	URL        *url.URL
	StatusCode int
	Body       []byte
	Doc        *goquery.Document
}

// NewPage parses body as HTML. pageURL is the final URL after redirects and is
// used to resolve relative form actions.
func NewPage(pageURL string, statusCode int, body []byte) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Url = u

	return &Page{
		URL:        u,
		StatusCode: statusCode,
		Body:       body,
		Doc:        doc,
	}, nil
}

// Request is an outbound request issued through a Transport. Form is sent as the
// query string for GET and as an urlencoded body for POST.
type Request struct {
	Method string
	URL    string
	Form   FormData
}

// FormField is one name/value pair of a form data set.
type FormField struct {
	Name  string
	Value string
}

// FormData is a form data set in document order. Unlike url.Values it encodes
// pairs in the order they were added.
type FormData []FormField

// Encode renders d as application/x-www-form-urlencoded, keeping order.
func (d FormData) Encode() string {
	var b strings.Builder
	for i, f := range d {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// pairs is the [name, value] list handed to in-page scripts.
func (d FormData) pairs() [][2]string {
	out := make([][2]string, 0, len(d))
	for _, f := range d {
		out = append(out, [2]string{f.Name, f.Value})
	}
	return out
}

// RawResponse is what a Transport hands back before HTML parsing.
type RawResponse struct {
	StatusCode int
	URL        string
	Headers    http.Header
	Body       []byte
}
