package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/observability"
)

// Transport performs a single request. Implementations do not throttle; the
// Fetcher owns rate limiting.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*RawResponse, error)
	Close() error
}

// HTTPTransport is a plain net/http transport with browser-like headers and a
// cookie jar, so a session cookie set by the search page is sent with the form.
type HTTPTransport struct {
	client *http.Client
	cfg    *config.Config
	logger *observability.Logger
}

func NewHTTPTransport(cfg *config.Config, logger *observability.Logger) (*HTTPTransport, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Jar:     jar,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
			MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
			IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
		},
	}

	return &HTTPTransport{client: client, cfg: cfg, logger: logger}, nil
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, r *Request) (*RawResponse, error) {
	req, err := t.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Warn("Failed to close response body", "error", err.Error())
		}
	}()

	reader := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	body, err = toUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	t.logger.Debug("Response received",
		"method", r.Method,
		"url", resp.Request.URL.String(),
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(body),
	)

	return &RawResponse{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, r *Request) (*http.Request, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	var (
		req *http.Request
		err error
	)
	switch method {
	case http.MethodGet:
		target := r.URL
		if r.Form != nil {
			target, err = withQuery(r.URL, r.Form)
			if err != nil {
				return nil, err
			}
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, r.URL, strings.NewReader(r.Form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		return nil, fmt.Errorf("unsupported method: %s", r.Method)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", t.cfg.HTTP.UserAgent)
	req.Header.Set("Accept-Language", t.cfg.HTTP.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return req, nil
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// withQuery replaces the query string of rawURL with form, as browsers do for
// GET form submissions.
func withQuery(rawURL string, form FormData) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	u.RawQuery = form.Encode()
	return u.String(), nil
}

// toUTF8 converts body to UTF-8 based on the Content-Type header and any meta
// charset declaration.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return body, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to convert %s body to UTF-8: %w", name, err)
	}
	return buf.Bytes(), nil
}
