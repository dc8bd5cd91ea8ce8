package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
)

func documentResponse(frame proto.PageFrameID, status int) *proto.NetworkResponseReceived {
	return &proto.NetworkResponseReceived{
		Type:     proto.NetworkResourceTypeDocument,
		FrameID:  frame,
		Response: &proto.NetworkResponse{Status: status},
	}
}

func TestDocumentStatus(t *testing.T) {
	tests := []struct {
		name     string
		events   []*proto.NetworkResponseReceived
		expected int
	}{
		{
			name:     "no response seen",
			expected: http.StatusOK,
		},
		{
			name:     "main document status",
			events:   []*proto.NetworkResponseReceived{documentResponse("main", http.StatusServiceUnavailable)},
			expected: http.StatusServiceUnavailable,
		},
		{
			name: "first document wins",
			events: []*proto.NetworkResponseReceived{
				documentResponse("main", http.StatusForbidden),
				documentResponse("main", http.StatusOK),
			},
			expected: http.StatusForbidden,
		},
		{
			name: "iframes and subresources are ignored",
			events: []*proto.NetworkResponseReceived{
				documentResponse("ad-frame", http.StatusNotFound),
				{Type: proto.NetworkResourceTypeImage, FrameID: "main", Response: &proto.NetworkResponse{Status: http.StatusNotFound}},
				{Type: proto.NetworkResourceTypeDocument, FrameID: "main"},
				documentResponse("main", http.StatusCreated),
			},
			expected: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &documentStatus{frame: "main"}
			for _, e := range tt.events {
				d.observe(e)
			}
			assert.Equal(t, tt.expected, d.code())
		})
	}
}

type browserHit struct {
	method, path, query, body, userAgent string
}

// Needs a local Chrome; runs when SCRAPER_TEST_ROD=1.
func TestBrowserTransportIntegration(t *testing.T) {
	if os.Getenv("SCRAPER_TEST_ROD") != "1" {
		t.Skip("SCRAPER_TEST_ROD not set")
	}

	var (
		mu   sync.Mutex
		hits []browserHit
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		hits = append(hits, browserHit{r.Method, r.URL.Path, r.URL.RawQuery, string(body), r.UserAgent()})
		mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/blocked":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("<html><body><h1>down for maintenance</h1></body></html>"))
		case "/results":
			_, _ = w.Write([]byte("<html><body><p class=\"row\">" + r.Method + "</p></body></html>"))
		default:
			_, _ = w.Write([]byte("<html><body><form id=\"searchform\"></form></body></html>"))
		}
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Rod.Enabled = true
	cfg.HTTP.UserAgent = "classifieds-scraper-test"

	transport, err := NewBrowserTransport(cfg, observability.Nop())
	require.NoError(t, err)
	f := New(transport, 0, observability.Nop())
	defer f.Close()

	ctx := context.Background()
	form := FormData{{Name: "query", Value: "Garden"}, {Name: "minAsk", Value: "250"}}

	page, err := f.Fetch(ctx, server.URL+"/search")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Doc.Find("form#searchform").Length())

	page, err = f.Do(ctx, &Request{Method: http.MethodGet, URL: server.URL + "/results?old=1", Form: form})
	require.NoError(t, err)
	assert.Equal(t, "GET", page.Doc.Find("p.row").Text())
	assert.Equal(t, server.URL+"/results?query=Garden&minAsk=250", page.URL.String())

	page, err = f.Do(ctx, &Request{Method: http.MethodPost, URL: server.URL + "/results", Form: form})
	require.NoError(t, err)
	assert.Equal(t, "POST", page.Doc.Find("p.row").Text())
	assert.Equal(t, server.URL+"/results", page.URL.String())

	_, err = f.Fetch(ctx, server.URL+"/blocked")
	require.Error(t, err)
	assert.ErrorIs(t, err, scrapeerr.ErrNetwork)
	assert.Contains(t, err.Error(), "503")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 4)
	assert.Equal(t, "classifieds-scraper-test", hits[0].userAgent)
	assert.Equal(t, "query=Garden&minAsk=250", hits[1].query)
	assert.Equal(t, http.MethodPost, hits[2].method)
	assert.Equal(t, "query=Garden&minAsk=250", hits[2].body)
	assert.Equal(t, "/blocked", hits[3].path)
}
