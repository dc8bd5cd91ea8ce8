package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/observability"
)

// submitFormJS replays a form submission inside the page so the browser performs
// the navigation with its own cookies and encoding.
const submitFormJS = `(action, method, fields) => {
	const form = document.createElement('form');
	form.action = action;
	form.method = method;
	form.style.display = 'none';
	for (const [name, value] of fields) {
		const input = document.createElement('input');
		input.type = 'hidden';
		input.name = name;
		input.value = value;
		form.appendChild(input);
	}
	document.body.appendChild(form);
	HTMLFormElement.prototype.submit.call(form);
}`

// BrowserTransport drives a headless Chrome through go-rod. It keeps one tab open
// for the whole run so the form is submitted from the page it was found on.
type BrowserTransport struct {
	cfg     *config.Config
	logger  *observability.Logger
	browser *rod.Browser
	page    *rod.Page
	mu      sync.Mutex
}

func NewBrowserTransport(cfg *config.Config, logger *observability.Logger) (*BrowserTransport, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	l := launcher.New().Headless(cfg.Rod.Headless)
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserTransport{cfg: cfg, logger: logger, browser: browser}, nil
}

func (t *BrowserTransport) RoundTrip(ctx context.Context, r *Request) (*RawResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	page, err := t.ensurePage()
	if err != nil {
		return nil, err
	}

	status := &documentStatus{frame: page.FrameID}
	events, stopEvents := context.WithCancel(ctx)
	defer stopEvents()
	go page.Context(events).EachEvent(status.observe)()

	p := page.Context(ctx).Timeout(t.cfg.GetRodPageTimeout())
	defer p.CancelTimeout()

	method := strings.ToUpper(r.Method)
	switch {
	case method == "" || (method == http.MethodGet && r.Form == nil):
		if err := p.Navigate(r.URL); err != nil {
			return nil, fmt.Errorf("navigate %s: %w", r.URL, err)
		}
	case method == http.MethodGet:
		target, err := withQuery(r.URL, r.Form)
		if err != nil {
			return nil, err
		}
		if err := p.Navigate(target); err != nil {
			return nil, fmt.Errorf("navigate %s: %w", target, err)
		}
	case method == http.MethodPost:
		wait := p.WaitNavigation(proto.PageLifecycleEventNameLoad)
		if _, err := p.Eval(submitFormJS, r.URL, "post", r.Form.pairs()); err != nil {
			return nil, fmt.Errorf("submit form to %s: %w", r.URL, err)
		}
		wait()
	default:
		return nil, fmt.Errorf("unsupported method: %s", r.Method)
	}

	loaded := page.Context(ctx).Timeout(t.cfg.GetRodWaitLoadTimeout())
	defer loaded.CancelTimeout()
	if err := loaded.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read rendered HTML: %w", err)
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("read page info: %w", err)
	}

	code := status.code()
	t.logger.Debug("Page rendered",
		"method", method,
		"url", info.URL,
		"status", code,
		"bytes", len(html),
	)

	return &RawResponse{
		StatusCode: code,
		URL:        info.URL,
		Body:       []byte(html),
	}, nil
}

// documentStatus keeps the HTTP status of the first main-frame document response
// seen after a navigation starts. Chrome renders error pages without failing the
// navigation, so this is the only place a 403 or 503 shows up.
type documentStatus struct {
	frame  proto.PageFrameID
	status atomic.Int64
}

func (d *documentStatus) observe(e *proto.NetworkResponseReceived) {
	if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
		return
	}
	if d.frame != "" && e.FrameID != d.frame {
		return
	}
	d.status.CompareAndSwap(0, int64(e.Response.Status))
}

// code is 200 when no document response was observed, e.g. a page served
// from the back-forward cache.
func (d *documentStatus) code() int {
	if c := d.status.Load(); c != 0 {
		return int(c)
	}
	return http.StatusOK
}

func (t *BrowserTransport) ensurePage() (*rod.Page, error) {
	if t.page != nil {
		return t.page, nil
	}

	page, err := t.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      t.cfg.HTTP.UserAgent,
		AcceptLanguage: t.cfg.HTTP.AcceptLanguage,
	}); err != nil {
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	t.page = page
	return page, nil
}

func (t *BrowserTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.page != nil {
		if err := t.page.Close(); err != nil {
			t.logger.Warn("Failed to close browser page", "error", err.Error())
		}
		t.page = nil
	}
	return t.browser.Close()
}
