package dispatch

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one whole dispatch, page resolution included.
const DefaultTimeout = 20 * time.Second

// Mode selects the execution context of one exchange.
type Mode string

const (
	// ModePage runs the exchange inside the active page.
	ModePage Mode = "page"
	// ModeBackground runs the exchange in the privileged context.
	ModeBackground Mode = "background"
)

// ModeFor maps the form's run-in-tab flag to a Mode.
func ModeFor(runInTab bool) Mode {
	if runInTab {
		return ModePage
	}
	return ModeBackground
}

// Page is the active page as reported by the resolver.
type Page struct {
	ID  string
	URL string
}

// PageResolver finds the currently active page. It returns a nil page
// when none is active.
type PageResolver interface {
	ActivePage(ctx context.Context) (*Page, error)
}

// Script is a self-contained function source. It must be a pure function
// of its serialized argument.
type Script struct {
	Name   string
	Source string
}

// InjectionResult is the serialized return value of one injected run.
type InjectionResult struct {
	Result json.RawMessage
}

// Injector runs a script inside a page's own script environment.
type Injector interface {
	Inject(ctx context.Context, pageID string, script Script, args any) ([]InjectionResult, error)
}

// Fetcher performs the exchange in the privileged context.
type Fetcher interface {
	Exchange(ctx context.Context, d *request.Descriptor) *http.Response
}

//go:embed inpage_fetch.js
var inPageFetchSource string

// InPageFetch is the exchange logic shipped into the page. It is called
// with request.Args and returns a plain-data http.Response.
var InPageFetch = Script{Name: "inPageFetch", Source: inPageFetchSource}

var httpAddress = regexp.MustCompile(`(?i)^https?://`)

var restrictedPrefixes = []string{
	"chrome://",
	"edge://",
	"chrome-extension://",
	"about:",
	"file://",
}

// IsScriptablePage reports whether a page at url may host an in-page
// exchange.
func IsScriptablePage(url string) bool {
	if !httpAddress.MatchString(url) {
		return false
	}
	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(url, prefix) {
			return false
		}
	}
	return !strings.Contains(url, "chromewebstore.google.com/")
}

type Executor struct {
	fetcher  Fetcher
	pages    PageResolver
	injector Injector
	timeout  time.Duration
}

type Option func(*Executor)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithPages enables page mode.
func WithPages(resolver PageResolver, injector Injector) Option {
	return func(e *Executor) {
		e.pages = resolver
		e.injector = injector
	}
}

func NewExecutor(fetcher Fetcher, opts ...Option) *Executor {
	e := &Executor{
		fetcher: fetcher,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

type outcome struct {
	resp *http.Response
	err  error
}

// Execute runs exactly one exchange for d in the given mode and returns
// either a Response or an error, never both.
func (e *Executor) Execute(ctx context.Context, d *request.Descriptor, mode Mode) (*http.Response, error) {
	var run func(context.Context, *request.Descriptor) (*http.Response, error)
	switch mode {
	case ModePage:
		run = e.runPage
	case ModeBackground:
		run = e.runBackground
	default:
		return nil, fmt.Errorf("unknown execution context %q", mode)
	}

	log := zerolog.Ctx(ctx).With().Str("mode", string(mode)).Stringer("request", d).Logger()
	log.Debug().Msg("Dispatching request")

	// Buffered so the losing goroutine can always finish and be collected.
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		resp, err := run(ctx, d)
		done <- outcome{resp: resp, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			log.Debug().Err(out.err).Dur("elapsed", time.Since(start)).Msg("Dispatch failed")
			return nil, out.err
		}
		log.Debug().Int("status", out.resp.Status).Dur("elapsed", time.Since(start)).Msg("Dispatch settled")
		return out.resp, nil
	case <-timer.C:
		log.Warn().Dur("timeout", e.timeout).Msg("Dispatch timed out, result will be discarded")
		return nil, &TimeoutError{Mode: mode, Timeout: e.timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Executor) runBackground(ctx context.Context, d *request.Descriptor) (*http.Response, error) {
	return e.fetcher.Exchange(ctx, d), nil
}

func (e *Executor) runPage(ctx context.Context, d *request.Descriptor) (*http.Response, error) {
	if e.pages == nil {
		return nil, &NoTabError{}
	}

	page, err := e.pages.ActivePage(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving active page: %w", err)
	}
	if page == nil || page.ID == "" {
		return nil, &NoTabError{}
	}
	if !IsScriptablePage(page.URL) {
		return nil, &UnsupportedPageError{URL: page.URL}
	}
	if e.injector == nil {
		return nil, &InjectionError{Reason: "No injection facility configured."}
	}

	zerolog.Ctx(ctx).Debug().Str("page_id", page.ID).Str("page_url", page.URL).Msg("Injecting in-page fetch")

	results, err := e.injector.Inject(ctx, page.ID, InPageFetch, d.Args())
	if err != nil {
		return nil, &InjectionError{Reason: "Injection failed", Err: err}
	}
	if len(results) == 0 {
		return nil, &InjectionError{Reason: "Script injected but returned no results."}
	}

	return decodeResult(results[0].Result)
}

// decodeResult keeps only the canonical fields of an in-page result.
func decodeResult(raw json.RawMessage) (*http.Response, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &InjectionError{Reason: "In-page fetch returned no data."}
	}
	if trimmed[0] != '{' {
		return nil, &InjectionError{Reason: "In-page fetch returned malformed data."}
	}

	var resp http.Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, &InjectionError{Reason: "In-page fetch returned malformed data", Err: err}
	}
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.OK = resp.IsSuccess()

	return &resp, nil
}
