package browser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	tfhttp "github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	tabs     *TabStore
	jar      *Jar
	injector *Injector
}

func newSession(t *testing.T) *session {
	t.Helper()
	client, _ := newDB(t)
	tabs := NewTabStore(client)
	jar, err := NewJar(context.Background(), client, ScopePage)
	require.NoError(t, err)
	return &session{tabs: tabs, jar: jar, injector: NewInjector(tabs, jar)}
}

func echoServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie := ""
		if c, err := r.Cookie("sid"); err == nil {
			cookie = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"method": r.Method,
			"cookie": cookie,
			"origin": r.Header.Get("Origin"),
			"custom": r.Header.Get("X-Custom"),
		})
	}))
}

func TestInjector_InPageFetchCarriesSession(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	server := echoServer()
	defer server.Close()

	tab, err := s.tabs.Open(ctx, server.URL+"/app")
	require.NoError(t, err)
	require.NoError(t, s.jar.Set(ctx, server.URL, "sid", "page-session"))

	d, err := request.NewDescriptor(server.URL+"/api", "POST", map[string]string{"X-Custom": "yes"}, `{"a":1}`)
	require.NoError(t, err)

	results, err := s.injector.Inject(ctx, tab.ID, dispatch.InPageFetch, d.Args())
	require.NoError(t, err)
	require.Len(t, results, 1)

	var resp tfhttp.Response
	require.NoError(t, json.Unmarshal(results[0].Result, &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "OK", resp.StatusText)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
	assert.Equal(t, "a, b", resp.Headers["x-multi"])

	var echoed map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &echoed))
	assert.Equal(t, "POST", echoed["method"])
	assert.Equal(t, "page-session", echoed["cookie"])
	assert.Equal(t, server.URL, echoed["origin"])
	assert.Equal(t, "yes", echoed["custom"])
}

func TestInjector_TransportFailureBecomesFetchError(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL + "/gone"
	server.Close()

	tab, err := s.tabs.Open(ctx, "https://example.com/")
	require.NoError(t, err)

	d, err := request.NewDescriptor(deadURL, "GET", nil, "")
	require.NoError(t, err)

	results, err := s.injector.Inject(ctx, tab.ID, dispatch.InPageFetch, d.Args())
	require.NoError(t, err)
	require.Len(t, results, 1)

	var resp tfhttp.Response
	require.NoError(t, json.Unmarshal(results[0].Result, &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, 0, resp.Status)
	assert.Equal(t, tfhttp.FetchErrorStatusText, resp.StatusText)
	assert.Contains(t, resp.Body, "connection refused")
	assert.Empty(t, resp.Headers)
}

func TestInjector_UnknownTab(t *testing.T) {
	s := newSession(t)

	_, err := s.injector.Inject(context.Background(), "nope", dispatch.InPageFetch, nil)

	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestInjector_ScriptResults(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	tab, err := s.tabs.Open(ctx, "https://example.com/")
	require.NoError(t, err)

	tests := []struct {
		name    string
		source  string
		want    string
		wantErr string
	}{
		{name: "object", source: `(function (args) { return {echo: args.x}; })`, want: `{"echo":"y"}`},
		{name: "undefined", source: `(function () {})`},
		{name: "null", source: `(function () { return null; })`},
		{name: "number", source: `(function () { return 42; })`, want: `42`},
		{name: "not a function", source: `1 + 1`, wantErr: "does not evaluate to a function"},
		{name: "throws", source: `(function () { throw new Error("boom"); })`, wantErr: "boom"},
		{name: "syntax error", source: `(function (`, wantErr: "script"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := dispatch.Script{Name: tt.name + ".js", Source: tt.source}
			results, err := s.injector.Inject(ctx, tab.ID, script, map[string]string{"x": "y"})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, results, 1)
			if tt.want == "" {
				assert.Empty(t, results[0].Result)
				return
			}
			assert.JSONEq(t, tt.want, string(results[0].Result))
		})
	}
}

func TestInjector_CancelInterruptsScript(t *testing.T) {
	s := newSession(t)
	tab, err := s.tabs.Open(context.Background(), "https://example.com/")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	script := dispatch.Script{Name: "spin.js", Source: `(function () { for (;;) {} })`}
	_, err = s.injector.Inject(ctx, tab.ID, script, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_PageModeThroughSession(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	server := echoServer()
	defer server.Close()

	executor := dispatch.NewExecutor(tfhttp.NewClient(), dispatch.WithPages(s.tabs, s.injector))
	d, err := request.NewDescriptor(server.URL+"/api", "GET", nil, "")
	require.NoError(t, err)

	_, err = executor.Execute(ctx, d, dispatch.ModePage)
	var noTab *dispatch.NoTabError
	require.ErrorAs(t, err, &noTab)

	_, err = s.tabs.Open(ctx, "chrome://settings")
	require.NoError(t, err)
	_, err = executor.Execute(ctx, d, dispatch.ModePage)
	var unsupported *dispatch.UnsupportedPageError
	require.ErrorAs(t, err, &unsupported)

	_, err = s.tabs.Open(ctx, server.URL+"/")
	require.NoError(t, err)
	require.NoError(t, s.jar.Set(ctx, server.URL, "sid", "from-page"))

	resp, err := executor.Execute(ctx, d, dispatch.ModePage)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.True(t, strings.Contains(resp.Body, `"cookie":"from-page"`))

	background, err := executor.Execute(ctx, d, dispatch.ModeBackground)
	require.NoError(t, err)
	assert.True(t, strings.Contains(background.Body, `"cookie":""`))
}
