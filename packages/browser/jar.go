package browser

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/db"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Scope names the execution context a cookie store belongs to.
type Scope string

const (
	ScopePage       Scope = "page"
	ScopeBackground Scope = "background"
)

// StoredCookie is a cookie as persisted in the session database. A Domain
// with a leading dot marks a domain cookie; otherwise the cookie is
// host-only.
type StoredCookie struct {
	Scope    Scope
	Domain   string
	Path     string
	Name     string
	Value    string
	Secure   bool
	HTTPOnly bool
	Expires  time.Time
}

// Jar is an http.CookieJar whose cookies survive between invocations.
// Matching is delegated to net/http/cookiejar; every accepted cookie is
// written through to the database.
type Jar struct {
	mu     sync.Mutex
	client *db.Client
	scope  Scope
	jar    *cookiejar.Jar
	logger zerolog.Logger
	now    func() time.Time
}

// NewJar opens the cookie store for scope and loads its unexpired cookies.
func NewJar(ctx context.Context, client *db.Client, scope Scope) (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	j := &Jar{
		client: client,
		scope:  scope,
		jar:    inner,
		logger: zerolog.Ctx(ctx).With().Str("scope", string(scope)).Logger(),
		now:    time.Now,
	}
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) Scope() Scope {
	return j.scope
}

func (j *Jar) Cookies(u *neturl.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *Jar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		if _, ok := cookieDomain(u, c); !ok {
			j.logger.Debug().Str("cookie", c.Name).Str("domain", c.Domain).Str("host", u.Hostname()).Msg("rejected cookie domain")
			continue
		}
		if err := j.persist(context.Background(), u, c); err != nil {
			j.logger.Warn().Err(err).Str("cookie", c.Name).Msg("failed to persist cookie")
		}
	}
}

// Set stores a cookie for rawURL as if the server at that address had set it.
func (j *Jar) Set(ctx context.Context, rawURL, name, value string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid cookie URL: %s", rawURL)
	}
	if name == "" {
		return fmt.Errorf("cookie name is required")
	}

	c := &http.Cookie{Name: name, Value: value, Path: "/"}
	j.jar.SetCookies(u, []*http.Cookie{c})

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.persist(ctx, u, c)
}

// List returns the persisted, unexpired cookies of this scope.
func (j *Jar) List(ctx context.Context) ([]StoredCookie, error) {
	var cookies []StoredCookie
	err := j.client.Query(ctx,
		`SELECT domain, path, name, value, secure, http_only, expires FROM cookies WHERE scope = ? ORDER BY domain, path, name`,
		func(rows *sql.Rows) error {
			var (
				c                StoredCookie
				secure, httpOnly int
				expires          int64
			)
			if err := rows.Scan(&c.Domain, &c.Path, &c.Name, &c.Value, &secure, &httpOnly, &expires); err != nil {
				return err
			}
			c.Scope = j.scope
			c.Secure = secure == 1
			c.HTTPOnly = httpOnly == 1
			if expires > 0 {
				c.Expires = time.Unix(expires, 0)
				if !c.Expires.After(j.now()) {
					return nil
				}
			}
			cookies = append(cookies, c)
			return nil
		}, string(j.scope))
	if err != nil {
		return nil, fmt.Errorf("listing cookies: %w", err)
	}
	return cookies, nil
}

func (j *Jar) load(ctx context.Context) error {
	stored, err := j.List(ctx)
	if err != nil {
		return err
	}

	for _, sc := range stored {
		host := strings.TrimPrefix(sc.Domain, ".")
		scheme := "http"
		if sc.Secure {
			scheme = "https"
		}
		u := &neturl.URL{Scheme: scheme, Host: host, Path: sc.Path}

		c := &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Secure:   sc.Secure,
			HttpOnly: sc.HTTPOnly,
			Expires:  sc.Expires,
		}
		if strings.HasPrefix(sc.Domain, ".") {
			c.Domain = host
		}
		j.jar.SetCookies(u, []*http.Cookie{c})
	}
	return nil
}

func (j *Jar) persist(ctx context.Context, u *neturl.URL, c *http.Cookie) error {
	domain, ok := cookieDomain(u, c)
	if !ok {
		return fmt.Errorf("cookie %s: domain %q not allowed for host %s", c.Name, c.Domain, u.Hostname())
	}
	path := c.Path
	if path == "" || path[0] != '/' {
		path = defaultCookiePath(u.Path)
	}

	now := j.now()
	var expires int64
	switch {
	case c.MaxAge < 0:
		return j.remove(ctx, domain, path, c.Name)
	case c.MaxAge > 0:
		expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case !c.Expires.IsZero():
		if !c.Expires.After(now) {
			return j.remove(ctx, domain, path, c.Name)
		}
		expires = c.Expires.Unix()
	}

	_, err := j.client.Exec(ctx,
		`INSERT INTO cookies (scope, domain, path, name, value, secure, http_only, expires)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(scope, domain, path, name) DO UPDATE SET
		   value = excluded.value, secure = excluded.secure,
		   http_only = excluded.http_only, expires = excluded.expires`,
		string(j.scope), domain, path, c.Name, c.Value, boolInt(c.Secure), boolInt(c.HttpOnly), expires)
	return err
}

func (j *Jar) remove(ctx context.Context, domain, path, name string) error {
	_, err := j.client.Exec(ctx,
		`DELETE FROM cookies WHERE scope = ? AND domain = ? AND path = ? AND name = ?`,
		string(j.scope), domain, path, name)
	return err
}

// cookieDomain returns the stored domain of a cookie set by u: the host for
// host-only cookies, "."+domain for domain cookies. It applies the same
// rules as net/http/cookiejar, so a cookie the jar drops is never stored.
func cookieDomain(u *neturl.URL, c *http.Cookie) (string, bool) {
	host := strings.ToLower(u.Hostname())
	if c.Domain == "" {
		return host, host != ""
	}

	domain := strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	if domain == "" || strings.HasSuffix(domain, ".") {
		return "", false
	}
	if net.ParseIP(host) != nil {
		return host, domain == host
	}

	// A public suffix can only name its own host.
	if ps := publicsuffix.List.PublicSuffix(domain); ps != "" && !hasDotSuffix(domain, ps) {
		return host, host == domain
	}

	if host != domain && !hasDotSuffix(host, domain) {
		return "", false
	}
	return "." + domain, true
}

func hasDotSuffix(s, suffix string) bool {
	return len(s) > len(suffix) && s[len(s)-len(suffix)-1] == '.' && s[len(s)-len(suffix):] == suffix
}

// defaultCookiePath implements the default-path rule of RFC 6265 5.1.4.
func defaultCookiePath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
