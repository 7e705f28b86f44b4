package http

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

type Client struct {
	httpClient     *http.Client
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	userAgent      string
	defaultHeaders map[string]string
	jar            http.CookieJar
	origin         *neturl.URL
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		CheckRedirect: redirectPolicy,
		Jar:           c.jar,
	}

	return c
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithUserAgent sets the User-Agent sent when the request has none
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithJar sets the cookie jar that supplies and stores ambient credentials
func WithJar(jar http.CookieJar) ClientOption {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithOrigin makes requests look like they were issued by a script running
// on pageURL. An unparseable address is ignored.
func WithOrigin(pageURL string) ClientOption {
	return func(c *Client) {
		u, err := neturl.Parse(pageURL)
		if err == nil && u.Scheme != "" && u.Host != "" {
			c.origin = u
		}
	}
}

// Send performs the exchange and reads the whole response body as text.
// Any transport-level failure is returned as an error.
func (c *Client) Send(ctx context.Context, d *request.Descriptor) (*Response, error) {
	var body io.Reader
	if payload, ok := d.Payload(); ok {
		body = strings.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, d.Method(), d.URL(), body)
	if err != nil {
		return nil, err
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}

	for k, v := range d.Headers() {
		httpReq.Header.Set(k, v)
	}

	// Origin and Referer are forbidden headers in a page: the page wins.
	c.stampOrigin(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Status:     httpResp.StatusCode,
		StatusText: reasonPhrase(httpResp),
		Headers:    FlattenHeaders(httpResp.Header),
		Body:       string(respBody),
	}
	resp.OK = resp.IsSuccess()

	return resp, nil
}

// Exchange is Send with transport failures folded into the returned
// Response. It never fails.
func (c *Client) Exchange(ctx context.Context, d *request.Descriptor) *Response {
	resp, err := c.Send(ctx, d)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("request", d.String()).Msg("Exchange failed before a response arrived")
		return TransportFailure(err)
	}
	return resp
}

func (c *Client) stampOrigin(req *http.Request) {
	if c.origin == nil {
		return
	}

	req.Header.Set("Referer", c.origin.String())

	sameOrigin := strings.EqualFold(req.URL.Scheme, c.origin.Scheme) &&
		strings.EqualFold(req.URL.Host, c.origin.Host)
	if !sameOrigin || (req.Method != http.MethodGet && req.Method != http.MethodHead) {
		req.Header.Set("Origin", c.origin.Scheme+"://"+c.origin.Host)
	}
}

// FlattenHeaders lower-cases header names and joins repeated values with
// ", ", the way a fetch Headers object reports them.
func FlattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, values := range h {
		key := strings.ToLower(k)
		joined := strings.Join(values, ", ")
		if existing, ok := headers[key]; ok {
			joined = existing + ", " + joined
		}
		headers[key] = joined
	}
	return headers
}

// reasonPhrase strips the status code from "200 OK".
func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
