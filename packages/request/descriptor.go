package request

import (
	"fmt"
	neturl "net/url"
	"slices"
)

// Methods is the allow-list of request methods, in display order.
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// bodyMethods are the methods allowed to carry a request body.
var bodyMethods = []string{"POST", "PUT", "PATCH", "DELETE"}

// Descriptor is a validated, immutable request.
type Descriptor struct {
	url     string
	method  string
	headers map[string]string
	body    string
}

// Args is the plain-data form of a Descriptor handed across an execution
// context boundary.
type Args struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// NewDescriptor validates the parts and returns a complete Descriptor.
// The method must already be upper-cased.
func NewDescriptor(url, method string, headers map[string]string, body string) (*Descriptor, error) {
	if url == "" {
		return nil, &ValidationError{Message: "URL is required"}
	}
	if !IsSupportedMethod(method) {
		return nil, &ValidationError{Message: "Unsupported method: " + method}
	}
	if err := ValidateURL(url); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}

	return &Descriptor{
		url:     url,
		method:  method,
		headers: copied,
		body:    body,
	}, nil
}

func (d *Descriptor) URL() string {
	return d.url
}

func (d *Descriptor) Method() string {
	return d.method
}

// Headers returns a copy of the request headers.
func (d *Descriptor) Headers() map[string]string {
	copied := make(map[string]string, len(d.headers))
	for k, v := range d.headers {
		copied[k] = v
	}
	return copied
}

// Body returns the raw body text as entered, whether or not it is sent.
func (d *Descriptor) Body() string {
	return d.body
}

// Payload returns the body to put on the wire. GET never carries one, and
// an empty body is never sent.
func (d *Descriptor) Payload() (string, bool) {
	if d.body == "" || !slices.Contains(bodyMethods, d.method) {
		return "", false
	}
	return d.body, true
}

// Args returns the serializable form of the descriptor.
func (d *Descriptor) Args() Args {
	return Args{
		URL:     d.url,
		Method:  d.method,
		Headers: d.Headers(),
		Body:    d.body,
	}
}

func (d *Descriptor) String() string {
	return d.method + " " + d.url
}

// IsSupportedMethod reports whether method is in the allow-list.
func IsSupportedMethod(method string) bool {
	return slices.Contains(Methods, method)
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
