package request

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Fields holds the five raw form fields exactly as the user last submitted
// them. The JSON names are the keys of the durable field store.
type Fields struct {
	URL      string `json:"url"`
	Method   string `json:"method"`
	Headers  string `json:"headers"`
	Body     string `json:"body"`
	RunInTab bool   `json:"runInTab"`
}

// FieldSaver persists the last-used fields.
type FieldSaver interface {
	Save(ctx context.Context, fields Fields) error
}

// Expander substitutes placeholders in field text.
type Expander interface {
	Expand(ctx context.Context, text string) string
}

type Composer struct {
	saver    FieldSaver
	expander Expander
}

type ComposerOption func(*Composer)

// WithExpander expands the url, header text and body after the fields are
// saved, so the store keeps the text as typed.
func WithExpander(x Expander) ComposerOption {
	return func(c *Composer) {
		c.expander = x
	}
}

func NewComposer(saver FieldSaver, opts ...ComposerOption) *Composer {
	c := &Composer{saver: saver}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose normalizes the input, persists it and validates it. Persistence
// happens first so that in-progress input survives a rejection.
func (c *Composer) Compose(ctx context.Context, in Fields) (*Descriptor, error) {
	fields := Fields{
		URL:      strings.TrimSpace(in.URL),
		Method:   strings.ToUpper(strings.TrimSpace(in.Method)),
		Headers:  strings.TrimSpace(in.Headers),
		Body:     in.Body,
		RunInTab: in.RunInTab,
	}

	if c.saver != nil {
		if err := c.saver.Save(ctx, fields); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to save last-used fields")
		}
	}

	headers, err := ParseHeaders(fields.Headers)
	if err != nil {
		return nil, err
	}

	// Header placeholders are expanded per key and value, after parsing, so
	// a value containing quotes cannot change the JSON structure.
	if c.expander != nil {
		fields.URL = strings.TrimSpace(c.expander.Expand(ctx, fields.URL))
		fields.Body = c.expander.Expand(ctx, fields.Body)

		expanded := make(map[string]string, len(headers))
		for k, v := range headers {
			expanded[c.expander.Expand(ctx, k)] = c.expander.Expand(ctx, v)
		}
		headers = expanded
	}

	return NewDescriptor(fields.URL, fields.Method, headers, fields.Body)
}

// ParseHeaders parses header text as a JSON object. Empty text yields an
// empty map. Non-string values are converted to their text form.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	if raw == "" {
		return headers, nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &HeaderParseError{Detail: err.Error()}
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return nil, &HeaderParseError{Detail: "headers must be an object"}
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			headers[key.String()] = value.String()
		case gjson.Null:
			headers[key.String()] = "null"
		default:
			headers[key.String()] = value.Raw
		}
		return true
	})

	return headers, nil
}
