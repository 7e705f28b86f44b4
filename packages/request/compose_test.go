package request

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	saved []Fields
	err   error
}

func (s *recordingSaver) Save(_ context.Context, fields Fields) error {
	s.saved = append(s.saved, fields)
	return s.err
}

func TestCompose_NormalizesInput(t *testing.T) {
	saver := &recordingSaver{}
	composer := NewComposer(saver)

	d, err := composer.Compose(context.Background(), Fields{
		URL:    "  https://example.com/api  ",
		Method: " get ",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api", d.URL())
	assert.Equal(t, "GET", d.Method())
	assert.Empty(t, d.Headers())
	assert.NotNil(t, d.Headers())
	_, hasBody := d.Payload()
	assert.False(t, hasBody)
}

func TestCompose_PersistsBeforeValidation(t *testing.T) {
	tests := []struct {
		name  string
		input Fields
	}{
		{
			name:  "bad header json",
			input: Fields{URL: "https://example.com", Method: "GET", Headers: "not json"},
		},
		{
			name:  "missing url",
			input: Fields{Method: "post", Body: "payload", RunInTab: true},
		},
		{
			name:  "unsupported method",
			input: Fields{URL: "https://example.com", Method: "trace"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &recordingSaver{}
			composer := NewComposer(saver)

			_, err := composer.Compose(context.Background(), tt.input)

			require.Error(t, err)
			require.Len(t, saver.saved, 1)
			assert.Equal(t, tt.input.Body, saver.saved[0].Body)
			assert.Equal(t, tt.input.RunInTab, saver.saved[0].RunInTab)
		})
	}
}

func TestCompose_SavesNormalizedFields(t *testing.T) {
	saver := &recordingSaver{}
	composer := NewComposer(saver)

	_, err := composer.Compose(context.Background(), Fields{
		URL:      " https://example.com ",
		Method:   "patch",
		Headers:  `  {"X-A": "1"}  `,
		Body:     "  raw body  ",
		RunInTab: true,
	})

	require.NoError(t, err)
	assert.Equal(t, Fields{
		URL:      "https://example.com",
		Method:   "PATCH",
		Headers:  `{"X-A": "1"}`,
		Body:     "  raw body  ",
		RunInTab: true,
	}, saver.saved[0])
}

func TestCompose_SaveFailureDoesNotBlock(t *testing.T) {
	saver := &recordingSaver{err: errors.New("disk full")}
	composer := NewComposer(saver)

	d, err := composer.Compose(context.Background(), Fields{URL: "https://example.com", Method: "GET"})

	require.NoError(t, err)
	assert.Equal(t, "GET", d.Method())
}

func TestCompose_HeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		headers string
		detail  string
	}{
		{name: "not json", headers: "not json", detail: "invalid character"},
		{name: "array", headers: "[1,2]", detail: "headers must be an object"},
		{name: "number", headers: "42", detail: "headers must be an object"},
		{name: "string", headers: `"x"`, detail: "headers must be an object"},
		{name: "null", headers: "null", detail: "headers must be an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := NewComposer(nil)

			d, err := composer.Compose(context.Background(), Fields{
				URL:     "https://example.com",
				Method:  "GET",
				Headers: tt.headers,
			})

			assert.Nil(t, d)
			var headerErr *HeaderParseError
			require.True(t, errors.As(err, &headerErr))
			assert.Contains(t, headerErr.Detail, tt.detail)
			assert.Contains(t, err.Error(), "Header JSON error: ")
		})
	}
}

func TestCompose_HeaderErrorComesBeforeURLCheck(t *testing.T) {
	composer := NewComposer(nil)

	_, err := composer.Compose(context.Background(), Fields{Method: "BOGUS", Headers: "{"})

	var headerErr *HeaderParseError
	assert.True(t, errors.As(err, &headerErr))
}

func TestCompose_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   Fields
		message string
	}{
		{
			name:    "empty url",
			input:   Fields{URL: "   ", Method: "GET"},
			message: "URL is required",
		},
		{
			name:    "url checked before method",
			input:   Fields{Method: "TRACE"},
			message: "URL is required",
		},
		{
			name:    "unsupported method",
			input:   Fields{URL: "https://example.com", Method: "options"},
			message: "Unsupported method: OPTIONS",
		},
		{
			name:    "empty method",
			input:   Fields{URL: "https://example.com"},
			message: "Unsupported method: ",
		},
		{
			name:    "relative url",
			input:   Fields{URL: "example.com/path", Method: "GET"},
			message: "unsupported URL scheme",
		},
		{
			name:    "ftp url",
			input:   Fields{URL: "ftp://example.com", Method: "GET"},
			message: "unsupported URL scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := NewComposer(nil)

			d, err := composer.Compose(context.Background(), tt.input)

			assert.Nil(t, d)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Contains(t, validationErr.Message, tt.message)
		})
	}
}

func TestParseHeaders(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		headers, err := ParseHeaders("")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{}, headers)
	})

	t.Run("string values", func(t *testing.T) {
		headers, err := ParseHeaders(`{"Accept": "application/json", "X-Token": "abc"}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Accept": "application/json", "X-Token": "abc"}, headers)
	})

	t.Run("non-string values", func(t *testing.T) {
		headers, err := ParseHeaders(`{"X-Count": 3, "X-Flag": true, "X-None": null}`)
		require.NoError(t, err)
		assert.Equal(t, "3", headers["X-Count"])
		assert.Equal(t, "true", headers["X-Flag"])
		assert.Equal(t, "null", headers["X-None"])
	})

	t.Run("later duplicate wins", func(t *testing.T) {
		headers, err := ParseHeaders(`{"X-A": "first", "X-A": "second"}`)
		require.NoError(t, err)
		assert.Equal(t, "second", headers["X-A"])
	})
}

type mapExpander map[string]string

func (m mapExpander) Expand(_ context.Context, text string) string {
	for k, v := range m {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text
}

func TestCompose_ExpandsAfterSaving(t *testing.T) {
	saver := &recordingSaver{}
	composer := NewComposer(saver, WithExpander(mapExpander{"HOST": "api.example.com", "TOKEN": "s3cret"}))

	d, err := composer.Compose(context.Background(), Fields{
		URL:     "https://{{HOST}}/v1",
		Method:  "POST",
		Headers: `{"Authorization":"Bearer {{TOKEN}}"}`,
		Body:    `{"token":"{{TOKEN}}"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", d.URL())
	assert.Equal(t, "Bearer s3cret", d.Headers()["Authorization"])
	assert.Equal(t, `{"token":"s3cret"}`, d.Body())

	require.Len(t, saver.saved, 1)
	assert.Equal(t, "https://{{HOST}}/v1", saver.saved[0].URL)
	assert.Equal(t, `{"Authorization":"Bearer {{TOKEN}}"}`, saver.saved[0].Headers)
}

func TestCompose_HeaderValuesWithQuotesStayValues(t *testing.T) {
	composer := NewComposer(nil, WithExpander(mapExpander{
		"TOKEN": `a","X-Other":"b`,
		"PATH":  `C:\tmp\`,
	}))

	d, err := composer.Compose(context.Background(), Fields{
		URL:     "https://example.com",
		Method:  "GET",
		Headers: `{"Authorization":"{{TOKEN}}","X-Path":"{{PATH}}"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Authorization": `a","X-Other":"b`,
		"X-Path":        `C:\tmp\`,
	}, d.Headers())
}
