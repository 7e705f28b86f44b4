package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_Payload(t *testing.T) {
	for _, method := range Methods {
		for _, body := range []string{"", "payload", " "} {
			d, err := NewDescriptor("https://example.com", method, nil, body)
			require.NoError(t, err)

			payload, ok := d.Payload()
			wantBody := method != "GET" && body != ""
			assert.Equal(t, wantBody, ok, "method=%s body=%q", method, body)
			if wantBody {
				assert.Equal(t, body, payload)
			} else {
				assert.Empty(t, payload)
			}
		}
	}
}

func TestDescriptor_IsImmutable(t *testing.T) {
	headers := map[string]string{"X-A": "1"}
	d, err := NewDescriptor("https://example.com", "GET", headers, "")
	require.NoError(t, err)

	headers["X-A"] = "changed"
	got := d.Headers()
	got["X-B"] = "added"

	assert.Equal(t, map[string]string{"X-A": "1"}, d.Headers())
}

func TestDescriptor_Args(t *testing.T) {
	d, err := NewDescriptor("https://example.com/api", "POST", map[string]string{"X-A": "1"}, `{"a":1}`)
	require.NoError(t, err)

	assert.Equal(t, Args{
		URL:     "https://example.com/api",
		Method:  "POST",
		Headers: map[string]string{"X-A": "1"},
		Body:    `{"a":1}`,
	}, d.Args())
	assert.Equal(t, "POST https://example.com/api", d.String())
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "upper-case scheme",
			url:     "HTTPS://example.com",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "file scheme",
			url:     "file:///etc/passwd",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
