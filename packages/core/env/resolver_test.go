package env

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(env map[string]string) *Resolver {
	r := NewResolver()
	r.lookupEnv = func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	r.funcs = defaultFuncs(func() time.Time { return time.Unix(1700000000, 0) })
	return r
}

func TestResolver_Resolve(t *testing.T) {
	r := newTestResolver(map[string]string{"HOME": "/home/me", "REGION": "eu"})
	r.SetVariables(map[string]string{"host": "api.example.com", "REGION": "us"})

	tests := []struct {
		name       string
		input      string
		want       string
		unresolved []string
	}{
		{"no placeholders", "https://example.com", "https://example.com", nil},
		{"variable", "https://{{host}}/v1", "https://api.example.com/v1", nil},
		{"spaces inside braces", "{{ host }}", "api.example.com", nil},
		{"variables shadow process env", "{{REGION}}", "us", nil},
		{"explicit process env", "{{$REGION}}", "eu", nil},
		{"process env fallback", "{{HOME}}", "/home/me", nil},
		{"timestamp", "{{timestamp()}}", "1700000000", nil},
		{"now", "{{now()}}", "2023-11-14T22:13:20Z", nil},
		{"base64", `{{base64("user:pass")}}`, base64.StdEncoding.EncodeToString([]byte("user:pass")), nil},
		{"unknown variable", "{{missing}} and {{host}}", "{{missing}} and api.example.com", []string{"missing"}},
		{"unknown function", "{{nope()}}", "{{nope()}}", []string{"nope()"}},
		{"unset process env", "{{$UNSET}}", "{{$UNSET}}", []string{"$UNSET"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unresolved := r.Resolve(tt.input)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unresolved, unresolved)
		})
	}
}

func TestResolver_UUID(t *testing.T) {
	r := NewResolver()

	got := r.Expand(context.Background(), "{{uuid()}}")

	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestResolver_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# api credentials\nTOKEN=abc123\nQUOTED=\"with spaces\"\nexport EXPORTED=yes\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := newTestResolver(nil)
	require.NoError(t, r.LoadFile(path))

	got, unresolved := r.Resolve("{{TOKEN}}|{{QUOTED}}|{{EXPORTED}}")
	assert.Equal(t, "abc123|with spaces|yes", got)
	assert.Empty(t, unresolved)
}

func TestLoadDotEnv_Missing(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))

	assert.Error(t, err)
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b", []string{"a", "b"}},
		{`"a,b", 'c'`, []string{"a,b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitArgs(tt.in))
		})
	}
}
