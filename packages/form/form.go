package form

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Form is a loaded form file.
type Form struct {
	Path     string
	URL      string
	Method   string
	Headers  string
	Body     string
	RunInTab bool
	// EnvFile is the dotenv file named by the form, resolved against the
	// form's directory. Empty when the form names none.
	EnvFile string
}

// Error reports a form that cannot be used. Problems lists every schema
// violation.
type Error struct {
	Path     string
	Problems []string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("form %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("form %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads and validates the form at path.
func Load(path string) (*Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse validates and decodes form data read from path.
func Parse(path string, data []byte) (*Form, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	if err := validate(path, doc); err != nil {
		return nil, err
	}

	f := &Form{
		Path:     path,
		URL:      stringField(doc, "url"),
		Method:   stringField(doc, "method"),
		RunInTab: true,
	}
	if v, ok := doc["runInTab"].(bool); ok {
		f.RunInTab = v
	}

	var err error
	if f.Headers, err = textOrJSON(doc["headers"]); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("headers: %w", err)}
	}
	if f.Body, err = textOrJSON(doc["body"]); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("body: %w", err)}
	}

	if envFile := stringField(doc, "env"); envFile != "" {
		if !filepath.IsAbs(envFile) {
			envFile = filepath.Join(filepath.Dir(path), envFile)
		}
		f.EnvFile = envFile
	}

	return f, nil
}

// Fields returns the form as raw request fields.
func (f *Form) Fields() request.Fields {
	return request.Fields{
		URL:      f.URL,
		Method:   f.Method,
		Headers:  f.Headers,
		Body:     f.Body,
		RunInTab: f.RunInTab,
	}
}

func validate(path string, doc map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &Error{Path: path, Err: fmt.Errorf("schema validation error: %w", err)}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &Error{Path: path, Problems: problems}
}

func stringField(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

// textOrJSON keeps text as written and encodes any other value as JSON.
func textOrJSON(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
