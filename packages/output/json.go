package output

import (
	"encoding/json"
	"io"
	"os"
	"strings"
)

// JSONDocument is the document written for one submission.
type JSONDocument struct {
	Status  string          `json:"status,omitempty"`
	Error   bool            `json:"error"`
	Message string          `json:"message,omitempty"`
	Headers json.RawMessage `json:"headers,omitempty"`
	Body    *string         `json:"body,omitempty"`
}

// JSONSurface writes one JSON document per submission. Progress messages
// are not written.
type JSONSurface struct {
	writer io.Writer
}

type JSONOption func(*JSONSurface)

func NewJSONSurface(opts ...JSONOption) *JSONSurface {
	s := &JSONSurface{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(s *JSONSurface) {
		s.writer = w
	}
}

func (s *JSONSurface) Reset() {}

func (s *JSONSurface) Status(text string, isError bool) {
	if !isError {
		return
	}
	s.write(JSONDocument{Error: true, Message: text})
}

func (s *JSONSurface) Result(view View) {
	doc := JSONDocument{
		Status: view.Status,
		Error:  view.IsError,
		Body:   &view.Body,
	}
	if headers := strings.TrimSpace(view.Headers); json.Valid([]byte(headers)) {
		doc.Headers = json.RawMessage(headers)
	}
	s.write(doc)
}

func (s *JSONSurface) write(doc JSONDocument) {
	encoder := json.NewEncoder(s.writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(doc)
}
