package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

type ConsoleSurface struct {
	writer       io.Writer
	statusWriter io.Writer
	noColor      bool
	dirty        bool
}

type ConsoleOption func(*ConsoleSurface)

func NewConsoleSurface(opts ...ConsoleOption) *ConsoleSurface {
	s := &ConsoleSurface{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.statusWriter == nil {
		s.statusWriter = s.writer
	}
	return s
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(s *ConsoleSurface) {
		s.writer = w
	}
}

// WithStatusWriter sends progress and error lines to w instead of the
// result writer, so results can be piped on their own.
func WithStatusWriter(w io.Writer) ConsoleOption {
	return func(s *ConsoleSurface) {
		s.statusWriter = w
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(s *ConsoleSurface) {
		s.noColor = nc
	}
}

func (s *ConsoleSurface) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if s.noColor {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (s *ConsoleSurface) Reset() {
	if !s.dirty {
		return
	}
	faint := s.paint(color.Faint)
	fmt.Fprintf(s.writer, "\n%s\n\n", faint("────────────────────────────────────────"))
	s.dirty = false
}

func (s *ConsoleSurface) Status(text string, isError bool) {
	s.dirty = true
	if isError {
		red := s.paint(color.FgRed, color.Bold)
		fmt.Fprintf(s.statusWriter, "%s\n", red(text))
		return
	}
	cyan := s.paint(color.FgCyan)
	fmt.Fprintf(s.statusWriter, "%s\n", cyan(text))
}

func (s *ConsoleSurface) Result(view View) {
	s.dirty = true
	bold := s.paint(color.Bold)
	status := s.paint(color.FgGreen, color.Bold)
	if view.IsError {
		status = s.paint(color.FgRed, color.Bold)
	}

	fmt.Fprintf(s.writer, "%s\n", status(view.Status))
	fmt.Fprintf(s.writer, "\n%s\n%s\n", bold("Headers"), view.Headers)
	faint := s.paint(color.Faint)
	fmt.Fprintf(s.writer, "\n%s %s\n", bold("Body"), faint("("+humanize.Bytes(uint64(view.Size))+")"))
	if view.Body != "" {
		fmt.Fprintf(s.writer, "%s\n", view.Body)
	}
}
