package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/tabfetch/packages/core/config"
	"github.com/abdul-hamid-achik/tabfetch/packages/curl"
	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	"github.com/abdul-hamid-achik/tabfetch/packages/form"
	"github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/spf13/cobra"
)

// Exit codes for tabfetch CLI
const (
	// ExitSuccess indicates a 2xx response
	ExitSuccess = 0

	// ExitRequestFailure indicates a non-2xx response or a transport failure
	ExitRequestFailure = 1

	// ExitInputError indicates header text, URL, method, form file or curl command problems
	ExitInputError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitPageError indicates no active tab, an unsupported page or a failed injection
	ExitPageError = 4

	// ExitTimeout indicates the exchange deadline elapsed
	ExitTimeout = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a cobra argument validator so its errors count as usage
// errors.
func usageArgs(validate func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// renderedError is an error the output surface has already shown.
type renderedError struct {
	err error
}

func (e *renderedError) Error() string { return e.err.Error() }
func (e *renderedError) Unwrap() error { return e.err }

// exchangeFailure is a completed submission whose response is not a success.
type exchangeFailure struct {
	resp *http.Response
}

func (e *exchangeFailure) Error() string {
	if e.resp.IsTransportFailure() {
		return "request failed: " + e.resp.Body
	}
	return fmt.Sprintf("request failed with status %d %s", e.resp.Status, e.resp.StatusText)
}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usage       *usageError
		cfgErr      *config.Error
		headerErr   *request.HeaderParseError
		validation  *request.ValidationError
		formErr     *form.Error
		curlErr     *curl.Error
		noTab       *dispatch.NoTabError
		unsupported *dispatch.UnsupportedPageError
		injection   *dispatch.InjectionError
		timeout     *dispatch.TimeoutError
	)
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &headerErr), errors.As(err, &validation), errors.As(err, &formErr), errors.As(err, &curlErr):
		return ExitInputError
	case errors.As(err, &noTab), errors.As(err, &unsupported), errors.As(err, &injection):
		return ExitPageError
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	default:
		return ExitRequestFailure
	}
}
