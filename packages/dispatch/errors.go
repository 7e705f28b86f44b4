package dispatch

import (
	"fmt"
	"time"
)

// NoTabError is returned in page mode when no page is active.
type NoTabError struct{}

func (e *NoTabError) Error() string {
	return "No active tab found."
}

// UnsupportedPageError is returned when the active page cannot host the
// exchange, such as browser-internal pages, extension pages and local files.
type UnsupportedPageError struct {
	URL string
}

func (e *UnsupportedPageError) Error() string {
	url := e.URL
	if url == "" {
		url = "unknown URL"
	}
	return fmt.Sprintf("Can't run in this tab (%s). Open a normal https page.", url)
}

// InjectionError is returned when the in-page run produced no usable
// result, meaning the exchange never ran.
type InjectionError struct {
	Reason string
	Err    error
}

func (e *InjectionError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *InjectionError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the deadline elapses before the operation
// settles.
type TimeoutError struct {
	Mode    Mode
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	phase := "Extension fetch"
	if e.Mode == ModePage {
		phase = "Injection or in-page fetch"
	}
	return fmt.Sprintf("%s timed out (%s).", phase, e.Timeout)
}
