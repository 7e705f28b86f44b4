package http

import (
	"strings"
)

// FetchErrorStatusText is the status text of a transport failure.
const FetchErrorStatusText = "FETCH_ERROR"

// Response is the normalized outcome of one exchange. The same shape is
// produced whether a response arrived or the transport failed, and it is
// plain data so it can cross an execution context boundary.
type Response struct {
	OK         bool              `json:"ok"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// TransportFailure builds the Response for an exchange that never received
// a response.
func TransportFailure(err error) *Response {
	return &Response{
		OK:         false,
		Status:     0,
		StatusText: FetchErrorStatusText,
		Headers:    map[string]string{},
		Body:       err.Error(),
	}
}

// IsTransportFailure reports whether no response was received.
func (r *Response) IsTransportFailure() bool {
	return r.Status == 0
}

func (r *Response) Header(key string) string {
	return r.Headers[strings.ToLower(key)]
}

func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}
