package request

// HeaderParseError is returned when the header text is not a JSON object.
type HeaderParseError struct {
	Detail string
}

func (e *HeaderParseError) Error() string {
	return "Header JSON error: " + e.Detail
}

// ValidationError is returned when the URL or method is rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
