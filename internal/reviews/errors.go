package reviews

import "fmt"

// TransportError reports a request that could not be built or sent, or that
// produced no response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("could not reach review service (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError reports a response outside the 2xx range.
type ResponseError struct {
	StatusCode int
	Path       string
	Body       string // leading bytes of the body, trimmed
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("review service returned status %d for %s", e.StatusCode, e.Path)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ParseError reports a body that is not a review list.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed review payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
