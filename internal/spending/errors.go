package spending

import (
	"fmt"
)

// ErrorKind classifies a FetchError.
type ErrorKind string

const (
	KindRequest   ErrorKind = "request"   // the request could not be built
	KindTransport ErrorKind = "transport" // DNS, refused connection, reset
	KindTimeout   ErrorKind = "timeout"   // the bounded timeout elapsed
	KindStatus    ErrorKind = "status"    // non-2xx HTTP status
	KindDecode    ErrorKind = "decode"    // body was not the expected JSON
)

// FetchError is the only error GetFundingRecords returns. Body holds the raw
// response text when a response was received.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("spending: %s error (http %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("spending: %s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ResponseText returns Body, or a placeholder when there was no response.
func (e *FetchError) ResponseText() string {
	if e.Body == "" {
		return "No response text"
	}
	return e.Body
}
