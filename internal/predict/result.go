package predict

import "fmt"

// Result is the verdict returned by the classification service.
type Result struct {
	URL                 string   `json:"url,omitempty"`
	PhishingProbability float64  `json:"phishing_probability"`
	Label               int      `json:"label"`
	Explanation         []string `json:"explanation,omitempty"`
	Error               string   `json:"error,omitempty"`
}

// IsPhishing reports whether the service labelled the URL as phishing.
// Only label 1 counts; the probability is not cross-checked.
func (r *Result) IsPhishing() bool {
	return r.Label == 1
}

// ServerError is returned when the service answers with a non-2xx status.
// Message holds the payload's "error" field and may be empty.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("predict: server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("predict: server returned %d: %s", e.StatusCode, e.Message)
}

// TransportError is returned when the request could not complete or the
// response could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }
