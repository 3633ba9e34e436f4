package botapi

import "fmt"

// APIError is returned for any non-2xx response. The dashboard surfaces the
// message verbatim and offers a manual retry; there is no finer taxonomy.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.Status, e.Body)
}

// DecodeError is returned when the backend responds 2xx but the payload does
// not have the expected shape. Callers decide whether to coerce to an empty
// collection; the client itself never guesses.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode error: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
