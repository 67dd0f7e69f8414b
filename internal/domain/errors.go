package domain

import "fmt"

// FetchError reports a failed feed request. StatusCode is zero when the
// request never produced an HTTP response.
type FetchError struct {
	StatusCode int
	Body       string // first 512 bytes
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("feed request failed: status %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("feed request failed: status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("feed request failed: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// NormalizationError reports a malformed or incomplete raw event. Index is
// the position of the event in the fetched batch.
type NormalizationError struct {
	Index int
	ID    string
	Err   error
}

func (e *NormalizationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("normalize event %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("normalize event %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// LoadError reports a sink failure. Op names the statement that failed.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
