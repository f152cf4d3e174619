package eurlex

import "fmt"

// TransportError reports a network or HTTP-level failure for a single
// listing page or detail fetch. It aborts only the pagination loop or the
// detail task it occurred in.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport failure for %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports structured content that could not be used: a stub with
// no resolvable identifier, or a detail document that cannot be interpreted.
// Parse errors are counted, never propagated to the orchestrator.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure for %s: %s", e.URL, e.Reason)
}

// PersistenceError reports a sink failure for one document. It is logged and
// counted without aborting the worker pool or the strategy.
type PersistenceError struct {
	Celex string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Celex, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
