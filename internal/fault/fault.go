// Package fault defines the error taxonomy shared by the pipeline, the store
// and the HTTP layer. Every failure surfaced to a caller is one of these
// types; the HTTP layer maps them to status codes with errors.As.
package fault

import "fmt"

// Upstream cause tags. They identify which part of the external completion
// call failed without leaking provider-specific detail to callers.
const (
	CauseTransport = "transport"
	CauseStatus    = "status"
	CauseAuth      = "auth"
	CauseMalformed = "malformed"
)

// ValidationError reports a defect in the client's input. Surfaced as 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// UpstreamError reports a failure of the external completion service or the
// transport to it. Surfaced as 500; never retried.
type UpstreamError struct {
	Cause string // one of the Cause* tags
	Err   error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream (%s): %v", e.Cause, e.Err)
	}
	return "upstream (" + e.Cause + ")"
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError reports a durable-store defect. Surfaced as 500.
type StorageError struct {
	Op  string // insert, list, delete
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotFoundError reports an operation on data that does not exist, currently
// only an export over an empty store. Surfaced as 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}
