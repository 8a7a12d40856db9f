// Package qerr defines the error kinds the query execution core raises,
// as distinct from invalid-config errors raised by other packages.
//
// Errors from the shard and other packages are either passed through
// as returned or wrapped with fmt.Errorf("...: %w", err); no third-party
// error library is used.
package qerr

import "fmt"

// Kind names one of the core's error conditions.
type Kind string

const (
	// UnsupportedPattern: the step executor encountered a forbidden
	// kind-triple. Fatal to the query.
	UnsupportedPattern Kind = "UnsupportedPattern"
	// UnsupportedFeature: a feature-flagged variant was used without its
	// configuration flag (e.g. enable_versatile). Fatal to the query.
	UnsupportedFeature Kind = "UnsupportedFeature"
	// InconsistentAttrType: attribute values within a column disagreed in
	// type. Fatal to the query.
	InconsistentAttrType Kind = "InconsistentAttrType"
	// TransportRefused: send() returned false. Recovered locally via the
	// stash; this kind should never surface past the engine main loop.
	TransportRefused Kind = "TransportRefused"
	// UnknownParentReply: a reply arrived with no matching reply-map entry.
	// Logged and dropped; contributes to the "pending orphan" diagnostic.
	UnknownParentReply Kind = "UnknownParentReply"
)

// QueryError is a fatal, query-scoped error tagged with its Kind.
type QueryError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is reports whether err is a *QueryError of the given kind.
func Is(err error, kind Kind) bool {
	qe, ok := err.(*QueryError)
	return ok && qe.Kind == kind
}

// New constructs a *QueryError of the given kind.
func New(kind Kind, format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a *QueryError of the given kind around err.
func Wrap(kind Kind, err error, format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
