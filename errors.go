package dhttrace

import (
	"errors"
	"fmt"
)

// Recoverable anomalies. They are recorded as warnings on the Report and
// never returned from the engine.
var (
	ErrUnknownKind        = errors.New("unknown event kind")
	ErrOrphanReply        = errors.New("reply without matching operation")
	ErrMissingResult      = errors.New("reply missing result")
	ErrDuplicateReply     = errors.New("reply for an operation that already ended")
	ErrReplyMismatch      = errors.New("reply kind does not match operation kind")
	ErrDuplicateOperation = errors.New("operation id already used")
)

// Fatal configuration and input errors.
var (
	ErrMissingModel    = errors.New("model path is required")
	ErrMalformedLine   = errors.New("malformed log line")
	ErrUnordered       = errors.New("log is not ordered by time")
	ErrUnknownDetector = errors.New("unknown ring detector")
)

// Fatal consistency violations, always wrapped in a ConsistencyError.
var (
	ErrAlreadyOpen   = errors.New("interval already open")
	ErrNotOpen       = errors.New("interval not open")
	ErrAlreadyMember = errors.New("node is already a member")
	ErrNotMember     = errors.New("node is not a member")
)

// ConsistencyError reports an inconsistent log or a detector bug. It names
// the offending identity and the time at which it was detected.
type ConsistencyError struct {
	Identity string
	Time     Timestamp
	Err      error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s at %s: %v", e.Identity, e.Time, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

func consistencyError(identity string, t Timestamp, err error) error {
	return &ConsistencyError{Identity: identity, Time: t, Err: err}
}

// lineError wraps a fatal input error with the line it was found on.
func lineError(line int, err error, text string) error {
	return fmt.Errorf("line %d %q: %w", line, text, err)
}
