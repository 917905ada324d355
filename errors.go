package bindkit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/bindkit/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnsupportedType = "unsupported_type"
	CodeUnknownKey      = "unknown_key"
	CodeDuplicateKey    = "duplicate_key"
	CodeParseError      = "parse_error"
	CodeOverflow        = "overflow"
	CodeDepthExceeded   = "depth_exceeded"
	CodeInternal        = "internal"
)

var (
	// ErrUnsupportedType matches every *UnsupportedTypeError and *UnknownKeyError.
	ErrUnsupportedType = errors.New("bindkit: unsupported type")
	// ErrInternal marks a broken producer/consumer contract (for example a
	// builder finalized twice). It never describes bad input.
	ErrInternal = errors.New("bindkit: internal consistency failure")
)

// Issue represents a single diagnostic entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	Offset  int64 // Byte offset in the input source (-1 when unknown).
	Line    int   // 1-based source line (0 when unknown).
	// Params carries structured parameters (e.g., {"key":"z"}) for i18n and
	// observability.
	Params map[string]string
}

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. duplicate_key at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// IssueCarrier is implemented by errors that can describe themselves as an
// Issue. Every error type in this module implements it.
type IssueCarrier interface {
	error
	Issue() Issue
}

// ToIssue projects err onto the Issue model.
func ToIssue(err error) (Issue, bool) {
	if err == nil {
		return Issue{}, false
	}
	var c IssueCarrier
	if errors.As(err, &c) {
		return c.Issue(), true
	}
	var iss Issues
	if errors.As(err, &iss) && len(iss) > 0 {
		return iss[0], true
	}
	return Issue{}, false
}

// AsIssues extracts Issues from an error. Single-issue errors are returned as
// a one element slice.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	if it, ok := ToIssue(err); ok {
		return Issues{it}, true
	}
	return nil, false
}

// UnsupportedTypeError reports a shape mismatch, a missing registration, a
// narrowing overflow or a wrapped failure, located where it happened.
type UnsupportedTypeError struct {
	Location *Location
	Code     string // CodeUnsupportedType, CodeOverflow or CodeDepthExceeded
	Msg      string
	Err      error
}

func (e *UnsupportedTypeError) Error() string {
	return "Attempt to convert " + e.Location.String() + " is not supported: " + e.Msg
}

func (e *UnsupportedTypeError) Unwrap() error { return e.Err }

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

func (e *UnsupportedTypeError) Issue() Issue {
	code := e.Code
	if code == "" {
		code = CodeUnsupportedType
	}
	params := map[string]string{"detail": e.Msg, "target": e.Location.TargetType().String()}
	return Issue{
		Path:    e.Location.Pointer(),
		Code:    code,
		Message: i18n.T(code, params),
		Cause:   e.Err,
		Offset:  -1,
		Params:  params,
	}
}

// UnknownKeyError reports a key a consumer refused. Location is the object
// that received the key.
type UnknownKeyError struct {
	Location *Location
	Key      string
	Target   TypeDesc
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("Unknown key '%s' was found at location %s when trying to convert to type %s",
		e.Key, e.Location, e.Target)
}

func (e *UnknownKeyError) Is(target error) bool { return target == ErrUnsupportedType }

func (e *UnknownKeyError) Issue() Issue {
	params := map[string]string{"key": e.Key, "target": e.Target.String()}
	return Issue{
		Path:    e.Location.Key(e.Key).Pointer(),
		Code:    CodeUnknownKey,
		Message: i18n.T(CodeUnknownKey, params),
		Offset:  -1,
		Params:  params,
	}
}

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInternal}, args...)...)
}
