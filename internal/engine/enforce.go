package engine

import (
	"strconv"
	"strings"
)

// Tracker applies duplicate key handling and maximum nesting depth checks in a
// streaming fashion. It knows nothing about sinks; callers report container
// boundaries and keys as they flow past.

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	// IssueSink receives non-fatal issues (DupWarn).
	IssueSink func(SimpleIssue)
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind      containerKind
	keys      map[string]struct{}
	path      string
	nextIndex int
}

// Tracker mirrors container nesting for one value stream.
type Tracker struct {
	opt   EnforceOptions
	stack []frame
}

// NewTracker returns an empty Tracker.
func NewTracker(opt EnforceOptions) *Tracker { return &Tracker{opt: opt} }

// Depth returns the current container nesting.
func (t *Tracker) Depth() int { return len(t.stack) }

// BeginObject records an object opened at path.
func (t *Tracker) BeginObject(path string) error {
	t.stack = append(t.stack, frame{kind: kindObject, keys: make(map[string]struct{}), path: path})
	return t.checkDepth(path)
}

// BeginArray records an array opened at path.
func (t *Tracker) BeginArray(path string) error {
	t.stack = append(t.stack, frame{kind: kindArray, path: path})
	return t.checkDepth(path)
}

// End closes the innermost container.
func (t *Tracker) End() {
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
}

// Key records key in the innermost object and returns the child path.
func (t *Tracker) Key(key string) (string, error) {
	n := len(t.stack)
	if n == 0 || t.stack[n-1].kind != kindObject {
		return JoinPointer("", key), nil
	}
	top := &t.stack[n-1]
	path := JoinPointer(top.path, key)
	if _, ok := top.keys[key]; ok && t.opt.OnDuplicate != DupIgnore {
		si := SimpleIssue{Code: "duplicate_key", Path: NormalizePath(path), Message: "key '" + key + "' duplicated"}
		if t.opt.OnDuplicate == DupError {
			return path, IssueError{si}
		}
		if t.opt.IssueSink != nil {
			t.opt.IssueSink(si)
		}
	}
	top.keys[key] = struct{}{}
	return path, nil
}

// Index returns the path of the next element of the innermost array.
func (t *Tracker) Index() string {
	n := len(t.stack)
	if n == 0 || t.stack[n-1].kind != kindArray {
		return ""
	}
	top := &t.stack[n-1]
	path := JoinPointer(top.path, strconv.Itoa(top.nextIndex))
	top.nextIndex++
	return path
}

func (t *Tracker) checkDepth(path string) error {
	if t.opt.MaxDepth > 0 && len(t.stack) > t.opt.MaxDepth {
		return IssueError{SimpleIssue{Code: "depth_exceeded", Path: NormalizePath(path), Message: "max depth exceeded"}}
	}
	return nil
}

// NormalizePath renders the root pointer as "/".
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// EscapePointerToken escapes '~' and '/' per RFC 6901.
func EscapePointerToken(s string) string {
	return jsonPointerEscaper.Replace(s)
}

// JoinPointer appends token to the JSON Pointer base.
func JoinPointer(base, token string) string {
	if base == "/" {
		base = ""
	}
	return base + "/" + EscapePointerToken(token)
}
