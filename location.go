package bindkit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	eng "github.com/reoring/bindkit/internal/engine"
)

// ElementKind tags a Location element.
type ElementKind int

const (
	ElemTarget ElementKind = iota
	ElemKey
	ElemIndex
)

// Element is one step of a Location path.
type Element struct {
	Kind   ElementKind
	Key    string
	Index  int
	Target TypeDesc
}

func (e Element) String() string {
	switch e.Kind {
	case ElemKey:
		return "key=" + escapePathKey(e.Key)
	case ElemIndex:
		return "index=" + strconv.Itoa(e.Index)
	default:
		return "targetType=" + e.Target.String()
	}
}

// Location is an immutable, parent-linked path used for diagnostics. Children
// are created with Key, Index and Target; a Location is never mutated.
type Location struct {
	parent *Location
	elem   Element
	depth  int // number of key/index elements from the root
}

// RootLocation starts a path at the given target type.
func RootLocation(target TypeDesc) *Location {
	return &Location{elem: Element{Kind: ElemTarget, Target: target}}
}

func (l *Location) child(e Element) *Location {
	d := l.depth
	if e.Kind != ElemTarget {
		d++
	}
	return &Location{parent: l, elem: e, depth: d}
}

func (l *Location) Key(key string) *Location         { return l.child(Element{Kind: ElemKey, Key: key}) }
func (l *Location) Index(i int) *Location            { return l.child(Element{Kind: ElemIndex, Index: i}) }
func (l *Location) Target(t TypeDesc) *Location      { return l.child(Element{Kind: ElemTarget, Target: t}) }
func (l *Location) Parent() *Location                { return l.parent }
func (l *Location) Element() Element                 { return l.elem }
func (l *Location) Depth() int                       { return l.depth }
func (l *Location) Equal(o *Location) bool           { return l.String() == o.String() }
func (l *Location) find(k ElementKind) *Location     { return l.findFn(func(e Element) bool { return e.Kind == k }) }
func (l *Location) FindKey() *Location               { return l.find(ElemKey) }
func (l *Location) FindTarget() *Location            { return l.find(ElemTarget) }
func (l *Location) findFn(fn func(Element) bool) *Location {
	for cur := l; cur != nil; cur = cur.parent {
		if fn(cur.elem) {
			return cur
		}
	}
	return nil
}

// Elements returns the path from the root to l.
func (l *Location) Elements() []Element {
	var out []Element
	for cur := l; cur != nil; cur = cur.parent {
		out = append(out, cur.elem)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Pointer renders the key/index elements as a JSON Pointer ("/" for root).
func (l *Location) Pointer() string {
	if l == nil {
		return "/"
	}
	var b strings.Builder
	for _, e := range l.Elements() {
		switch e.Kind {
		case ElemKey:
			b.WriteString("/" + eng.EscapePointerToken(e.Key))
		case ElemIndex:
			b.WriteString("/" + strconv.Itoa(e.Index))
		}
	}
	return eng.NormalizePath(b.String())
}

// TargetType returns the closest enclosing target type.
func (l *Location) TargetType() TypeDesc {
	if t := l.FindTarget(); t != nil {
		return t.elem.Target
	}
	return NullType
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	elems := l.Elements()
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return strings.Join(parts, " » ")
}

// escapePathKey replaces control, separator and path-significant characters
// with \uXXXX so keys render unambiguously.
func escapePathKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.C, unicode.Z), strings.ContainsRune("/=<>\\", r):
			fmt.Fprintf(&b, "\\u%04x", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
