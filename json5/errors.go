package json5

import (
	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/i18n"
)

// ParseError is a grammar or lexical failure. Error renders the full
// location, including the source line and caret when available.
type ParseError struct {
	Msg string
	Loc *Location
}

func (e *ParseError) Error() string { return e.Loc.Format(e.Msg) }

// Issue projects the error onto bindkit's Issue model.
func (e *ParseError) Issue() bindkit.Issue {
	params := map[string]string{"detail": e.Msg}
	return bindkit.Issue{
		Path:    e.Loc.Pointer(),
		Code:    bindkit.CodeParseError,
		Message: i18n.T(bindkit.CodeParseError, params),
		Offset:  e.Loc.Offset,
		Line:    e.Loc.Line,
		Params:  params,
	}
}
