package json5_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/bindkit"
	"github.com/reoring/bindkit/json5"
)

// recorder logs structural events in a compact form.
type recorder struct {
	json5.NopVisitor
	events []string
}

func (r *recorder) add(format string, args ...any) error {
	r.events = append(r.events, fmt.Sprintf(format, args...))
	return nil
}

func (r *recorder) Null(json5.Pos) error               { return r.add("null") }
func (r *recorder) Bool(v bool, _ json5.Pos) error     { return r.add("%t", v) }
func (r *recorder) String(s string, _ json5.Pos) error { return r.add("%q", s) }
func (r *recorder) Number(n bindkit.Scalar, _ json5.Pos) error {
	return r.add("%s:%s", n.Kind(), n.Text())
}
func (r *recorder) Key(k string, _ json5.Pos) error           { return r.add("key %s", k) }
func (r *recorder) Index(i int, _ json5.Pos) error            { return r.add("index %d", i) }
func (r *recorder) StartObject(json5.Pos) error               { return r.add("{") }
func (r *recorder) EndObjectPair(k string, _ json5.Pos) error { return r.add("pair %s", k) }
func (r *recorder) EndObject(json5.Pos) error                 { return r.add("}") }
func (r *recorder) StartArray(json5.Pos) error                { return r.add("[") }
func (r *recorder) EndArrayValue(i int, _ json5.Pos) error    { return r.add("value %d", i) }
func (r *recorder) EndArray(json5.Pos) error                  { return r.add("]") }
func (r *recorder) EndOfStream(json5.Pos) error               { return r.add("eos") }

func parseErr(t *testing.T, in string, o json5.Options) *json5.ParseError {
	t.Helper()
	err := json5.ParseString(in, json5.NopVisitor{}, o)
	require.Error(t, err, in)
	var pe *json5.ParseError
	require.ErrorAs(t, err, &pe, in)
	return pe
}

func TestParse_EventOrder(t *testing.T) {
	r := &recorder{}
	require.NoError(t, json5.ParseString(`{"a":[1,true],b:null,}`, r, json5.Options{}))
	assert.Equal(t, []string{
		"{", "key a", "[",
		"index 0", "long:1", "value 0",
		"index 1", "true", "value 1",
		"]", "pair a",
		"key b", "null", "pair b",
		"}", "eos",
	}, r.events)
}

func TestParse_LexicalEvents(t *testing.T) {
	rec := &lexRecorder{}
	require.NoError(t, json5.ParseString("// head\n{a /* k */: 1, b: 2}", rec, json5.Options{}))
	assert.Equal(t, []string{"// head", "/* k */"}, rec.comments)
	assert.Equal(t, 2, rec.colons)
	assert.Equal(t, 1, rec.commas)
	assert.NotEmpty(t, rec.spaces)
}

type lexRecorder struct {
	json5.NopVisitor
	comments       []string
	spaces         []string
	colons, commas int
}

func (r *lexRecorder) Comment(text string, _ json5.Pos) error {
	r.comments = append(r.comments, text)
	return nil
}

func (r *lexRecorder) Space(text string, _ json5.Pos) error {
	r.spaces = append(r.spaces, text)
	return nil
}

func (r *lexRecorder) Colon(json5.Pos) error {
	r.colons++
	return nil
}

func (r *lexRecorder) Comma(json5.Pos) error {
	r.commas++
	return nil
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		in  string
		msg string
	}{
		{``, "Empty content"},
		{"  // only a comment\n", "Empty content"},
		{`}`, "Unexpected '}'"},
		{`]`, "Unexpected ']'"},
		{`:`, "Unexpected ':'"},
		{`,`, "Unexpected ','"},
		{`1 2`, "Expected end of stream"},
		{`{} []`, "Expected end of stream"},
		{`[1 2]`, "Expected ','"},
		{`[,]`, "Unexpected ','"},
		{`[1,,2]`, "Unexpected ','"},
		{`[1}`, "Expected ']' to match with '[' on line 1"},
		{"{\n\"a\":1]", "Expected '}' to match with '{' on line 1"},
		{`{1:2}`, "Object keys must be a string"},
		{`{"a":1,[]}`, "Object keys must be a string"},
		{`{"a" 1}`, "Expected ':'"},
		{`{"a",}`, "Expected ':'"},
		{`{"a"}`, "Expected ':'"},
		{`{"a":}`, "Unexpected '}'"},
		{`{"a"::1}`, "Unexpected ':'"},
		{`[1:2]`, "Unexpected ':'"},
		{`[foo]`, "Unexpected character 0x66"},
		{`{a:1 b:2}`, "Expected ','"},
		{`[1 foo]`, "Expected ','"},
		{`1 foo`, "Expected end of stream"},
		{`@`, "Unexpected character 0x40"},
		{`{`, "Missing '}'"},
		{`[`, "Missing ']'"},
		{`[1,`, "Missing ']'"},
		{`{"a":`, "Missing '}'"},
		{`{"a":1`, "Expected '}' before end of file to match with '{' on line 1"},
		{`"abc`, "Unterminated string"},
		{"'a\nb'", "Unterminated string"},
		{`/* open`, "Unterminated comment"},
		{`"\1"`, "Invalid escape"},
		{`"\01"`, "Invalid escape"},
		{`"\xZZ"`, "Invalid escape"},
		{`"\u12"`, "Invalid escape"},
		{`1e2147483648`, "Exponent exceeds 2147483647"},
		{`-foo`, "Unexpected character 0x66"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			pe := parseErr(t, c.in, json5.Options{})
			assert.Equal(t, c.msg, pe.Msg)
		})
	}
}

func TestParse_UnterminatedBracketReferencesOpeningLine(t *testing.T) {
	pe := parseErr(t, `{"a":[1,2`, json5.Options{})
	assert.Equal(t, "Expected ']' before end of file to match with '[' on line 1", pe.Msg)
	assert.Equal(t, "/a/1", pe.Loc.Pointer())
	assert.Equal(t, int64(9), pe.Loc.Offset)
	assert.Equal(t,
		"input:1: Expected ']' before end of file to match with '[' on line 1\n"+
			"{\"a\":[1,2\n"+
			"         ^\n"+
			"location: /a/1",
		pe.Error())

	pe = parseErr(t, "{\n  \"a\": [\n    1,\n    2\n", json5.Options{SourceName: "doc.json5"})
	assert.Equal(t, "Expected ']' before end of file to match with '[' on line 2", pe.Msg)
	assert.Equal(t, 5, pe.Loc.Line)
	assert.True(t, strings.HasPrefix(pe.Error(), "doc.json5:5: "))
}

func TestParse_ErrorLocationAndCaret(t *testing.T) {
	pe := parseErr(t, "{\n\ta: [1, x]\n}", json5.Options{})
	assert.Equal(t, "Unexpected character 0x78", pe.Msg)
	assert.Equal(t, 2, pe.Loc.Line)
	line, marker, ok := pe.Loc.ContextLine()
	require.True(t, ok)
	assert.Equal(t, "\ta: [1, x]", line)
	assert.Equal(t, "\t       ^", marker)

	// Wide runes take two columns, combining marks none.
	pe = parseErr(t, "[\"日本\", \"e\u0301\", ?]", json5.Options{})
	_, marker, ok = pe.Loc.ContextLine()
	require.True(t, ok)
	assert.Equal(t, strings.Repeat(" ", 1+6+2+3+2)+"^", marker)
}

func TestParse_CRLFAndSeparatorsCountOnce(t *testing.T) {
	pe := parseErr(t, "[\r\n1,\r2,\u20283,\n?]", json5.Options{})
	assert.Equal(t, 5, pe.Loc.Line)
}

func TestParse_ReaderWithoutContext(t *testing.T) {
	err := json5.ParseReader(strings.NewReader(`[1,`), json5.NopVisitor{}, json5.Options{SourceName: "stdin"})
	var pe *json5.ParseError
	require.ErrorAs(t, err, &pe)
	_, _, ok := pe.Loc.ContextLine()
	assert.False(t, ok)
	assert.Equal(t, "stdin:1: Missing ']'\nlocation: /1", pe.Error())
}

func TestParse_ReaderGrowsBufferForLongTokens(t *testing.T) {
	long := strings.Repeat("x", 100)
	doc := `{"` + long + `": "` + long + `", n: 12345678901234567890, c: /* ` + long + ` */ 1}`
	r := &recorder{}
	err := json5.ParseReader(iotest.OneByteReader(strings.NewReader(doc)), r, json5.Options{BufferSize: 4})
	require.NoError(t, err)
	assert.Contains(t, r.events, "key "+long)
	assert.Contains(t, r.events, fmt.Sprintf("%q", long))
	assert.Contains(t, r.events, "bigint:12345678901234567890")
}

func TestParse_ReaderMatchesBytes(t *testing.T) {
	doc := "{a:'\\u00e9\u2028',\r\nb:[0x10,.5,+1,-Infinity,NaN],\u00a0c:\"\\\r\n\"}"
	whole := &recorder{}
	require.NoError(t, json5.ParseString(doc, whole, json5.Options{}))
	streamed := &recorder{}
	require.NoError(t, json5.ParseReader(iotest.HalfReader(strings.NewReader(doc)), streamed, json5.Options{BufferSize: 1}))
	assert.Equal(t, whole.events, streamed.events)
}

func TestParse_MaxDepth(t *testing.T) {
	pe := parseErr(t, strings.Repeat("[", 5)+strings.Repeat("]", 5), json5.Options{MaxDepth: 3})
	assert.Equal(t, "Maximum nesting depth 3 exceeded", pe.Msg)

	require.NoError(t, json5.ParseString(strings.Repeat("[", 5)+strings.Repeat("]", 5), json5.NopVisitor{}, json5.Options{MaxDepth: -1}))

	deep := strings.Repeat("[", bindkit.DefaultMaxDepth+1)
	pe = parseErr(t, deep, json5.Options{})
	assert.Equal(t, fmt.Sprintf("Maximum nesting depth %d exceeded", bindkit.DefaultMaxDepth), pe.Msg)
}

type failingVisitor struct{ json5.NopVisitor }

var errStop = errors.New("stop")

func (failingVisitor) Number(bindkit.Scalar, json5.Pos) error { return errStop }

func TestParse_VisitorErrorCarriesPosition(t *testing.T) {
	err := json5.ParseString("[\n1]", failingVisitor{}, json5.Options{SourceName: "f"})
	require.ErrorIs(t, err, errStop)
	assert.Equal(t, "f:2: stop", err.Error())
}

func TestParseError_Issue(t *testing.T) {
	pe := parseErr(t, `{"a": [1, }`, json5.Options{})
	it, ok := bindkit.ToIssue(pe)
	require.True(t, ok)
	assert.Equal(t, bindkit.CodeParseError, it.Code)
	assert.Equal(t, "/a/1", it.Path)
	assert.Equal(t, 1, it.Line)
	assert.Equal(t, int64(10), it.Offset)
}
