package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ir "github.com/reoring/bindkit/internal/ir"
)

func TestRenderFile_Record(t *testing.T) {
	out, err := RenderFile(File{
		Package: "foo",
		Imports: []Import{{Path: "time"}, {Path: "time"}},
		Records: []ir.Record{{
			Name: "User",
			Fields: []ir.Field{
				{Name: "id", GoName: "ID", Type: "int64", Required: true},
				{Name: "seen", GoName: "Seen", Type: "time.Time"},
			},
			UnknownPolicy: ir.UnknownStrip,
		}},
	})
	require.NoError(t, err)
	code := string(out)
	assert.Contains(t, code, "// Code generated by bindkit gen. DO NOT EDIT.")
	assert.Contains(t, code, "import (\n\t\"time\"\n\n\t\"github.com/reoring/bindkit\"\n\t\"github.com/reoring/bindkit/record\"\n)")
	assert.Contains(t, code, "func UserRecord() *record.Record[User] {\n\tr := record.Of[User]()\n")
	assert.Contains(t, code, "\tr.Field(\"id\", record.Ref(func(v *User) *int64 { return &v.ID })).Required()\n")
	assert.Contains(t, code, "\tr.Field(\"seen\", record.Ref(func(v *User) *time.Time { return &v.Seen }))\n")
	assert.Contains(t, code, "\tr.UnknownStrip()\n\treturn r\n}")
	assert.Contains(t, code, "func RegisterRecords(b *bindkit.Builder) {\n\tUserRecord().Register(b)\n}")
}

func TestRenderFile_NoImports(t *testing.T) {
	out, err := RenderFile(File{Package: "foo", Records: []ir.Record{{Name: "Empty"}}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "import (\n\t\"github.com/reoring/bindkit\"\n")
	assert.NotContains(t, string(out), "UnknownStrip")
}

func TestRenderFile_RequiresPackage(t *testing.T) {
	_, err := RenderFile(File{})
	require.Error(t, err)
}
