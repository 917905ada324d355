package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	assert.Equal(t, "unknown key 'z'", T("unknown_key", map[string]string{"key": "z"}))
	assert.Equal(t, "unsupported type: int32 overflow", T("unsupported_type", map[string]string{"detail": "int32 overflow"}))

	SetLanguage("ja")
	defer SetLanguage("en")
	assert.Equal(t, "未知のキーです", T("unknown_key", nil))
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	assert.Equal(t, "X:internal", T("internal", nil))
	SetTranslator(nil)
	assert.Equal(t, "internal error", T("internal", nil))
}
