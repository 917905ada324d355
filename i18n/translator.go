package i18n

import "sync/atomic"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "key" or "target").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "unsupported_type":
			msg = "変換できない型です"
		case "unknown_key":
			msg = "未知のキーです"
		case "duplicate_key":
			msg = "キーが重複しています"
		case "parse_error":
			msg = "解析エラー"
		case "overflow":
			msg = "値が範囲外です"
		case "depth_exceeded":
			msg = "ネストが深すぎます"
		case "internal":
			msg = "内部エラー"
		}
	default: // "en"
		switch code {
		case "unsupported_type":
			msg = "unsupported type"
		case "unknown_key":
			msg = "unknown key"
		case "duplicate_key":
			msg = "duplicate key"
		case "parse_error":
			msg = "parse error"
		case "overflow":
			msg = "value out of range"
		case "depth_exceeded":
			msg = "maximum depth exceeded"
		case "internal":
			msg = "internal error"
		}
	}
	if msg == "" {
		return code
	}
	if k, ok := data["key"]; ok {
		msg += " '" + k + "'"
	}
	if d, ok := data["detail"]; ok && d != "" {
		msg += ": " + d
	}
	return msg
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	current.Store(&holder{dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). A nil tr restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
