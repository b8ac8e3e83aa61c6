package ffprobe

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ISO 639-2/B codes still common in Matroska tags.
var bibliographicCodes = map[string]string{
	"chi": "zho",
	"dut": "nld",
	"fre": "fra",
	"ger": "deu",
	"gre": "ell",
	"per": "fas",
	"cze": "ces",
}

// Language returns the stream's language tag, or "" when untagged or "und".
func (s Stream) Language() string {
	for key, value := range s.Tags {
		if strings.EqualFold(key, "language") {
			value = strings.ToLower(strings.TrimSpace(value))
			if value == "und" {
				return ""
			}
			return value
		}
	}
	return ""
}

// LanguageName renders an ISO 639 code as an English name ("jpn" is
// "Japanese"). Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	lookup := code
	if alias, ok := bibliographicCodes[code]; ok {
		lookup = alias
	}
	base, err := language.ParseBase(lookup)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return code
}
