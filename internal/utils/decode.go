package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts raw file bytes into text without failing.
// A leading byte order mark selects UTF-8 or UTF-16 and is stripped; anything else is read as UTF-8.
// Ill-formed sequences are replaced with utf8.RuneError.
func DecodeText(data []byte) string {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decodedBytes, _, decodeError := transform.Bytes(decoder, data)
	if decodeError != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return string(decodedBytes)
}
