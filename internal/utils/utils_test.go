package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/temirov/combiner/internal/utils"
)

func TestDeduplicatePatterns(t *testing.T) {
	testCases := []struct {
		name     string
		patterns []string
		expected []string
	}{
		{name: "removes duplicates", patterns: []string{"a", "b", "a"}, expected: []string{"a", "b"}},
		{name: "keeps unique", patterns: []string{"a", "b"}, expected: []string{"a", "b"}},
		{name: "empty", patterns: nil, expected: []string{}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, utils.DeduplicatePatterns(testCase.patterns))
		})
	}
}

func TestNormalizeExtensions(t *testing.T) {
	normalized := utils.NormalizeExtensions([]string{"PY", ".js", " ", ".", "py", " .Css "})
	require.Equal(t, []string{".py", ".js", ".css"}, normalized)
}

func TestDefaultExtensionsReturnsFreshSlice(t *testing.T) {
	first := utils.DefaultExtensions()
	first[0] = ".changed"
	require.Equal(t, ".py", utils.DefaultExtensions()[0])
}

func TestDecodeText(t *testing.T) {
	testCases := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "plain utf8", input: []byte("print('hi')\n"), expected: "print('hi')\n"},
		{name: "utf8 bom stripped", input: []byte("\xef\xbb\xbfbody"), expected: "body"},
		{name: "utf16 little endian", input: []byte{0xff, 0xfe, 'h', 0x00, 'i', 0x00}, expected: "hi"},
		{name: "invalid bytes replaced", input: []byte("ok\xc3(end"), expected: "ok" + string(utf8.RuneError) + "(end"},
		{name: "empty", input: nil, expected: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			decoded := utils.DecodeText(testCase.input)
			require.Equal(t, testCase.expected, decoded)
			require.True(t, utf8.ValidString(decoded))
		})
	}
}

func TestDecodeTextKeepsContentAroundInvalidBytes(t *testing.T) {
	decoded := utils.DecodeText([]byte("first\xff\xfdsecond"))
	require.True(t, strings.HasPrefix(decoded, "first"))
	require.True(t, strings.HasSuffix(decoded, "second"))
}
