// Package encoding provides text encoding utilities for Ragnarok Online file formats.
package encoding

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// EUCKRToUTF8 converts EUC-KR encoded bytes to a UTF-8 string.
// Pure ASCII input and input that fails to decode are returned as-is.
func EUCKRToUTF8(data []byte) string {
	if isASCII(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil || !utf8.Valid(result) {
		return string(data)
	}
	return string(result)
}

// UTF8ToEUCKR converts a UTF-8 string to EUC-KR encoded bytes.
// Returns the original bytes if conversion fails.
func UTF8ToEUCKR(s string) []byte {
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizeGRFPath normalizes a GRF file path for case-insensitive lookup.
func NormalizeGRFPath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

// MapName returns the bare map name of a GRF path, e.g. "data/prontera.gat"
// becomes "prontera".
func MapName(path string) string {
	path = NormalizeGRFPath(path)
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		path = path[:i]
	}
	return path
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
