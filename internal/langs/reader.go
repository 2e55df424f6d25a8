package langs

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DecodeSource converts raw file content to NFC-normalised UTF-8.
// UTF-16 and UTF-8 byte order marks are honoured; content that is not valid
// UTF-8 is read as Latin-1.
func DecodeSource(data []byte) (string, error) {
	var decoded []byte
	switch {
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}), bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("decoding source: %w", err)
		}
		decoded = out
	case utf8.Valid(data):
		decoded = data
	default:
		out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("decoding source: %w", err)
		}
		decoded = out
	}
	return norm.NFC.String(string(decoded)), nil
}

// ReadSourceLines reads a file and returns its decoded lines.
func ReadSourceLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := DecodeSource(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return strings.Split(text, "\n"), nil
}
