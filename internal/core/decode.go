package core

// decode.go normalises the text encoding of an uploaded file before parsing.
//
// The order matters:
//  1. A byte order mark switches decoding to UTF-8/UTF-16 and is dropped
//  2. Valid UTF-8 passes through untouched
//  3. Anything else is decoded with the configured fallback charset, or has
//     invalid bytes replaced with U+FFFD when no fallback is set

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackEncodings lists the charsets accepted for Upload.FallbackEncoding.
var fallbackEncodings = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// LookupEncoding resolves a fallback charset name. The empty name and "none"
// return nil, meaning invalid bytes are replaced instead of transcoded.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "none" {
		return nil, nil
	}
	enc, ok := fallbackEncodings[name]
	if !ok {
		return nil, fmt.Errorf("unsupported fallback encoding %q", name)
	}
	return enc, nil
}

// decodeText returns data as valid UTF-8.
func decodeText(data []byte, fallback encoding.Encoding) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	if utf8.Valid(out) {
		return out, nil
	}
	if fallback != nil {
		decoded, err := fallback.NewDecoder().Bytes(out)
		if err != nil {
			return nil, fmt.Errorf("encoding error: %w", err)
		}
		return decoded, nil
	}
	return sanitizeUTF8(out), nil
}

// sanitizeUTF8 replaces every invalid byte with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}

	return buf.Bytes()
}

// NormalizeName trims a column name and puts it in NFC form so that names
// typed on different platforms compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
