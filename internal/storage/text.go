package storage

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/redcode-editor/redcode/internal/errors"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText turns raw file bytes into editor text. UTF-8 is the default; a
// UTF-8 or UTF-16 byte order mark selects the matching decoding and is
// stripped. Anything else that is not valid UTF-8 fails with ErrNotText: the
// text returned must encode back to the bytes read.
func DecodeText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if !bytes.HasPrefix(data, bomUTF16LE) && !bytes.HasPrefix(data, bomUTF16BE) {
		data = bytes.TrimPrefix(data, bomUTF8)
		if !utf8.Valid(data) {
			return "", errors.ErrNotText
		}
		return string(data), nil
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// EncodeText returns the bytes written for text: its UTF-8 form, unchanged.
// A file opened with a byte order mark is saved without one.
func EncodeText(text string) []byte {
	return []byte(text)
}
