package bot

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText interprets uploaded file bytes as text: UTF-8 when valid,
// otherwise a Latin-1 fallback, matching what most plain-text exports use.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding file contents: %w", err)
	}
	return string(decoded), nil
}
