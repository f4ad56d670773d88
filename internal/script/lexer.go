package script

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errUnsupportedEncoding = errors.New("script: unsupported encoding")

// decodeInput converts raw script bytes to UTF-8. A byte order mark always
// wins over enc; without one, enc selects the encoding (empty means UTF-8).
func decodeInput(data []byte, enc string) ([]byte, error) {
	var fallback encoding.Encoding
	switch strings.ToUpper(enc) {
	case "", EncodingUTF8:
		fallback = unicode.UTF8
	case EncodingUTF16LE:
		fallback = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case EncodingUTF16BE:
		fallback = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	default:
		return nil, errUnsupportedEncoding
	}
	if isPlainUTF8(data, fallback) {
		return data, nil // No copy!
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isPlainUTF8 reports whether data can be used as-is: UTF-8 input with no BOM.
func isPlainUTF8(data []byte, enc encoding.Encoding) bool {
	if enc != unicode.UTF8 {
		return false
	}
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return false
	}
	return len(data) < 3 || data[0] != 0xEF || data[1] != 0xBB || data[2] != 0xBF
}
