package source

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names accepted by the sheet source for CSV exports.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1251 Encoding = "windows-1251"
	EncodingWindows1250 Encoding = "windows-1250"
)

// DetectEncoding guesses the encoding of a CSV export. Exports from
// the spreadsheet backend are UTF-8 unless produced by legacy desktop
// tooling, which emits Windows-1251.
func DetectEncoding(data []byte) Encoding {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1251
}

// DecodeToUTF8 converts data from the given encoding to a UTF-8 string.
func DecodeToUTF8(data []byte, enc Encoding) (string, error) {
	switch enc {
	case "", EncodingUTF8:
		// Strip BOM if present.
		if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
			data = data[3:]
		}
		return string(data), nil
	case EncodingWindows1251:
		decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode windows-1251: %w", err)
		}
		return string(decoded), nil
	case EncodingWindows1250:
		decoded, err := charmap.Windows1250.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode windows-1250: %w", err)
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}
}
