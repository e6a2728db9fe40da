// Package text provides string encodings and text operators for content
// streams.
package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Escape escapes a byte string for use inside a PDF literal string.
// Bytes other than the delimiters and carriage return pass through
// unchanged so that UTF-16 and encrypted strings stay intact.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\()\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '(':
			b.WriteString(`\(`)
		case ')':
			b.WriteString(`\)`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var (
	utf16be        = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	utf16beWithBOM = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
)

// UTF16BE encodes s as UTF-16BE without a byte order mark.
func UTF16BE(s string) string {
	out, err := utf16be.NewEncoder().String(s)
	if err != nil {
		return encodeRunes(s, false)
	}
	return out
}

// UTF16BEWithBOM encodes s as UTF-16BE preceded by FE FF, the form used
// for text strings in the document information dictionary.
func UTF16BEWithBOM(s string) string {
	out, err := utf16beWithBOM.NewEncoder().String(s)
	if err != nil {
		return encodeRunes(s, true)
	}
	return out
}

// encodeRunes is the fallback for input the encoder rejects; runes
// outside the BMP are written as U+FFFD.
func encodeRunes(s string, bom bool) string {
	var b strings.Builder
	if bom {
		b.WriteString("\xFE\xFF")
	}
	for _, r := range s {
		if r > 0xFFFF {
			r = 0xFFFD
		}
		b.WriteByte(byte(r >> 8))
		b.WriteByte(byte(r))
	}
	return b.String()
}

// WinAnsiByte maps a rune to its Windows-1252 code. Unmappable runes
// return '?' and false.
func WinAnsiByte(r rune) (byte, bool) {
	if r < 0x80 {
		return byte(r), true
	}
	if b, ok := charmap.Windows1252.EncodeRune(r); ok {
		return b, true
	}
	return '?', false
}

// ToWinAnsi converts UTF-8 text to the single-byte encoding used by the
// core fonts.
func ToWinAnsi(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		b, _ := WinAnsiByte(r)
		buf = append(buf, b)
	}
	return string(buf)
}

// FromWinAnsi converts a Windows-1252 byte string to UTF-8.
func FromWinAnsi(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		b.WriteRune(charmap.Windows1252.DecodeByte(s[i]))
	}
	return b.String()
}

// WordSpacing returns the Tw operator for a spacing in points.
func WordSpacing(spacing float64) string {
	return fmt.Sprintf("%.3F Tw", spacing)
}

// ShowText returns a BT/ET block drawing an already encoded and escaped
// string at (x, y) in points.
func ShowText(x, y float64, escaped string) string {
	return fmt.Sprintf("BT %.2F %.2F Td (%s) Tj ET", x, y, escaped)
}

// SplitLines splits text on \n after removing carriage returns.
func SplitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r", ""), "\n")
}
