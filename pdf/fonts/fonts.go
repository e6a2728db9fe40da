// Package fonts provides font records for PDF generation: core font
// metrics, JSON font descriptors, TrueType metrics extraction, the metrics
// cache, subsetting and CID width arrays.
package fonts

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/text"
)

// Common errors
var (
	ErrInvalidFont       = errors.New("invalid font data")
	ErrFontNotFound      = errors.New("font not found")
	ErrUnsupportedFormat = errors.New("unsupported font format")
	ErrUnsupportedTable  = errors.New("unsupported font table")
)

// Type is the kind of a registered font.
type Type string

const (
	TypeCore     Type = "Core"
	TypeType1    Type = "Type1"
	TypeTrueType Type = "TrueType"
	TypeTTF      Type = "TTF"
)

// zeroWidth marks a mapped glyph with no advance in a TTF width table;
// a stored 0 means the codepoint is not mapped.
const zeroWidth = 0xFFFF

// Desc holds the font descriptor entries.
type Desc struct {
	Ascent       int     `json:"Ascent"`
	Descent      int     `json:"Descent"`
	CapHeight    int     `json:"CapHeight"`
	Flags        int     `json:"Flags"`
	FontBBox     [4]int  `json:"FontBBox"`
	ItalicAngle  float64 `json:"ItalicAngle"`
	StemV        int     `json:"StemV"`
	MissingWidth int     `json:"MissingWidth"`
}

// Entries renders the descriptor as PDF dictionary entries, in the order
// FontDescriptor dictionaries list them.
func (d Desc) Entries() string {
	return fmt.Sprintf("/Ascent %d /Descent %d /CapHeight %d /Flags %d /FontBBox [%d %d %d %d] /ItalicAngle %s /StemV %d /MissingWidth %d",
		d.Ascent, d.Descent, d.CapHeight, d.Flags,
		d.FontBBox[0], d.FontBBox[1], d.FontBBox[2], d.FontBBox[3],
		strconv.FormatFloat(d.ItalicAngle, 'f', -1, 64), d.StemV, d.MissingWidth)
}

// Font is a registered font. Core and descriptor fonts measure text
// through CharWidths; TTF fonts through the big-endian width table CW
// and record every codepoint drawn for subsetting.
type Font struct {
	Index  int
	Type   Type
	Name   string
	Family string
	Style  string
	Desc   Desc
	Up     int
	Ut     int

	CharWidths [256]int
	CW         []byte

	Enc   string
	Diff  string
	DiffN int

	// File is the embedded program of a descriptor font or the path of a
	// TTF font.
	File         string
	OriginalSize int64
	Size1        int64
	Size2        int64

	// N is the object number of the font dictionary, set when the font is
	// serialized.
	N int

	subset map[rune]struct{}
}

// Key returns the registry key of a family and style.
func Key(family, style string) string {
	return strings.ToLower(family) + style
}

// NormalizeStyle uppercases style, strips the underline flag and
// orders bold before italic.
func NormalizeStyle(style string) (normalized string, underline bool) {
	s := strings.ToUpper(style)
	if strings.Contains(s, "U") {
		underline = true
		s = strings.ReplaceAll(s, "U", "")
	}
	if s == "IB" {
		s = "BI"
	}
	return s, underline
}

// IsUnicode reports whether the font draws UTF-16BE text through a subset.
func (f *Font) IsUnicode() bool {
	return f.Type == TypeTTF
}

// Symbolic reports whether the font has a builtin encoding.
func (f *Font) Symbolic() bool {
	return f.Family == "symbol" || f.Family == "zapfdingbats"
}

// Width returns the advance of r in thousandths of the font size.
func (f *Font) Width(r rune) int {
	if f.IsUnicode() {
		i := int(r) * 2
		if r >= 0 && i+1 < len(f.CW) {
			switch w := int(f.CW[i])<<8 | int(f.CW[i+1]); w {
			case 0:
			case zeroWidth:
				return 0
			default:
				return w
			}
		}
		if f.Desc.MissingWidth > 0 {
			return f.Desc.MissingWidth
		}
		return 500
	}
	return f.CharWidths[f.code(r)]
}

func (f *Font) code(r rune) byte {
	if f.Symbolic() && r >= 0 && r < 256 {
		return byte(r)
	}
	b, _ := text.WinAnsiByte(r)
	return b
}

// StringWidth returns the advance of s in thousandths of the font size.
func (f *Font) StringWidth(s string) int {
	w := 0
	for _, r := range s {
		w += f.Width(r)
	}
	return w
}

// Use records the codepoints of s as drawn. It is a no-op for fonts that
// are not subset.
func (f *Font) Use(s string) {
	if !f.IsUnicode() {
		return
	}
	for _, r := range s {
		f.subset[r] = struct{}{}
	}
}

// UseRange records the codepoints lo through hi as drawn.
func (f *Font) UseRange(lo, hi rune) {
	if !f.IsUnicode() {
		return
	}
	for r := lo; r <= hi; r++ {
		f.subset[r] = struct{}{}
	}
}

// Used reports whether r has been recorded for the subset.
func (f *Font) Used(r rune) bool {
	_, ok := f.subset[r]
	return ok
}

// SubsetRunes returns the recorded codepoints in ascending order.
func (f *Font) SubsetRunes() []rune {
	runes := make([]rune, 0, len(f.subset))
	for r := range f.subset {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return runes
}

// Encode converts s to the byte string drawn with the font: UTF-16BE for
// subset fonts and single-byte codes otherwise.
func (f *Font) Encode(s string) string {
	if f.IsUnicode() {
		return text.UTF16BE(s)
	}
	if f.Symbolic() {
		buf := make([]byte, 0, len(s))
		for _, r := range s {
			buf = append(buf, f.code(r))
		}
		return string(buf)
	}
	return text.ToWinAnsi(s)
}

// NewTTF builds a TTF font record from cached metrics and its width table.
// The subset starts with the codepoints 0 through 32.
func NewTTF(family, style, path string, m *Metrics, cw []byte) *Font {
	f := &Font{
		Type:         TypeTTF,
		Name:         m.Name,
		Family:       family,
		Style:        style,
		Desc:         m.Desc,
		Up:           m.Up,
		Ut:           m.Ut,
		CW:           cw,
		File:         path,
		OriginalSize: m.OriginalSize,
		subset:       make(map[rune]struct{}),
	}
	f.UseRange(0, 32)
	return f
}
