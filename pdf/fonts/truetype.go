package fonts

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// TrueTypeFont is a parsed TrueType font program.
type TrueTypeFont struct {
	data   []byte
	tables map[string]tableEntry
	sf     *sfnt.Font

	unitsPerEm  int
	numGlyphs   int
	numHMetrics int
	locaLong    bool
	weightClass int
	typoAscent  int
	typoDescent int

	cmap     map[rune]uint16
	advances []uint16
}

type tableEntry struct {
	offset int
	length int
}

// ppem scales sfnt results to glyph space units (1/1000 em) in 26.6
// fixed point.
var ppem = fixed.I(1000)

// ParseTrueType parses a TrueType font program. The program must carry
// glyf outlines; CFF flavored OpenType is not supported.
func ParseTrueType(data []byte) (*TrueTypeFont, error) {
	if len(data) < 12 {
		return nil, ErrInvalidFont
	}
	switch string(data[0:4]) {
	case "\x00\x01\x00\x00", "true":
	case "OTTO":
		return nil, fmt.Errorf("%w: CFF outlines", ErrUnsupportedFormat)
	default:
		return nil, ErrUnsupportedFormat
	}

	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}

	f := &TrueTypeFont{
		data: data,
		sf:   sf,
		cmap: make(map[rune]uint16),
	}
	if err := f.parseTables(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *TrueTypeFont) parseTables() error {
	numTables := int(binary.BigEndian.Uint16(f.data[4:6]))

	f.tables = make(map[string]tableEntry)
	offset := 12
	for i := 0; i < numTables; i++ {
		if offset+16 > len(f.data) {
			return fmt.Errorf("%w: table directory truncated", ErrInvalidFont)
		}
		tag := string(f.data[offset : offset+4])
		e := tableEntry{
			offset: int(binary.BigEndian.Uint32(f.data[offset+8 : offset+12])),
			length: int(binary.BigEndian.Uint32(f.data[offset+12 : offset+16])),
		}
		if e.offset+e.length > len(f.data) {
			return fmt.Errorf("%w: table %q out of bounds", ErrInvalidFont, tag)
		}
		f.tables[tag] = e
		offset += 16
	}

	for _, tag := range []string{"head", "hhea", "maxp", "hmtx", "cmap", "loca", "glyf"} {
		if _, ok := f.tables[tag]; !ok {
			return fmt.Errorf("%w: missing %s table", ErrInvalidFont, tag)
		}
	}

	if err := f.parseHead(); err != nil {
		return err
	}
	if err := f.parseHhea(); err != nil {
		return err
	}
	if err := f.parseMaxp(); err != nil {
		return err
	}
	if err := f.parseCmap(); err != nil {
		return err
	}
	if err := f.parseHmtx(); err != nil {
		return err
	}
	f.parseOS2()
	return nil
}

func (f *TrueTypeFont) table(tag string) []byte {
	e, ok := f.tables[tag]
	if !ok {
		return nil
	}
	return f.data[e.offset : e.offset+e.length]
}

func (f *TrueTypeFont) parseHead() error {
	d := f.table("head")
	if len(d) < 54 {
		return fmt.Errorf("%w: head table too short", ErrInvalidFont)
	}
	f.unitsPerEm = int(binary.BigEndian.Uint16(d[18:20]))
	if f.unitsPerEm == 0 {
		return fmt.Errorf("%w: zero unitsPerEm", ErrInvalidFont)
	}
	f.locaLong = binary.BigEndian.Uint16(d[50:52]) != 0
	return nil
}

func (f *TrueTypeFont) parseHhea() error {
	d := f.table("hhea")
	if len(d) < 36 {
		return fmt.Errorf("%w: hhea table too short", ErrInvalidFont)
	}
	f.numHMetrics = int(binary.BigEndian.Uint16(d[34:36]))
	if f.numHMetrics == 0 {
		return fmt.Errorf("%w: no horizontal metrics", ErrInvalidFont)
	}
	return nil
}

func (f *TrueTypeFont) parseMaxp() error {
	d := f.table("maxp")
	if len(d) < 6 {
		return fmt.Errorf("%w: maxp table too short", ErrInvalidFont)
	}
	f.numGlyphs = int(binary.BigEndian.Uint16(d[4:6]))
	return nil
}

func (f *TrueTypeFont) parseCmap() error {
	d := f.table("cmap")
	if len(d) < 4 {
		return fmt.Errorf("%w: cmap table too short", ErrInvalidFont)
	}
	numTables := int(binary.BigEndian.Uint16(d[2:4]))

	// Prefer Windows Unicode full repertoire, then BMP, then any Unicode.
	best, bestRank := -1, 0
	for i := 0; i < numTables && 4+i*8+8 <= len(d); i++ {
		platformID := binary.BigEndian.Uint16(d[4+i*8 : 4+i*8+2])
		encodingID := binary.BigEndian.Uint16(d[4+i*8+2 : 4+i*8+4])
		offset := int(binary.BigEndian.Uint32(d[4+i*8+4 : 4+i*8+8]))

		rank := 0
		switch {
		case platformID == 3 && encodingID == 10:
			rank = 4
		case platformID == 3 && encodingID == 1:
			rank = 3
		case platformID == 0 && (encodingID == 3 || encodingID == 4):
			rank = 2
		case platformID == 0:
			rank = 1
		}
		if rank > bestRank {
			best, bestRank = offset, rank
		}
	}
	if best < 0 || best+4 > len(d) {
		return fmt.Errorf("%w: no Unicode cmap", ErrInvalidFont)
	}

	subtable := d[best:]
	switch format := binary.BigEndian.Uint16(subtable[0:2]); format {
	case 4:
		return f.parseCmapFormat4(subtable)
	case 12:
		return f.parseCmapFormat12(subtable)
	default:
		return fmt.Errorf("%w: cmap format %d", ErrUnsupportedTable, format)
	}
}

func (f *TrueTypeFont) parseCmapFormat4(data []byte) error {
	if len(data) < 14 {
		return ErrInvalidFont
	}

	segCount := int(binary.BigEndian.Uint16(data[6:8])) / 2
	if len(data) < 16+segCount*8 {
		return fmt.Errorf("%w: cmap format 4 truncated", ErrInvalidFont)
	}

	endCodes := data[14 : 14+segCount*2]
	startCodes := data[16+segCount*2 : 16+segCount*4]
	idDeltas := data[16+segCount*4 : 16+segCount*6]
	idRangeOffsets := data[16+segCount*6:]

	for i := 0; i < segCount; i++ {
		endCode := int(binary.BigEndian.Uint16(endCodes[i*2 : i*2+2]))
		startCode := int(binary.BigEndian.Uint16(startCodes[i*2 : i*2+2]))
		idDelta := int(int16(binary.BigEndian.Uint16(idDeltas[i*2 : i*2+2])))
		idRangeOffset := int(binary.BigEndian.Uint16(idRangeOffsets[i*2 : i*2+2]))

		for c := startCode; c <= endCode && c != 0xFFFF; c++ {
			var glyphID uint16
			if idRangeOffset == 0 {
				glyphID = uint16((c + idDelta) & 0xFFFF)
			} else {
				at := i*2 + idRangeOffset + (c-startCode)*2
				if at+2 > len(idRangeOffsets) {
					continue
				}
				glyphID = binary.BigEndian.Uint16(idRangeOffsets[at : at+2])
				if glyphID != 0 {
					glyphID = uint16((int(glyphID) + idDelta) & 0xFFFF)
				}
			}
			if glyphID != 0 && int(glyphID) < f.numGlyphs {
				f.cmap[rune(c)] = glyphID
			}
		}
	}
	return nil
}

func (f *TrueTypeFont) parseCmapFormat12(data []byte) error {
	if len(data) < 16 {
		return ErrInvalidFont
	}

	numGroups := int(binary.BigEndian.Uint32(data[12:16]))
	for i := 0; i < numGroups && 16+i*12+12 <= len(data); i++ {
		startCharCode := binary.BigEndian.Uint32(data[16+i*12 : 16+i*12+4])
		endCharCode := binary.BigEndian.Uint32(data[16+i*12+4 : 16+i*12+8])
		startGlyphID := binary.BigEndian.Uint32(data[16+i*12+8 : 16+i*12+12])
		if endCharCode > 0x10FFFF || endCharCode < startCharCode {
			continue
		}

		for c := startCharCode; c <= endCharCode; c++ {
			g := startGlyphID + (c - startCharCode)
			if g != 0 && int(g) < f.numGlyphs {
				f.cmap[rune(c)] = uint16(g)
			}
		}
	}
	return nil
}

func (f *TrueTypeFont) parseHmtx() error {
	d := f.table("hmtx")
	if len(d) < f.numHMetrics*4 {
		return fmt.Errorf("%w: hmtx table too short", ErrInvalidFont)
	}

	f.advances = make([]uint16, f.numGlyphs)
	for i := 0; i < f.numGlyphs; i++ {
		m := i
		if m >= f.numHMetrics {
			m = f.numHMetrics - 1
		}
		f.advances[i] = binary.BigEndian.Uint16(d[m*4 : m*4+2])
	}
	return nil
}

func (f *TrueTypeFont) parseOS2() {
	d := f.table("OS/2")
	if len(d) < 72 {
		return
	}
	f.weightClass = int(binary.BigEndian.Uint16(d[4:6]))
	f.typoAscent = int(int16(binary.BigEndian.Uint16(d[68:70])))
	f.typoDescent = int(int16(binary.BigEndian.Uint16(d[70:72])))
}

// NumGlyphs returns the number of glyphs in the font.
func (f *TrueTypeFont) NumGlyphs() int { return f.numGlyphs }

// GlyphIndex returns the glyph mapped to r.
func (f *TrueTypeFont) GlyphIndex(r rune) (uint16, bool) {
	g, ok := f.cmap[r]
	return g, ok
}

// MaxUni returns the highest mapped codepoint of the Basic Multilingual
// Plane.
func (f *TrueTypeFont) MaxUni() rune {
	var max rune
	for r := range f.cmap {
		if r <= 0xFFFF && r > max {
			max = r
		}
	}
	return max
}

func (f *TrueTypeFont) scale(v int) int {
	return int(math.Round(float64(v) * 1000 / float64(f.unitsPerEm)))
}

func round26_6(v fixed.Int26_6) int {
	return int(math.Round(float64(v) / 64))
}

// WidthTable returns the advance of every codepoint from 0 to MaxUni,
// two bytes big-endian each, in glyph space units.
func (f *TrueTypeFont) WidthTable() []byte {
	maxUni := f.MaxUni()
	cw := make([]byte, 2*(int(maxUni)+1))
	for r, g := range f.cmap {
		if r > maxUni {
			continue
		}
		w := f.scale(int(f.advances[g]))
		if w == 0 {
			w = zeroWidth
		} else if w >= zeroWidth {
			w = zeroWidth - 1
		}
		cw[2*r] = byte(w >> 8)
		cw[2*r+1] = byte(w)
	}
	return cw
}

// Name returns the full font name with spaces and parentheses removed,
// falling back to the PostScript name.
func (f *TrueTypeFont) Name() string {
	var b sfnt.Buffer
	for _, id := range []sfnt.NameID{sfnt.NameIDFull, sfnt.NameIDPostScript} {
		name, err := f.sf.Name(&b, id)
		if err != nil || name == "" {
			continue
		}
		name = strings.Map(func(r rune) rune {
			switch r {
			case ' ', '(', ')':
				return -1
			}
			return r
		}, name)
		if name != "" {
			return name
		}
	}
	return ""
}

// Metrics extracts the descriptor values of the font.
func (f *TrueTypeFont) Metrics() (*Metrics, error) {
	var b sfnt.Buffer

	vm, err := f.sf.Metrics(&b, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics: %v", ErrInvalidFont, err)
	}
	bounds, err := f.sf.Bounds(&b, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("%w: bounds: %v", ErrInvalidFont, err)
	}
	missing, err := f.sf.GlyphAdvance(&b, 0, ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("%w: glyph 0 advance: %v", ErrInvalidFont, err)
	}

	m := &Metrics{
		Name: f.Name(),
		Type: TypeTTF,
	}
	d := &m.Desc

	if f.typoAscent != 0 || f.typoDescent != 0 {
		d.Ascent = f.scale(f.typoAscent)
		d.Descent = f.scale(f.typoDescent)
	} else {
		d.Ascent = round26_6(vm.Ascent)
		d.Descent = -round26_6(vm.Descent)
	}
	d.CapHeight = round26_6(vm.CapHeight)
	if d.CapHeight == 0 {
		d.CapHeight = d.Ascent
	}
	// sfnt reports bounds with the Y axis pointing down.
	d.FontBBox = [4]int{
		round26_6(bounds.Min.X), -round26_6(bounds.Max.Y),
		round26_6(bounds.Max.X), -round26_6(bounds.Min.Y),
	}
	d.MissingWidth = round26_6(missing)

	d.Flags = 4
	if post := f.sf.PostTable(); post != nil {
		d.ItalicAngle = post.ItalicAngle
		m.Up = f.scale(int(post.UnderlinePosition))
		m.Ut = f.scale(int(post.UnderlineThickness))
		if post.ItalicAngle != 0 {
			d.Flags |= 64
		}
		if post.IsFixedPitch {
			d.Flags |= 1
		}
	}
	if f.weightClass >= 600 {
		d.Flags |= 262144
	}
	if _, ok := f.tables["OS/2"]; ok {
		d.StemV = 50 + int(math.Pow(float64(f.weightClass)/65, 2))
	} else {
		d.StemV = 70
	}
	return m, nil
}
