package fonts

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Composite glyph flags.
const (
	argsAreWords    = 0x0001
	weHaveAScale    = 0x0008
	moreComponents  = 0x0020
	weHaveXYScale   = 0x0040
	weHaveTwoByTwo  = 0x0080
	compositeHeader = 10
)

// SubsetResult is a subset font program and the mapping used to address
// its glyphs.
type SubsetResult struct {
	Program []byte
	// CodeToGlyph maps each drawn codepoint to its glyph in Program.
	CodeToGlyph map[rune]uint16
	// MaxUni is the highest BMP codepoint mapped by the source font.
	MaxUni    rune
	NumGlyphs int
}

// Subset parses a TrueType program and extracts the glyphs of runes.
func Subset(program []byte, runes []rune) (*SubsetResult, error) {
	f, err := ParseTrueType(program)
	if err != nil {
		return nil, err
	}
	return f.Subset(runes)
}

// Subset builds a font program holding glyph 0, the glyphs mapped by
// runes and every component they reference. Glyphs are renumbered
// compactly in ascending order of their original index.
func (f *TrueTypeFont) Subset(runes []rune) (*SubsetResult, error) {
	used := map[uint16]bool{0: true}
	for _, r := range runes {
		if r == 0 {
			continue
		}
		if g, ok := f.cmap[r]; ok {
			used[g] = true
		}
	}
	if err := f.closure(used); err != nil {
		return nil, err
	}

	order := make([]uint16, 0, len(used))
	for g := range used {
		order = append(order, g)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	remap := make(map[uint16]uint16, len(order))
	for i, g := range order {
		remap[g] = uint16(i)
	}

	glyf, loca, err := f.rebuildGlyfLoca(order, remap)
	if err != nil {
		return nil, err
	}

	w := &ttWriter{}
	w.AddTable("glyf", glyf)
	w.AddTable("loca", loca)
	w.AddTable("hmtx", f.rebuildHmtx(order))

	head := clone(f.table("head"))
	binary.BigEndian.PutUint16(head[50:52], 1)
	w.AddTable("head", head)

	hhea := clone(f.table("hhea"))
	binary.BigEndian.PutUint16(hhea[34:36], uint16(len(order)))
	w.AddTable("hhea", hhea)

	maxp := clone(f.table("maxp"))
	binary.BigEndian.PutUint16(maxp[4:6], uint16(len(order)))
	w.AddTable("maxp", maxp)

	for _, tag := range []string{"OS/2", "name", "cvt ", "fpgm", "prep", "gasp"} {
		if d := f.table(tag); d != nil {
			w.AddTable(tag, d)
		}
	}

	res := &SubsetResult{
		Program:     w.Bytes(),
		CodeToGlyph: make(map[rune]uint16),
		MaxUni:      f.MaxUni(),
		NumGlyphs:   len(order),
	}
	for _, r := range runes {
		if r == 0 {
			continue
		}
		if g, ok := f.cmap[r]; ok {
			res.CodeToGlyph[r] = remap[g]
		}
	}
	return res, nil
}

// CIDToGIDMap returns the 65536-entry big-endian map from CID (the BMP
// codepoint) to subset glyph.
func (s *SubsetResult) CIDToGIDMap() []byte {
	m := make([]byte, 256*256*2)
	for r, g := range s.CodeToGlyph {
		if r > 0xFFFF {
			continue
		}
		m[2*r] = byte(g >> 8)
		m[2*r+1] = byte(g)
	}
	return m
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func (f *TrueTypeFont) glyphRange(g uint16) (int, int, error) {
	loca := f.table("loca")
	var start, end int
	if f.locaLong {
		if int(g)*4+8 > len(loca) {
			return 0, 0, fmt.Errorf("%w: loca too short for glyph %d", ErrInvalidFont, g)
		}
		start = int(binary.BigEndian.Uint32(loca[int(g)*4:]))
		end = int(binary.BigEndian.Uint32(loca[int(g)*4+4:]))
	} else {
		if int(g)*2+4 > len(loca) {
			return 0, 0, fmt.Errorf("%w: loca too short for glyph %d", ErrInvalidFont, g)
		}
		start = int(binary.BigEndian.Uint16(loca[int(g)*2:])) * 2
		end = int(binary.BigEndian.Uint16(loca[int(g)*2+2:])) * 2
	}
	if start > end || end > len(f.table("glyf")) {
		return 0, 0, fmt.Errorf("%w: glyph %d out of bounds", ErrInvalidFont, g)
	}
	return start, end, nil
}

// components walks the component records of a composite glyph, calling fn
// with the offset of each component glyph index.
func components(glyph []byte, fn func(at int)) {
	if len(glyph) < compositeHeader || int16(binary.BigEndian.Uint16(glyph[0:2])) >= 0 {
		return
	}
	at := compositeHeader
	for at+4 <= len(glyph) {
		flags := binary.BigEndian.Uint16(glyph[at : at+2])
		fn(at + 2)

		at += 4
		if flags&argsAreWords != 0 {
			at += 4
		} else {
			at += 2
		}
		switch {
		case flags&weHaveAScale != 0:
			at += 2
		case flags&weHaveXYScale != 0:
			at += 4
		case flags&weHaveTwoByTwo != 0:
			at += 8
		}
		if flags&moreComponents == 0 {
			return
		}
	}
}

func (f *TrueTypeFont) closure(used map[uint16]bool) error {
	glyf := f.table("glyf")
	queue := make([]uint16, 0, len(used))
	for g := range used {
		queue = append(queue, g)
	}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		if int(g) >= f.numGlyphs {
			continue
		}
		start, end, err := f.glyphRange(g)
		if err != nil {
			return err
		}
		glyph := glyf[start:end]
		components(glyph, func(at int) {
			sub := binary.BigEndian.Uint16(glyph[at : at+2])
			if !used[sub] && int(sub) < f.numGlyphs {
				used[sub] = true
				queue = append(queue, sub)
			}
		})
	}
	return nil
}

func (f *TrueTypeFont) rebuildGlyfLoca(order []uint16, remap map[uint16]uint16) ([]byte, []byte, error) {
	glyf := f.table("glyf")
	var newGlyf, newLoca bytes.Buffer

	offset := uint32(0)
	for _, g := range order {
		binary.Write(&newLoca, binary.BigEndian, offset)
		start, end, err := f.glyphRange(g)
		if err != nil {
			return nil, nil, err
		}
		glyph := clone(glyf[start:end])
		components(glyph, func(at int) {
			sub := binary.BigEndian.Uint16(glyph[at : at+2])
			binary.BigEndian.PutUint16(glyph[at:at+2], remap[sub])
		})
		if len(glyph)%2 != 0 {
			glyph = append(glyph, 0)
		}
		newGlyf.Write(glyph)
		offset += uint32(len(glyph))
	}
	binary.Write(&newLoca, binary.BigEndian, offset)
	return newGlyf.Bytes(), newLoca.Bytes(), nil
}

// rebuildHmtx writes one long metric per kept glyph.
func (f *TrueTypeFont) rebuildHmtx(order []uint16) []byte {
	hmtx := f.table("hmtx")
	var out bytes.Buffer
	for _, g := range order {
		var lsb uint16
		if int(g) < f.numHMetrics {
			lsb = binary.BigEndian.Uint16(hmtx[int(g)*4+2:])
		} else if at := f.numHMetrics*4 + (int(g)-f.numHMetrics)*2; at+2 <= len(hmtx) {
			lsb = binary.BigEndian.Uint16(hmtx[at:])
		}
		binary.Write(&out, binary.BigEndian, f.advances[g])
		binary.Write(&out, binary.BigEndian, lsb)
	}
	return out.Bytes()
}

// ttWriter assembles an sfnt container from tables.
type ttWriter struct {
	tables []tableData
}

type tableData struct {
	tag  string
	data []byte
}

func (w *ttWriter) AddTable(tag string, data []byte) {
	w.tables = append(w.tables, tableData{tag, data})
}

// Bytes returns the font with tables sorted by tag, 4-byte aligned, and
// the head checksum adjustment set.
func (w *ttWriter) Bytes() []byte {
	sort.Slice(w.tables, func(i, j int) bool { return w.tables[i].tag < w.tables[j].tag })

	numTables := len(w.tables)
	entrySelector := 0
	for (1 << (entrySelector + 1)) <= numTables {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16
	rangeShift := numTables*16 - searchRange

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x01, 0x00, 0x00})
	binary.Write(&buf, binary.BigEndian, uint16(numTables))
	binary.Write(&buf, binary.BigEndian, uint16(searchRange))
	binary.Write(&buf, binary.BigEndian, uint16(entrySelector))
	binary.Write(&buf, binary.BigEndian, uint16(rangeShift))

	headAt := -1
	offset := 12 + 16*numTables
	for _, t := range w.tables {
		if t.tag == "head" {
			headAt = offset
			// checkSumAdjustment is excluded from the table checksum.
			binary.BigEndian.PutUint32(t.data[8:12], 0)
		}
		buf.WriteString(t.tag)
		binary.Write(&buf, binary.BigEndian, calcChecksum(t.data))
		binary.Write(&buf, binary.BigEndian, uint32(offset))
		binary.Write(&buf, binary.BigEndian, uint32(len(t.data)))
		offset += (len(t.data) + 3) &^ 3
	}
	for _, t := range w.tables {
		buf.Write(t.data)
		for pad := (4 - len(t.data)%4) % 4; pad > 0; pad-- {
			buf.WriteByte(0)
		}
	}

	out := buf.Bytes()
	if headAt >= 0 {
		binary.BigEndian.PutUint32(out[headAt+8:], 0xB1B0AFBA-calcChecksum(out))
	}
	return out
}

func calcChecksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		if i+4 <= len(data) {
			sum += binary.BigEndian.Uint32(data[i : i+4])
		} else {
			var tail [4]byte
			copy(tail[:], data[i:])
			sum += binary.BigEndian.Uint32(tail[:])
		}
	}
	return sum
}
