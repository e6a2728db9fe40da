package document

import (
	"fmt"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/text"
)

// breakPage starts a new page when a block of height h would cross the
// break trigger. The cursor abscissa and word spacing survive the break.
func (d *Document) breakPage(h float64) error {
	if d.y+h <= d.pageBreakTrigger || d.inHeader || d.inFooter || !d.AcceptPageBreak() {
		return nil
	}
	x := d.x
	ws := d.ws
	if ws > 0 {
		d.ws = 0
		d.out("0 Tw")
	}
	size := d.curPageSize
	if err := d.addPage(d.curOrientation, &size); err != nil {
		return err
	}
	d.x = x
	if ws > 0 {
		d.ws = ws
		d.out(text.WordSpacing(ws * d.k))
	}
	return nil
}

// Cell draws a rectangular area with optional borders, background and a
// single line of text. A zero width extends the cell to the right margin.
// border is empty or "0" for none, "1" for a frame, or any of L, T, R and
// B. After the call the cursor moves right (ln 0), to the start of the
// next line (ln 1) or below the cell (ln 2). align is L, C or R.
func (d *Document) Cell(w, h float64, txt, border string, ln int, align string, fill bool, link Link) error {
	if d.terminated() {
		return nil
	}
	if txt != "" && d.currentFont == nil {
		return errNoFont()
	}
	if err := d.breakPage(h); err != nil {
		return err
	}
	k := d.k
	if w == 0 {
		w = d.w - d.rMargin - d.x
	}

	var s strings.Builder
	if fill || border == "1" {
		op := "S"
		if fill {
			op = "f"
			if border == "1" {
				op = "B"
			}
		}
		fmt.Fprintf(&s, "%.2F %.2F %.2F %.2F re %s ", d.x*k, (d.h-d.y)*k, w*k, -h*k, op)
	}
	if border != "1" {
		x, y := d.x, d.y
		if strings.Contains(border, "L") {
			fmt.Fprintf(&s, "%.2F %.2F m %.2F %.2F l S ", x*k, (d.h-y)*k, x*k, (d.h-(y+h))*k)
		}
		if strings.Contains(border, "T") {
			fmt.Fprintf(&s, "%.2F %.2F m %.2F %.2F l S ", x*k, (d.h-y)*k, (x+w)*k, (d.h-y)*k)
		}
		if strings.Contains(border, "R") {
			fmt.Fprintf(&s, "%.2F %.2F m %.2F %.2F l S ", (x+w)*k, (d.h-y)*k, (x+w)*k, (d.h-(y+h))*k)
		}
		if strings.Contains(border, "B") {
			fmt.Fprintf(&s, "%.2F %.2F m %.2F %.2F l S ", x*k, (d.h-(y+h))*k, (x+w)*k, (d.h-(y+h))*k)
		}
	}

	if txt != "" {
		width := d.GetStringWidth(txt)
		var dx float64
		switch align {
		case "R":
			dx = w - d.cMargin - width
		case "C":
			dx = (w - width) / 2
		default:
			dx = d.cMargin
		}
		if d.colorFlag {
			s.WriteString("q " + d.textColor + " ")
		}
		baseline := d.y + .5*h + .3*d.fontSize
		if d.ws != 0 && d.currentFont.IsUnicode() {
			// Tw does not apply to two-byte codes; adjust before each space.
			d.currentFont.Use(txt)
			space := text.Escape(text.UTF16BE(" "))
			adj := int(-(d.ws * k) * 1000 / d.fontSizePt)
			fmt.Fprintf(&s, "BT 0 Tw %.2F %.2F Td [", (d.x+dx)*k, (d.h-baseline)*k)
			bits := strings.Split(txt, " ")
			for i, bit := range bits {
				fmt.Fprintf(&s, "(%s) ", text.Escape(text.UTF16BE(bit)))
				if i+1 < len(bits) {
					fmt.Fprintf(&s, "%d(%s) ", adj, space)
				}
			}
			s.WriteString("] TJ ET")
		} else {
			s.WriteString(text.ShowText((d.x+dx)*k, (d.h-baseline)*k, d.encodeText(txt)))
		}
		if d.underline {
			s.WriteString(" " + d.doUnderline(d.x+dx, baseline, txt))
		}
		if d.colorFlag {
			s.WriteString(" Q")
		}
		if !link.IsZero() {
			d.Link(d.x+dx, d.y+.5*h-.5*d.fontSize, width, d.fontSize, link)
		}
	}
	if s.Len() > 0 {
		d.out(s.String())
	}

	d.lastH = h
	if ln > 0 {
		d.y += h
		if ln == 1 {
			d.x = d.lMargin
		}
	} else {
		d.x += w
	}
	return nil
}

// multiCellBorders returns the borders of the first line and of the
// following lines.
func multiCellBorders(border string) (first, rest string) {
	switch border {
	case "", "0":
		return "", ""
	case "1":
		return "LRT", "LR"
	}
	if strings.Contains(border, "L") {
		rest += "L"
	}
	if strings.Contains(border, "R") {
		rest += "R"
	}
	first = rest
	if strings.Contains(border, "T") {
		first += "T"
	}
	return first, rest
}

func (d *Document) resetWordSpacing() {
	if d.ws > 0 {
		d.ws = 0
		d.out("0 Tw")
	}
}

// MultiCell draws text wrapped at width w, one cell of height h per line.
// Lines break at spaces, at explicit newlines and, for words longer than
// the cell, between characters. align J justifies every line but the
// last. With maxLine > 0 drawing stops after that many lines and the
// remaining text is returned.
func (d *Document) MultiCell(w, h float64, txt, border, align string, fill bool, maxLine int) (string, error) {
	if d.terminated() {
		return "", nil
	}
	if d.currentFont == nil {
		return "", errNoFont()
	}
	f := d.currentFont
	if w == 0 {
		w = d.w - d.rMargin - d.x
	}
	wmax := w - 2*d.cMargin
	s := []rune(strings.TrimRight(strings.ReplaceAll(txt, "\r", ""), "\n"))
	nb := len(s)

	b, b2 := multiCellBorders(border)
	sep, i, j, ns, nl := -1, 0, 0, 0, 1
	var l, ls float64

	cell := func(from, to int, borders string) error {
		return d.Cell(w, h, string(s[from:to]), borders, 2, align, fill, Link{})
	}

	for i < nb {
		c := s[i]
		if c == '\n' {
			d.resetWordSpacing()
			if err := cell(j, i, b); err != nil {
				return "", err
			}
			i++
			sep, j, l, ns = -1, i, 0, 0
			nl++
			if border != "" && nl == 2 {
				b = b2
			}
			if maxLine > 0 && nl > maxLine {
				return string(s[i:]), nil
			}
			continue
		}
		if c == ' ' {
			sep = i
			ls = l
			ns++
		}
		l += float64(f.Width(c)) * d.fontSize / 1000
		if l <= wmax {
			i++
			continue
		}

		if sep == -1 {
			if i == j {
				i++
			}
			d.resetWordSpacing()
			if err := cell(j, i, b); err != nil {
				return "", err
			}
		} else {
			if align == "J" {
				d.ws = 0
				if ns > 1 {
					d.ws = (wmax - ls) / float64(ns-1)
				}
				d.out(text.WordSpacing(d.ws * d.k))
			}
			if err := cell(j, sep, b); err != nil {
				return "", err
			}
			i = sep + 1
		}
		sep, j, l, ns = -1, i, 0, 0
		nl++
		if border != "" && nl == 2 {
			b = b2
		}
		if maxLine > 0 && nl > maxLine {
			d.resetWordSpacing()
			return string(s[i:]), nil
		}
	}

	d.resetWordSpacing()
	if border == "1" || strings.Contains(border, "B") {
		b += "B"
	}
	if err := cell(j, i, b); err != nil {
		return "", err
	}
	d.x = d.lMargin
	return "", nil
}

// Write draws flowing text starting at the cursor, wrapping at the right
// margin and continuing from the left margin. The cursor ends after the
// last character.
func (d *Document) Write(h float64, txt string, link Link) error {
	if d.terminated() {
		return nil
	}
	if d.currentFont == nil {
		return errNoFont()
	}
	f := d.currentFont
	w := d.w - d.rMargin - d.x
	wmax := w - 2*d.cMargin
	s := []rune(strings.ReplaceAll(txt, "\r", ""))
	nb := len(s)
	if nb == 1 && s[0] == ' ' {
		d.x += d.GetStringWidth(" ")
		return nil
	}

	nextLine := func() {
		d.x = d.lMargin
		w = d.w - d.rMargin - d.x
		wmax = w - 2*d.cMargin
	}
	cell := func(from, to int) error {
		return d.Cell(w, h, string(s[from:to]), "", 2, "", false, link)
	}

	sep, i, j, nl := -1, 0, 0, 1
	var l float64
	for i < nb {
		c := s[i]
		if c == '\n' {
			if err := cell(j, i); err != nil {
				return err
			}
			i++
			sep, j, l = -1, i, 0
			if nl == 1 {
				nextLine()
			}
			nl++
			continue
		}
		if c == ' ' {
			sep = i
		}
		l += float64(f.Width(c)) * d.fontSize / 1000
		if l <= wmax {
			i++
			continue
		}

		if sep == -1 {
			if d.x > d.lMargin {
				// The word does not fit after text already on the line;
				// retry it from the start of the next line.
				nextLine()
				d.y += h
				i, l = j, 0
				nl++
				continue
			}
			if i == j {
				i++
			}
			if err := cell(j, i); err != nil {
				return err
			}
		} else {
			if err := cell(j, sep); err != nil {
				return err
			}
			i = sep + 1
		}
		sep, j, l = -1, i, 0
		if nl == 1 {
			nextLine()
		}
		nl++
	}

	if i != j {
		return d.Cell(l, h, string(s[j:]), "", 0, "", false, link)
	}
	return nil
}

// CalculateHeight estimates the height taken by text wrapped at
// cellWidth - 1 with lines of lineHeight. Lines break after the last space
// or hyphen; words without one are split and hyphenated.
func (d *Document) CalculateHeight(txt string, cellWidth, lineHeight float64) float64 {
	limit := cellWidth - 1
	lines := 0
	for _, para := range text.SplitLines(txt) {
		sub := []rune(strings.TrimSpace(para))
		for n := 1; n <= len(sub); n++ {
			if d.GetStringWidth(string(sub[:n])) < limit {
				continue
			}
			next := n
			if pos := lastBreak(sub[:n]); pos > 0 {
				next = pos + 1
			}
			lines++
			sub = []rune(strings.TrimLeft(string(sub[next:]), " "))
			n = 0
		}
		if len(sub) > 0 {
			lines++
		}
	}
	return float64(lines) * lineHeight
}

func lastBreak(s []rune) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == '-' {
			return i
		}
	}
	return -1
}
