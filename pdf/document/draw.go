package document

import (
	"fmt"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/text"
)

// colorString formats a nonstroking color operator: one value is gray
// 0..255, three are RGB 0..255 and four are CMYK 0..100.
func colorString(values []float64) (string, error) {
	switch len(values) {
	case 1:
		return fmt.Sprintf("%.3F g", values[0]/255), nil
	case 3:
		return fmt.Sprintf("%.3F %.3F %.3F rg", values[0]/255, values[1]/255, values[2]/255), nil
	case 4:
		return fmt.Sprintf("%.3F %.3F %.3F %.3F k", values[0]/100, values[1]/100, values[2]/100, values[3]/100), nil
	}
	return "", fmt.Errorf("color needs 1, 3 or 4 components, got %d", len(values))
}

// SetDrawColor sets the stroking color.
func (d *Document) SetDrawColor(values ...float64) error {
	c, err := colorString(values)
	if err != nil {
		return err
	}
	c = strings.ToUpper(c)
	if c == d.drawColor {
		return nil
	}
	d.drawColor = c
	if d.page > 0 {
		d.out(c)
	}
	return nil
}

// SetFillColor sets the fill color.
func (d *Document) SetFillColor(values ...float64) error {
	c, err := colorString(values)
	if err != nil {
		return err
	}
	d.fillColor = c
	d.colorFlag = d.fillColor != d.textColor
	if d.page > 0 {
		d.out(c)
	}
	return nil
}

// SetTextColor sets the text color.
func (d *Document) SetTextColor(values ...float64) error {
	c, err := colorString(values)
	if err != nil {
		return err
	}
	d.textColor = c
	d.colorFlag = d.fillColor != d.textColor
	return nil
}

// SetLineWidth sets the stroke width in user units.
func (d *Document) SetLineWidth(width float64) {
	d.lineWidth = width
	if d.page > 0 {
		d.outf("%.2F w", width*d.k)
	}
}

// GetLineWidth returns the stroke width in user units.
func (d *Document) GetLineWidth() float64 {
	return d.lineWidth
}

// Line draws a line between two points.
func (d *Document) Line(x1, y1, x2, y2 float64) {
	d.outf("%.2F %.2F m %.2F %.2F l S", x1*d.k, (d.h-y1)*d.k, x2*d.k, (d.h-y2)*d.k)
}

// Rect draws a rectangle. style F fills, FD or DF fills and strokes and
// anything else strokes.
func (d *Document) Rect(x, y, w, h float64, style string) {
	op := "S"
	switch strings.ToUpper(style) {
	case "F":
		op = "f"
	case "FD", "DF":
		op = "B"
	}
	d.outf("%.2F %.2F %.2F %.2F re %s", x*d.k, (d.h-y)*d.k, w*d.k, -h*d.k, op)
}

// encodeText converts txt for the current font and records the
// codepoints drawn with subset fonts.
func (d *Document) encodeText(txt string) string {
	f := d.currentFont
	f.Use(txt)
	return text.Escape(f.Encode(txt))
}

// Text draws txt with its baseline starting at (x, y).
func (d *Document) Text(x, y float64, txt string) error {
	if d.terminated() {
		return nil
	}
	if d.currentFont == nil {
		return errNoFont()
	}
	s := text.ShowText(x*d.k, (d.h-y)*d.k, d.encodeText(txt))
	if d.underline && txt != "" {
		s += " " + d.doUnderline(x, y, txt)
	}
	if d.colorFlag {
		s = "q " + d.textColor + " " + s + " Q"
	}
	d.out(s)
	return nil
}

func (d *Document) doUnderline(x, y float64, txt string) string {
	f := d.currentFont
	w := d.GetStringWidth(txt) + d.ws*float64(strings.Count(txt, " "))
	return fmt.Sprintf("%.2F %.2F %.2F %.2F re f", x*d.k,
		(d.h-(y-float64(f.Up)/1000*d.fontSize))*d.k, w*d.k, -float64(f.Ut)/1000*d.fontSizePt)
}

// AddLink creates an internal link target and returns its id. The target
// is set with SetLink.
func (d *Document) AddLink() int {
	d.links = append(d.links, linkTarget{})
	return len(d.links)
}

// SetLink points link id at ordinate y of page p. A negative y means the
// cursor ordinate and a negative p the current page.
func (d *Document) SetLink(id int, y float64, p int) {
	if id < 1 || id > len(d.links) {
		return
	}
	if y < 0 {
		y = d.y
	}
	if p < 0 {
		p = d.page
	}
	d.links[id-1] = linkTarget{page: p, y: y}
}

// Link makes a rectangular area of the current page clickable.
func (d *Document) Link(x, y, w, h float64, link Link) {
	if link.IsZero() || d.page == 0 || d.terminated() {
		return
	}
	pg := d.pages[d.page-1]
	pg.links = append(pg.links, pageLink{x: x * d.k, y: d.hPt - y*d.k, w: w * d.k, h: h * d.k, link: link})
}
