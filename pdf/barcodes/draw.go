package barcodes

import (
	"github.com/georgepadayatti/csfpdf/pdf/layout"
)

// Default bar geometry in user units.
const (
	DefaultEANBarWidth     = 0.35
	DefaultEANHeight       = 16
	DefaultCode39BarWidth  = 0.4
	DefaultCode39Height    = 20
	code39TextOffset       = 4
	eanGuardExtension      = 1
	code39WideGapThreshold = 0.29
)

// Drawer is the drawing surface barcodes are painted on. A document
// satisfies it.
type Drawer interface {
	Rect(x, y, w, h float64, style string)
	Cell(w, h float64, txt, border string, ln int, align string, fill bool, link layout.Link) error
	SetXY(x, y float64)
	Text(x, y float64, txt string) error
	SetFont(family, style string, size float64) error
	GetUserFontSize() float64
}

// Guard bars drawn below the others.
var eanGuards = map[int]bool{0: true, 2: true, 46: true, 48: true}

// EAN13 draws an EAN-13 barcode with its digits printed underneath. w is
// the module width and h the bar height.
func EAN13(d Drawer, x, y float64, code string, w, h float64) error {
	bc, err := EncodeEAN13(code)
	if err != nil {
		return err
	}
	return drawEAN(d, bc, x, y, w, h)
}

// UPCA draws a UPC-A barcode.
func UPCA(d Drawer, x, y float64, code string, w, h float64) error {
	bc, err := EncodeUPCA(code)
	if err != nil {
		return err
	}
	return drawEAN(d, bc, x, y, w, h)
}

func drawEAN(d Drawer, bc *Barcode, x, y, w, h float64) error {
	for i, bar := range bc.Encoded {
		if !bar {
			continue
		}
		ext := 0.0
		if eanGuards[i] {
			ext = eanGuardExtension
		}
		d.Rect(x+float64(i)*w, y, w, h+ext, "F")
	}

	spc := 5 * w
	lh := d.GetUserFontSize()
	parts := []struct {
		x, w float64
		txt  string
	}{
		{x - spc*1.5, spc, bc.Data[:1]},
		{x + spc, spc * 8, bc.Data[1:7]},
		{x + spc*11, spc * 8, bc.Data[7:]},
	}
	for _, p := range parts {
		d.SetXY(p.x, y+h)
		if err := d.Cell(p.w, lh, p.txt, "", 1, "C", false, layout.Link{}); err != nil {
			return err
		}
	}
	return nil
}

// EAN128 draws a Code 128 barcode scaled to the total width w.
func EAN128(d Drawer, x, y float64, code string, w, h float64) error {
	bc, err := EncodeCode128(code)
	if err != nil {
		return err
	}
	module := w / float64(bc.Width())
	for i := 0; i < len(bc.Encoded); {
		if !bc.Encoded[i] {
			i++
			continue
		}
		start := i
		for i < len(bc.Encoded) && bc.Encoded[i] {
			i++
		}
		d.Rect(x+float64(start)*module, y, float64(i-start)*module, h, "F")
	}
	return nil
}

// Code39 draws a Code 39 barcode with its text printed underneath in
// Arial 10. w is the narrow module width. A zero opts.Gap is derived from
// w.
func Code39(d Drawer, x, y float64, code string, opts Code39Options, w, h float64) error {
	if opts.Gap == 0 {
		opts.Gap = 1
		if w > code39WideGapThreshold {
			opts.Gap = 2
		}
	}
	bc, err := EncodeCode39(code, opts)
	if err != nil {
		return err
	}

	if err := d.SetFont("Arial", "", 10); err != nil {
		return err
	}
	if err := d.Text(x, y+h+code39TextOffset, bc.Data); err != nil {
		return err
	}
	for i, bar := range bc.Encoded {
		if bar {
			d.Rect(x+float64(i)*w, y, w, h, "F")
		}
	}
	return nil
}
