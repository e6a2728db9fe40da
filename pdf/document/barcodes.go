package document

import (
	"github.com/georgepadayatti/csfpdf/pdf/barcodes"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
)

var _ barcodes.Drawer = (*Document)(nil)

func barcodeError(err error, code pdferror.Code) error {
	if err == nil || pdferror.CodeOf(err) != 0 {
		return err
	}
	return pdferror.Wrap(code, err, "")
}

// EAN13 draws an EAN-13 barcode at (x, y). w is the module width and h
// the bar height; zero values mean the defaults.
func (d *Document) EAN13(x, y float64, code string, w, h float64) error {
	if d.terminated() {
		return nil
	}
	w, h = eanDefaults(w, h)
	return barcodeError(barcodes.EAN13(d, x, y, code, w, h), pdferror.BarcodeIncorrectDigitCheck)
}

// UPCA draws a UPC-A barcode at (x, y).
func (d *Document) UPCA(x, y float64, code string, w, h float64) error {
	if d.terminated() {
		return nil
	}
	w, h = eanDefaults(w, h)
	return barcodeError(barcodes.UPCA(d, x, y, code, w, h), pdferror.BarcodeIncorrectDigitCheck)
}

func eanDefaults(w, h float64) (float64, float64) {
	if w == 0 {
		w = barcodes.DefaultEANBarWidth
	}
	if h == 0 {
		h = barcodes.DefaultEANHeight
	}
	return w, h
}

// EAN128 draws a Code 128 barcode at (x, y) scaled to total width w.
func (d *Document) EAN128(x, y float64, code string, w, h float64) error {
	if d.terminated() {
		return nil
	}
	return barcodeError(barcodes.EAN128(d, x, y, code, w, h), pdferror.BarcodeIncorrectDigitCheck)
}

// Code39 draws a Code 39 barcode at (x, y) with its text below. w is the
// narrow module width and h the bar height; zero values mean the defaults.
func (d *Document) Code39(x, y float64, code string, opts barcodes.Code39Options, w, h float64) error {
	if d.terminated() {
		return nil
	}
	if w == 0 {
		w = barcodes.DefaultCode39BarWidth
	}
	if h == 0 {
		h = barcodes.DefaultCode39Height
	}
	return barcodeError(barcodes.Code39(d, x, y, code, opts, w, h), pdferror.Barcode39InvalidValue)
}
