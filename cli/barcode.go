package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/barcodes"
	"github.com/georgepadayatti/csfpdf/pdf/document"
)

// BarcodeOptions contains options for the barcode command.
type BarcodeOptions struct {
	Type     string
	X, Y     float64
	Width    float64
	Height   float64
	Checksum bool
	Extended bool
	Wide     bool
	FNC1     bool
}

// BarcodeCommand implements the 'barcode' command.
func BarcodeCommand(args []string) error {
	fs := newFlagSet("barcode")
	var out outputOptions
	out.register(fs)

	var opts BarcodeOptions
	fs.StringVar(&opts.Type, "type", "ean13", "Barcode type: ean13, upca, ean128, code39")
	fs.Float64Var(&opts.X, "x", 20, "Abscissa of the barcode in mm")
	fs.Float64Var(&opts.Y, "y", 20, "Ordinate of the barcode in mm")
	fs.Float64Var(&opts.Width, "w", 0, "Module width, or total width for ean128, in mm")
	fs.Float64Var(&opts.Height, "h", 0, "Bar height in mm")
	fs.BoolVar(&opts.Checksum, "checksum", false, "Append the Code 39 check character")
	fs.BoolVar(&opts.Extended, "extended", false, "Use extended Code 39 (full ASCII)")
	fs.BoolVar(&opts.Wide, "wide", false, "Use a 3:1 wide to narrow ratio for Code 39")
	fs.BoolVar(&opts.FNC1, "fnc1", false, "Prefix ean128 data with FNC1 (GS1-128)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s barcode [options] <code>\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Generate a one-page document holding a barcode.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Examples:")
		fmt.Fprintf(stderr, "  %s barcode -o ean.pdf 400638133393\n", os.Args[0])
		fmt.Fprintf(stderr, "  %s barcode -type code39 -checksum -o c39.pdf CODE39\n", os.Args[0])
		fmt.Fprintf(stderr, "  %s barcode -type ean128 -fnc1 -w 80 -o gs1.pdf 0101234567890128\n", os.Args[0])
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one code, got %d arguments", fs.NArg())
	}

	d, err := document.New(out.documentOptions()...)
	if err != nil {
		return err
	}
	if err := drawBarcode(d, fs.Arg(0), &opts); err != nil {
		return err
	}
	return out.write(d)
}

// drawBarcode adds a page to d and draws code on it.
func drawBarcode(d *document.Document, code string, opts *BarcodeOptions) error {
	d.SetTitle(code)
	d.SetCreator("csfpdf " + Version)
	if err := d.AddPage("", ""); err != nil {
		return err
	}
	if err := d.SetFont("Arial", "", 10); err != nil {
		return err
	}

	switch strings.ToLower(opts.Type) {
	case "ean13":
		return d.EAN13(opts.X, opts.Y, code, opts.Width, opts.Height)
	case "upca":
		return d.UPCA(opts.X, opts.Y, code, opts.Width, opts.Height)
	case "ean128", "code128":
		w, h := opts.Width, opts.Height
		if w == 0 {
			w = 80
		}
		if h == 0 {
			h = barcodes.DefaultEANHeight
		}
		if opts.FNC1 {
			code = barcodes.FNC1 + code
		}
		return d.EAN128(opts.X, opts.Y, code, w, h)
	case "code39":
		c39 := barcodes.Code39Options{Checksum: opts.Checksum, Extended: opts.Extended, Wide: opts.Wide}
		return d.Code39(opts.X, opts.Y, code, c39, opts.Width, opts.Height)
	}
	return fmt.Errorf("unknown barcode type %q", opts.Type)
}
