package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/barcodes"
	"github.com/georgepadayatti/csfpdf/pdf/document"
	"github.com/georgepadayatti/csfpdf/pdf/layout"
)

const demoParagraph = "Portable documents are built from pages, fonts and content streams. " +
	"This paragraph is laid out with MultiCell: the text wraps at word " +
	"boundaries, explicit line breaks are honored and the last line of a " +
	"justified block stays ragged. When the cursor reaches the bottom " +
	"margin a new page is started and the header and footer are drawn again."

var demoRows = [][]string{
	{"Item", "Quantity", "Price"},
	{"Paper, A4", "10", "42.50"},
	{"Toner", "2", "118.00"},
	{"Staples", "1000", "3.20"},
}

// errRecorder keeps the first error reported by callbacks that cannot
// return one.
type errRecorder struct {
	err error
}

func (r *errRecorder) check(err error) {
	if r.err == nil {
		r.err = err
	}
}

// DemoCommand implements the 'demo' command.
func DemoCommand(args []string) error {
	fs := newFlagSet("demo")
	var opts outputOptions
	opts.register(fs)
	var pages int
	fs.IntVar(&pages, "pages", 3, "Number of text pages to generate")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s demo [options]\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Generate a sample document using core fonts, links, a table,")
		fmt.Fprintln(stderr, "barcodes and an embedded file.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if pages < 1 {
		return fmt.Errorf("-pages must be at least 1, got %d", pages)
	}

	d, err := document.New(opts.documentOptions()...)
	if err != nil {
		return err
	}
	if err := buildDemo(d, pages); err != nil {
		return err
	}
	return opts.write(d)
}

// buildDemo draws the sample document on d.
func buildDemo(d *document.Document, pages int) error {
	var rec errRecorder
	d.SetTitle("csfpdf demo")
	d.SetAuthor("csfpdf")
	d.SetSubject("Sample document")
	d.SetCreator("csfpdf " + Version)
	d.AliasNbPages("")
	d.AttachContent([]byte(demoParagraph+"\n"), "readme.txt", "Demo text", "text/plain", "Data")

	d.SetHeaderFunc(func() {
		rec.check(d.SetFont("Arial", "B", 14))
		rec.check(d.Cell(0, 10, "csfpdf demo", "B", 1, "C", false, document.Link{}))
		d.Ln(5)
	})
	d.SetFooterFunc(func() {
		d.SetY(-15)
		rec.check(d.SetFont("Arial", "I", 8))
		rec.check(d.Cell(0, 10, fmt.Sprintf("Page %d/%s", d.PageNo(), document.DefaultAlias), "", 0, "C", false, document.Link{}))
	})

	barcodePage := d.AddLink()

	for i := 1; i <= pages; i++ {
		if err := d.AddPage("", ""); err != nil {
			return err
		}
		if err := d.SetFont("Times", "", 12); err != nil {
			return err
		}
		if err := d.SetFillColor(200, 220, 255); err != nil {
			return err
		}
		if err := d.Cell(0, 8, fmt.Sprintf("Chapter %d", i), "", 1, "L", true, document.Link{}); err != nil {
			return err
		}
		d.Ln(4)
		if _, err := d.MultiCell(0, 5, strings.Repeat(demoParagraph+"\n", i), "", "J", false, 0); err != nil {
			return err
		}
		d.Ln(4)
		if err := d.Write(5, "The barcodes are on the ", document.Link{}); err != nil {
			return err
		}
		if err := d.SetTextColor(0, 0, 255); err != nil {
			return err
		}
		if err := d.Write(5, "last page", layout.Internal(barcodePage)); err != nil {
			return err
		}
		if err := d.SetTextColor(0); err != nil {
			return err
		}
		if err := d.Write(5, ". The project lives at ", document.Link{}); err != nil {
			return err
		}
		if err := d.Write(5, "example.com", layout.URL("https://example.com")); err != nil {
			return err
		}
		d.Ln(10)
		if err := demoTable(d); err != nil {
			return err
		}
	}

	if err := d.AddPage("L", ""); err != nil {
		return err
	}
	d.SetLink(barcodePage, -1, -1)
	if err := demoBarcodes(d); err != nil {
		return err
	}
	if err := d.Close(); err != nil {
		return err
	}
	return rec.err
}

func demoTable(d *document.Document) error {
	widths := []float64{80, 40, 40}
	d.SetLineWidth(0.3)
	if err := d.SetDrawColor(80); err != nil {
		return err
	}
	for r, row := range demoRows {
		style := ""
		if r == 0 {
			style = "B"
		}
		if err := d.SetFont("Arial", style, 11); err != nil {
			return err
		}
		for c, cell := range row {
			align := "R"
			if c == 0 {
				align = "L"
			}
			if err := d.Cell(widths[c], 7, cell, "1", 0, align, r == 0, document.Link{}); err != nil {
				return err
			}
		}
		d.Ln(-1)
	}
	return nil
}

func demoBarcodes(d *document.Document) error {
	if err := d.SetFont("Arial", "", 10); err != nil {
		return err
	}
	if err := d.SetFillColor(0); err != nil {
		return err
	}
	x, y := d.GetXY()
	if err := d.EAN13(x+5, y, "400638133393", 0, 0); err != nil {
		return err
	}
	if err := d.UPCA(x+60, y, "72527273070", 0, 0); err != nil {
		return err
	}
	if err := d.EAN128(x+115, y, barcodes.FNC1+"0101234567890128", 60, 16); err != nil {
		return err
	}
	if err := d.SetFont("Arial", "", 10); err != nil {
		return err
	}
	return d.Code39(x+5, y+40, "CSFPDF DEMO", barcodes.Code39Options{Checksum: true}, 0, 0)
}
