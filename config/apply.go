package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/georgepadayatti/csfpdf/pdf/barcodes"
	"github.com/georgepadayatti/csfpdf/pdf/document"
	"github.com/georgepadayatti/csfpdf/pdf/layout"
	"github.com/georgepadayatti/csfpdf/pdf/metadata"
)

// Options returns the constructor options of the configured document.
func (c *DocumentConfig) Options() []document.Option {
	var opts []document.Option
	if p := c.Page; p != nil {
		if p.Orientation != "" {
			opts = append(opts, document.WithOrientation(p.Orientation))
		}
		if p.Unit != "" {
			opts = append(opts, document.WithUnit(p.Unit))
		}
		if p.Size != "" {
			opts = append(opts, document.WithSize(p.Size))
		}
		if p.Width > 0 && p.Height > 0 {
			opts = append(opts, document.WithCustomSize(p.Width, p.Height))
		}
	}
	if c.FontPath != "" {
		opts = append(opts, document.WithFontPath(c.FontPath))
	}
	if c.CachePath != "" {
		opts = append(opts, document.WithCachePath(c.CachePath))
	}
	if c.Compression != nil {
		opts = append(opts, document.WithCompression(*c.Compression))
	}
	return opts
}

// NewDocument validates the configuration, creates the document and
// applies the configuration to it. extra options come last.
func (c *DocumentConfig) NewDocument(extra ...document.Option) (*document.Document, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	d, err := document.New(append(c.Options(), extra...)...)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Apply configures d and draws the blocks. Page setup options are not
// applied here; see Options.
func (c *DocumentConfig) Apply(d *document.Document) error {
	if m := c.Margins; m != nil {
		margins := d.GetMargins()
		if m.Left != nil {
			d.SetLeftMargin(*m.Left)
		}
		if m.Top != nil {
			d.SetTopMargin(*m.Top)
		}
		if m.Right != nil {
			d.SetRightMargin(*m.Right)
		}
		bottom := margins.Bottom
		if m.Bottom != nil {
			bottom = *m.Bottom
		}
		auto := true
		if m.AutoPageBreak != nil {
			auto = *m.AutoPageBreak
		}
		d.SetAutoPageBreak(auto, bottom)
	}
	if c.AliasNbPages != "" {
		d.AliasNbPages(c.AliasNbPages)
	}
	for _, f := range c.Fonts {
		if err := d.AddFont(f.Family, f.Style, f.File); err != nil {
			return err
		}
	}
	if err := c.applyMetadata(d); err != nil {
		return err
	}
	if p := c.Protection; p != nil {
		if err := d.SetProtection(p.Permissions, p.UserPassword, p.OwnerPassword); err != nil {
			return err
		}
	}
	if disp := c.Display; disp != nil {
		if err := d.SetDisplayMode(disp.Zoom, disp.Layout); err != nil {
			return err
		}
		d.SetOpenAttachmentPane(disp.OpenAttachments)
	}
	if c.ColorProfile != "" {
		if err := d.SetColorProfilePath(c.ColorProfile); err != nil {
			return err
		}
	}
	for _, a := range c.Attachments {
		if err := d.AttachFile(a.Path, a.Name, a.Description, a.MimeType, a.Relationship); err != nil {
			return err
		}
	}
	for i := range c.Blocks {
		if err := c.Blocks[i].draw(d); err != nil {
			return fmt.Errorf("blocks[%d] (%s): %w", i, c.Blocks[i].Type, err)
		}
	}
	return nil
}

func (c *DocumentConfig) applyMetadata(d *document.Document) error {
	m := c.Metadata
	if m == nil {
		return nil
	}
	if m.Title != "" {
		d.SetTitle(m.Title)
	}
	if m.Subject != "" {
		d.SetSubject(m.Subject)
	}
	if m.Author != "" {
		d.SetAuthor(m.Author)
	}
	if m.Keywords != "" {
		d.SetKeywords(m.Keywords)
	}
	if m.Creator != "" {
		d.SetCreator(m.Creator)
	}
	keys := make([]string, 0, len(m.Custom))
	for k := range m.Custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.SetMetadata(k, m.Custom[k])
	}
	if m.CreationDate != "" {
		t, err := metadata.ParsePDFDate(m.CreationDate)
		if err != nil {
			return invalid("metadata.creation-date", err)
		}
		d.SetCreationDate(t)
	}
	if m.XMPFile != "" {
		packet, err := os.ReadFile(m.XMPFile)
		if err != nil {
			return &ConfigError{Field: "metadata.xmp-file", Message: "cannot read XMP packet", Err: err}
		}
		d.SetXMP(string(packet))
	}
	return nil
}

func (b *BlockConfig) link() document.Link {
	if b.Link == "" {
		return document.Link{}
	}
	return layout.URL(b.Link)
}

func (b *BlockConfig) moveTo(d *document.Document) {
	switch {
	case b.X != nil && b.Y != nil:
		d.SetXY(*b.X, *b.Y)
	case b.Y != nil:
		d.SetY(*b.Y)
	case b.X != nil:
		d.SetX(*b.X)
	}
}

func (b *BlockConfig) draw(d *document.Document) error {
	switch b.Type {
	case BlockPage:
		return d.AddPage(b.Orientation, b.Size)
	case BlockFont:
		return d.SetFont(b.Family, b.Style, b.FontSize)
	case BlockColor:
		if len(b.DrawColor) > 0 {
			if err := d.SetDrawColor(b.DrawColor...); err != nil {
				return err
			}
		}
		if len(b.FillColor) > 0 {
			if err := d.SetFillColor(b.FillColor...); err != nil {
				return err
			}
		}
		if len(b.TextColor) > 0 {
			return d.SetTextColor(b.TextColor...)
		}
		return nil
	case BlockCell:
		b.moveTo(d)
		return d.Cell(b.Width, b.Height, b.Text, b.Border, b.Ln, b.Align, b.Fill, b.link())
	case BlockMultiCell:
		b.moveTo(d)
		_, err := d.MultiCell(b.Width, b.Height, b.Text, b.Border, b.Align, b.Fill, 0)
		return err
	case BlockWrite:
		b.moveTo(d)
		return d.Write(b.Height, b.Text, b.link())
	case BlockText:
		return d.Text(*b.X, *b.Y, b.Text)
	case BlockLn:
		h := b.Height
		if h == 0 {
			h = -1
		}
		d.Ln(h)
		return nil
	case BlockLine:
		var x, y float64
		if b.X != nil {
			x = *b.X
		}
		if b.Y != nil {
			y = *b.Y
		}
		d.Line(x, y, b.X2, b.Y2)
		return nil
	case BlockRect:
		x, y := d.GetXY()
		if b.X != nil {
			x = *b.X
		}
		if b.Y != nil {
			y = *b.Y
		}
		d.Rect(x, y, b.Width, b.Height, b.RectStyle)
		return nil
	case BlockImage:
		return d.Image(b.Path, document.ImageOptions{
			X:      b.X,
			Y:      b.Y,
			Width:  b.Width,
			Height: b.Height,
			Type:   b.ImageType,
			Link:   b.link(),
		})
	case BlockBarcode:
		return b.drawBarcode(d)
	}
	return NewConfigError("type", fmt.Sprintf("unknown block type %q", b.Type))
}

func (b *BlockConfig) drawBarcode(d *document.Document) error {
	x, y := *b.X, *b.Y
	switch b.Kind {
	case BarcodeEAN13:
		return d.EAN13(x, y, b.Code, b.Width, b.Height)
	case BarcodeUPCA:
		return d.UPCA(x, y, b.Code, b.Width, b.Height)
	case BarcodeEAN128:
		return d.EAN128(x, y, b.Code, b.Width, b.Height)
	case BarcodeCode39:
		opts := barcodes.Code39Options{Checksum: b.Checksum, Extended: b.Extended, Wide: b.Wide}
		return d.Code39(x, y, b.Code, opts, b.Width, b.Height)
	}
	return NewConfigError("kind", fmt.Sprintf("unknown barcode kind %q", b.Kind))
}
