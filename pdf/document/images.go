package document

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/georgepadayatti/csfpdf/pdf/images"
	"github.com/georgepadayatti/csfpdf/pdf/layout"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
)

type imageRecord struct {
	*images.Info
	key   string
	index int
	n     int
}

// ImageOptions positions and sizes an image. A nil Y places the image at
// the cursor and moves the cursor below it, breaking the page when
// needed. A nil X means the cursor abscissa. Width and Height follow
// layout.ImageSize.
type ImageOptions struct {
	X, Y          *float64
	Width, Height float64
	// Type overrides the type taken from the file extension.
	Type string
	Link Link
}

// Float returns a pointer to v, for ImageOptions coordinates.
func Float(v float64) *float64 {
	return &v
}

func imageError(err error, format string, args ...interface{}) error {
	if errors.Is(err, images.ErrUnsupportedImage) {
		return pdferror.Wrap(pdferror.UnsupportedImage, err, format, args...)
	}
	if errors.Is(err, images.ErrInvalidStream) {
		return pdferror.Wrap(pdferror.InvalidStream, err, format, args...)
	}
	return pdferror.Wrap(pdferror.InvalidImage, err, format, args...)
}

// Image draws the image stored at file. Each file is decoded once.
func (d *Document) Image(file string, opts ImageOptions) error {
	if d.terminated() {
		return nil
	}
	if d.page == 0 {
		return pdferror.New(pdferror.InvalidImage, "no page to draw %s on", file)
	}
	rec, ok := d.images[file]
	if !ok {
		typ := opts.Type
		if typ == "" {
			ext := filepath.Ext(file)
			if ext == "" {
				return pdferror.New(pdferror.InvalidImage, "image file has no extension and no type was specified: %s", file)
			}
			typ = ext[1:]
		}
		parse, err := images.Lookup(typ)
		if err != nil {
			return pdferror.Wrap(pdferror.UnsupportedImage, err, "")
		}
		fh, err := os.Open(file)
		if err != nil {
			return pdferror.Wrap(pdferror.InvalidImage, err, "missing or incorrect image file: %s", file)
		}
		info, err := parse(fh, file)
		fh.Close()
		if err != nil {
			return imageError(err, "")
		}
		rec = d.registerImage(file, info)
	}
	return d.placeImage(rec, opts)
}

// ImageFromReader draws an image read from r, registered under name. typ
// is required since there is no file extension.
func (d *Document) ImageFromReader(name string, r io.Reader, opts ImageOptions) error {
	if d.terminated() {
		return nil
	}
	if d.page == 0 {
		return pdferror.New(pdferror.InvalidImage, "no page to draw %s on", name)
	}
	rec, ok := d.images[name]
	if !ok {
		if opts.Type == "" {
			return pdferror.New(pdferror.InvalidImage, "no image type specified for %s", name)
		}
		parse, err := images.Lookup(opts.Type)
		if err != nil {
			return pdferror.Wrap(pdferror.UnsupportedImage, err, "")
		}
		info, err := parse(r, name)
		if err != nil {
			return imageError(err, "")
		}
		rec = d.registerImage(name, info)
	}
	return d.placeImage(rec, opts)
}

func (d *Document) registerImage(key string, info *images.Info) *imageRecord {
	rec := &imageRecord{Info: info, key: key, index: len(d.imageOrder) + 1}
	d.images[key] = rec
	d.imageOrder = append(d.imageOrder, rec)
	if info.HasAlpha() && d.pdfVersion < "1.4" {
		d.pdfVersion = "1.4"
	}
	d.logger.Debug("image decoded", observability.String("image", key),
		observability.Int("width", info.Width), observability.Int("height", info.Height),
		observability.String("colorspace", info.ColorSpace))
	return rec
}

func (d *Document) placeImage(rec *imageRecord, opts ImageOptions) error {
	w, h := layout.ImageSize(rec.Width, rec.Height, opts.Width, opts.Height, layout.Unit(d.k))

	var y float64
	if opts.Y == nil {
		if d.y+h > d.pageBreakTrigger && !d.inHeader && !d.inFooter && d.AcceptPageBreak() {
			x := d.x
			size := d.curPageSize
			if err := d.addPage(d.curOrientation, &size); err != nil {
				return err
			}
			d.x = x
		}
		y = d.y
		d.y += h
	} else {
		y = *opts.Y
	}
	x := d.x
	if opts.X != nil {
		x = *opts.X
	}

	d.outf("q %.2F 0 0 %.2F %.2F %.2F cm /I%d Do Q", w*d.k, h*d.k, x*d.k, (d.h-(y+h))*d.k, rec.index)
	d.Link(x, y, w, h, opts.Link)
	return nil
}

// ImageSize returns the pixel size of a registered image.
func (d *Document) ImageSize(key string) (int, int, error) {
	rec, ok := d.images[key]
	if !ok {
		return 0, 0, pdferror.New(pdferror.InvalidImage, "image %s is not registered", key)
	}
	return rec.Width, rec.Height, nil
}
