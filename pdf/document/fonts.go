package document

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/fonts"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
)

func errNoFont() error {
	return pdferror.New(pdferror.UndefinedFont, "no font selected")
}

// SetFontPath sets the directory searched for font files.
func (d *Document) SetFontPath(dir string) error {
	if err := checkDir(dir); err != nil {
		return pdferror.Wrap(pdferror.InvalidFontPath, err, "font path does not exist `%s`", dir)
	}
	d.fontPath = dir
	return nil
}

// FontPath returns the font directory.
func (d *Document) FontPath() string {
	return d.fontPath
}

// SetCachePath sets the font metrics cache directory, creating it when
// missing.
func (d *Document) SetCachePath(dir string) error {
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return pdferror.Wrap(pdferror.InvalidCacheFolder, err, "could not create cache folder `%s`", dir)
	}
	tmp, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidCacheFolder, err, "could not write to cache folder `%s`", dir)
	}
	tmp.Close()
	os.Remove(tmp.Name())
	d.cache = fonts.NewMetricsCache(dir, d.logger)
	return nil
}

// CachePath returns the font metrics cache directory.
func (d *Document) CachePath() string {
	return d.cache.Dir()
}

// ClearCache removes the cached font metrics.
func (d *Document) ClearCache() error {
	if err := d.cache.Clear(); err != nil {
		return pdferror.Wrap(pdferror.InvalidCacheFolder, err, "")
	}
	return nil
}

func (d *Document) fontFile(name string) string {
	if d.fontPath == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.fontPath, name)
}

// AddFont registers a font. An empty file means the family name without
// spaces followed by the lowercase style, as a .ttf program when one
// exists in the font path and as a .json descriptor otherwise. Adding a
// registered family and style again does nothing.
func (d *Document) AddFont(family, style, file string) error {
	family = strings.ToLower(family)
	style, _ = fonts.NormalizeStyle(style)
	key := fonts.Key(family, style)
	if _, ok := d.fonts[key]; ok {
		return nil
	}

	if file == "" {
		if f, ok := fonts.Core(family, style); ok && fonts.IsCore(family) {
			d.registerFont(key, f)
			return nil
		}
		base := strings.ReplaceAll(family, " ", "") + strings.ToLower(style)
		file = base + ".json"
		if _, err := os.Stat(d.fontFile(base + ".ttf")); err == nil {
			file = base + ".ttf"
		}
	}

	var f *fonts.Font
	switch strings.ToLower(filepath.Ext(file)) {
	case ".ttf", ".otf":
		path := d.fontFile(file)
		m, cw, err := d.cache.Load(path, key)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return pdferror.Wrap(pdferror.InvalidFontPath, err, "font file `%s`", path)
			}
			return pdferror.Wrap(pdferror.InvalidFontFile, err, "font file `%s`", path)
		}
		f = fonts.NewTTF(family, style, path, m, cw)
		if d.aliasNbPages != "" {
			f.UseRange(0, 57)
		}
	default:
		path := d.fontFile(file)
		var err error
		f, err = fonts.LoadDescriptor(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return pdferror.Wrap(pdferror.InvalidFontPath, err, "font definition `%s`", path)
			}
			return pdferror.Wrap(pdferror.InvalidFontFile, err, "font definition `%s`", path)
		}
		f.Family = family
		f.Style = style
		if f.Diff != "" {
			f.DiffN = d.diffs.Index(f.Diff)
		}
	}
	d.registerFont(key, f)
	return nil
}

func (d *Document) registerFont(key string, f *fonts.Font) {
	f.Index = len(d.fontOrder) + 1
	d.fonts[key] = f
	d.fontOrder = append(d.fontOrder, f)
	d.logger.Debug("font registered", observability.String("key", key),
		observability.String("type", string(f.Type)), observability.String("name", f.Name))
}

// Fonts returns the registered font keys in sorted order.
func (d *Document) Fonts() []string {
	keys := make([]string, 0, len(d.fonts))
	for k := range d.fonts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetFont selects the font used for text. An empty family keeps the
// current one and a zero size keeps the current size. Style holds B, I
// and U (underline). Core families are registered on first use.
func (d *Document) SetFont(family, style string, size float64) error {
	if family == "" {
		family = d.fontFamily
	} else {
		family = strings.ToLower(family)
	}
	style, underline := fonts.NormalizeStyle(style)
	d.underline = underline
	if size == 0 {
		size = d.fontSizePt
	}
	if d.fontFamily == family && d.fontStyle == style && d.fontSizePt == size && d.currentFont != nil {
		return nil
	}

	key := fonts.Key(family, style)
	if _, ok := d.fonts[key]; !ok {
		family = fonts.CoreFamily(family)
		if !fonts.IsCore(family) {
			return pdferror.New(pdferror.UndefinedFont, "%s %s", family, style)
		}
		if family == "symbol" || family == "zapfdingbats" {
			style = ""
		}
		key = fonts.Key(family, style)
		if _, ok := d.fonts[key]; !ok {
			if err := d.AddFont(family, style, ""); err != nil {
				return err
			}
		}
	}

	d.fontFamily = family
	d.fontStyle = style
	d.fontSizePt = size
	d.fontSize = size / d.k
	d.currentFont = d.fonts[key]
	if d.page > 0 {
		d.outf("BT /F%d %.2F Tf ET", d.currentFont.Index, d.fontSizePt)
	}
	return nil
}

// SetFontSize changes the size of the current font, in points.
func (d *Document) SetFontSize(size float64) {
	if d.fontSizePt == size {
		return
	}
	d.fontSizePt = size
	d.fontSize = size / d.k
	if d.page > 0 && d.currentFont != nil {
		d.outf("BT /F%d %.2F Tf ET", d.currentFont.Index, d.fontSizePt)
	}
}

// GetCurrentFontSize returns the font size in points.
func (d *Document) GetCurrentFontSize() float64 {
	return d.fontSizePt
}

// GetUserFontSize returns the font size in user units.
func (d *Document) GetUserFontSize() float64 {
	return d.fontSize
}

// CurrentFont returns the selected font, or nil.
func (d *Document) CurrentFont() *fonts.Font {
	return d.currentFont
}

// GetStringWidth returns the width of s in the current font, in user
// units.
func (d *Document) GetStringWidth(s string) float64 {
	if d.currentFont == nil {
		return 0
	}
	return float64(d.currentFont.StringWidth(s)) * d.fontSize / 1000
}
