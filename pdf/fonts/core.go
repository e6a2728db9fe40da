package fonts

import "strings"

// coreFace describes one of the standard 14 fonts.
type coreFace struct {
	name   string
	widths *[256]uint16
	desc   Desc
}

var (
	helveticaDesc = Desc{Ascent: 718, Descent: -207, CapHeight: 718, Flags: 32, FontBBox: [4]int{-166, -225, 1000, 931}, StemV: 88}
	timesDesc     = Desc{Ascent: 683, Descent: -217, CapHeight: 662, Flags: 34, FontBBox: [4]int{-168, -218, 1000, 898}, StemV: 84}
	courierDesc   = Desc{Ascent: 629, Descent: -157, CapHeight: 562, Flags: 33, FontBBox: [4]int{-23, -250, 715, 805}, StemV: 51, MissingWidth: 600}
	symbolDesc    = Desc{Ascent: 800, Descent: -200, CapHeight: 800, Flags: 4, FontBBox: [4]int{-180, -293, 1090, 1010}, StemV: 85}
	dingbatsDesc  = Desc{Ascent: 800, Descent: -200, CapHeight: 800, Flags: 4, FontBBox: [4]int{-1, -143, 981, 820}, StemV: 90}
)

var courierWidths = func() *[256]uint16 {
	var w [256]uint16
	for i := range w {
		w[i] = 600
	}
	return &w
}()

// coreFaces is keyed by family plus normalized style.
var coreFaces = map[string]coreFace{
	"courier":      {"Courier", courierWidths, courierDesc},
	"courierB":     {"Courier-Bold", courierWidths, bold(courierDesc, 106)},
	"courierI":     {"Courier-Oblique", courierWidths, italic(courierDesc, -12)},
	"courierBI":    {"Courier-BoldOblique", courierWidths, italic(bold(courierDesc, 106), -12)},
	"helvetica":    {"Helvetica", &helveticaWidths, helveticaDesc},
	"helveticaB":   {"Helvetica-Bold", &helveticaBoldWidths, bold(helveticaDesc, 140)},
	"helveticaI":   {"Helvetica-Oblique", &helveticaWidths, italic(helveticaDesc, -12)},
	"helveticaBI":  {"Helvetica-BoldOblique", &helveticaBoldWidths, italic(bold(helveticaDesc, 140), -12)},
	"times":        {"Times-Roman", &timesWidths, timesDesc},
	"timesB":       {"Times-Bold", &timesBoldWidths, bold(timesDesc, 121)},
	"timesI":       {"Times-Italic", &timesItalicWidths, italic(timesDesc, -15.5)},
	"timesBI":      {"Times-BoldItalic", &timesBoldItalicWidths, italic(bold(timesDesc, 121), -15)},
	"symbol":       {"Symbol", &symbolWidths, symbolDesc},
	"zapfdingbats": {"ZapfDingbats", &zapfDingbatsWidths, dingbatsDesc},
}

func bold(d Desc, stemV int) Desc {
	d.StemV = stemV
	d.Flags |= 262144
	return d
}

func italic(d Desc, angle float64) Desc {
	d.ItalicAngle = angle
	d.Flags |= 64
	return d
}

// CoreFamily maps family aliases to a core family name.
func CoreFamily(family string) string {
	family = strings.ToLower(family)
	if family == "arial" {
		return "helvetica"
	}
	return family
}

// IsCore reports whether family names one of the core fonts.
func IsCore(family string) bool {
	_, ok := coreFaces[CoreFamily(family)]
	return ok
}

// Core returns a fresh record for a core font. Symbol and ZapfDingbats
// ignore the style.
func Core(family, style string) (*Font, bool) {
	family = CoreFamily(family)
	if family == "symbol" || family == "zapfdingbats" {
		style = ""
	}
	face, ok := coreFaces[family+style]
	if !ok {
		return nil, false
	}
	f := &Font{
		Type:   TypeCore,
		Name:   face.name,
		Family: family,
		Style:  style,
		Desc:   face.desc,
		Up:     -100,
		Ut:     50,
	}
	for i, w := range face.widths {
		f.CharWidths[i] = int(w)
	}
	return f, true
}
