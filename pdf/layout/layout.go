// Package layout provides units, page sizes and viewer display settings.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Common errors
var (
	ErrInvalidUnit        = errors.New("invalid unit")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidZoomMode    = errors.New("invalid zoom mode")
	ErrInvalidLayoutMode  = errors.New("invalid layout mode")
)

// Unit is the number of points in one user unit (the scale factor k).
type Unit float64

const (
	// Points - the base PDF unit (1/72 inch)
	Pt Unit = 1
	// Inches
	In Unit = 72
	// Centimeters
	Cm Unit = 72 / 2.54
	// Millimeters
	Mm Unit = 72 / 25.4
)

// ParseUnit returns the scale factor for a unit name.
func ParseUnit(name string) (Unit, error) {
	switch strings.ToLower(name) {
	case "pt":
		return Pt, nil
	case "mm":
		return Mm, nil
	case "cm":
		return Cm, nil
	case "in":
		return In, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidUnit, name)
}

// ToPoints converts a value in the given unit to points.
func ToPoints(value float64, unit Unit) float64 {
	return value * float64(unit)
}

// FromPoints converts points to the given unit.
func FromPoints(points float64, unit Unit) float64 {
	return points / float64(unit)
}

// PageSize represents page dimensions in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard page sizes in points
var (
	A3     = PageSize{841.89, 1190.55}
	A4     = PageSize{595.28, 841.89}
	A5     = PageSize{420.94, 595.28}
	Letter = PageSize{612, 792}
	Legal  = PageSize{612, 1008}
)

var standardSizes = map[string]PageSize{
	"a3":     A3,
	"a4":     A4,
	"a5":     A5,
	"letter": Letter,
	"legal":  Legal,
}

// ParsePageSize looks up a standard size by name.
func ParsePageSize(name string) (PageSize, error) {
	if s, ok := standardSizes[strings.ToLower(name)]; ok {
		return s, nil
	}
	return PageSize{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, name)
}

// CustomSize builds a page size from user-unit dimensions, normalized to
// portrait.
func CustomSize(width, height float64, unit Unit) (PageSize, error) {
	if width <= 0 || height <= 0 {
		return PageSize{}, fmt.Errorf("%w: %gx%g", ErrInvalidPageSize, width, height)
	}
	return PageSize{width * float64(unit), height * float64(unit)}.Portrait(), nil
}

// InUnit returns the size expressed in user units.
func (p PageSize) InUnit(unit Unit) PageSize {
	return PageSize{p.Width / float64(unit), p.Height / float64(unit)}
}

// Landscape returns the page size in landscape orientation.
func (p PageSize) Landscape() PageSize {
	if p.Width < p.Height {
		return PageSize{p.Height, p.Width}
	}
	return p
}

// Portrait returns the page size in portrait orientation.
func (p PageSize) Portrait() PageSize {
	if p.Width > p.Height {
		return PageSize{p.Height, p.Width}
	}
	return p
}

// Oriented returns the size rotated for the given orientation.
func (p PageSize) Oriented(o Orientation) PageSize {
	if o == Landscape {
		return p.Landscape()
	}
	return p.Portrait()
}

// Orientation is a page orientation.
type Orientation string

const (
	Portrait  Orientation = "P"
	Landscape Orientation = "L"
)

// ParseOrientation accepts P, L, portrait and landscape in any case. An
// empty string means def.
func ParseOrientation(s string, def Orientation) (Orientation, error) {
	switch strings.ToLower(s) {
	case "":
		return def, nil
	case "p", "portrait":
		return Portrait, nil
	case "l", "landscape":
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrientation, s)
}

// ZoomMode is the initial magnification of the viewer.
type ZoomMode struct {
	Mode    string
	Percent float64
}

// Zoom mode names.
const (
	ZoomDefault   = "default"
	ZoomFullPage  = "fullpage"
	ZoomFullWidth = "fullwidth"
	ZoomReal      = "real"
	ZoomPercent   = "percent"
)

// ParseZoomMode accepts the named modes or a positive number (percent).
func ParseZoomMode(s string) (ZoomMode, error) {
	switch m := strings.ToLower(s); m {
	case ZoomDefault, ZoomFullPage, ZoomFullWidth, ZoomReal:
		return ZoomMode{Mode: m}, nil
	case "":
		return ZoomMode{Mode: ZoomDefault}, nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil && v > 0 && !math.IsInf(v, 0) {
		return ZoomMode{Mode: ZoomPercent, Percent: v}, nil
	}
	return ZoomMode{}, fmt.Errorf("%w: %q", ErrInvalidZoomMode, s)
}

// OpenAction returns the destination array suffix for the catalog
// /OpenAction entry, or "" when no action is needed.
func (z ZoomMode) OpenAction() string {
	switch z.Mode {
	case ZoomFullPage:
		return "/Fit"
	case ZoomFullWidth:
		return "/FitH null"
	case ZoomReal:
		return "/XYZ null null 1"
	case ZoomPercent:
		return fmt.Sprintf("/XYZ null null %.2F", z.Percent/100)
	}
	return ""
}

// LayoutMode is the page layout of the viewer.
type LayoutMode string

const (
	LayoutDefault    LayoutMode = "default"
	LayoutSingle     LayoutMode = "single"
	LayoutContinuous LayoutMode = "continuous"
	LayoutTwo        LayoutMode = "two"
)

// ParseLayoutMode accepts single, continuous, two and default.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch m := LayoutMode(strings.ToLower(s)); m {
	case LayoutDefault, LayoutSingle, LayoutContinuous, LayoutTwo:
		return m, nil
	case "":
		return LayoutDefault, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLayoutMode, s)
}

// PageLayoutName returns the catalog /PageLayout name, or "".
func (l LayoutMode) PageLayoutName() string {
	switch l {
	case LayoutSingle:
		return "SinglePage"
	case LayoutContinuous:
		return "OneColumn"
	case LayoutTwo:
		return "TwoColumnLeft"
	}
	return ""
}

// ImageSize resolves the drawn size of an image of pxW x pxH pixels. Both
// zero means 96 dpi; a negative value is a resolution in dpi; a single
// zero keeps the aspect ratio. k is the user unit scale factor.
func ImageSize(pxW, pxH int, w, h float64, k Unit) (float64, float64) {
	if w == 0 && h == 0 {
		w, h = -96, -96
	}
	if w < 0 {
		w = -float64(pxW) * 72 / w / float64(k)
	}
	if h < 0 {
		h = -float64(pxH) * 72 / h / float64(k)
	}
	if w == 0 {
		w = h * float64(pxW) / float64(pxH)
	}
	if h == 0 {
		h = w * float64(pxH) / float64(pxW)
	}
	return w, h
}

// Margins holds page margins in user units.
type Margins struct {
	Left, Top, Right, Bottom float64
}

// Link is the target of a clickable area: an external URL or an internal
// link id returned by AddLink. The zero value means no link.
type Link struct {
	URL string
	ID  int
}

// URL returns a link to an external address.
func URL(u string) Link { return Link{URL: u} }

// Internal returns a link to a destination created with AddLink.
func Internal(id int) Link { return Link{ID: id} }

// IsZero reports whether l points nowhere.
func (l Link) IsZero() bool { return l.URL == "" && l.ID == 0 }
