// Package document implements the PDF document: page lifecycle, the
// layout engine, resource registration and serialization.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/georgepadayatti/csfpdf/pdf/crypt"
	"github.com/georgepadayatti/csfpdf/pdf/embed"
	"github.com/georgepadayatti/csfpdf/pdf/fonts"
	"github.com/georgepadayatti/csfpdf/pdf/layout"
	"github.com/georgepadayatti/csfpdf/pdf/metadata"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
	"github.com/georgepadayatti/csfpdf/pdf/writer"
)

// State is the lifecycle state of a document.
type State int

const (
	StateNotInitialized State = iota
	StateInitialized
	StateCreating
	StateTerminated
)

// Link is the target of a clickable area.
type Link = layout.Link

// DefaultPDFVersion is the version written in the file header.
const DefaultPDFVersion = "1.6"

// DefaultAlias is the page count placeholder used by AliasNbPages.
const DefaultAlias = "{nb}"

type pageLink struct {
	x, y, w, h float64
	link       Link
}

type page struct {
	content bytes.Buffer
	// size is set when the page differs from the default size, in points.
	size  *layout.PageSize
	links []pageLink
}

type linkTarget struct {
	page int
	y    float64
}

// Document is a PDF document under construction. It is not safe for
// concurrent use.
type Document struct {
	state State
	page  int
	pages []*page

	k                float64
	defOrientation   layout.Orientation
	curOrientation   layout.Orientation
	defPageSize      layout.PageSize
	curPageSize      layout.PageSize
	wPt, hPt         float64
	w, h             float64
	lMargin, tMargin float64
	rMargin, bMargin float64
	cMargin          float64
	x, y             float64
	lastH            float64
	lineWidth        float64

	fontPath  string
	cache     *fonts.MetricsCache
	fonts     map[string]*fonts.Font
	fontOrder []*fonts.Font
	diffs     fonts.DiffTable

	images     map[string]*imageRecord
	imageOrder []*imageRecord

	links []linkTarget

	fontFamily  string
	fontStyle   string
	underline   bool
	currentFont *fonts.Font
	fontSizePt  float64
	fontSize    float64

	drawColor string
	fillColor string
	textColor string
	colorFlag bool
	ws        float64

	autoPageBreak    bool
	pageBreakTrigger float64
	inHeader         bool
	inFooter         bool
	headerFunc       func()
	footerFunc       func()
	acceptBreakFunc  func() bool

	aliasNbPages string
	zoom         layout.ZoomMode
	layoutMode   layout.LayoutMode
	compress     bool
	pdfVersion   string

	meta               *metadata.DocumentMetadata
	xmp                string
	attachments        []*embed.Attachment
	openAttachmentPane bool
	colorProfilePath   string
	protection         *crypt.Protection
	fileID             []byte

	logger    observability.Logger
	clock     func() time.Time
	stdout    io.Writer
	deliverer Deliverer

	buffer *writer.Buffer
	output []byte
}

type settings struct {
	orientation layout.Orientation
	unit        layout.Unit
	size        layout.PageSize
	fontPath    string
	cachePath   string
	logger      observability.Logger
	compress    bool
	clock       func() time.Time
}

// Option configures a new Document.
type Option func(*settings) error

// WithOrientation sets the default orientation: P, L, portrait or
// landscape.
func WithOrientation(orientation string) Option {
	return func(s *settings) error {
		o, err := layout.ParseOrientation(orientation, layout.Portrait)
		if err != nil {
			return pdferror.Wrap(pdferror.InvalidOrientation, err, "")
		}
		s.orientation = o
		return nil
	}
}

// WithUnit sets the user unit: pt, mm, cm or in.
func WithUnit(unit string) Option {
	return func(s *settings) error {
		u, err := layout.ParseUnit(unit)
		if err != nil {
			return pdferror.Wrap(pdferror.InvalidUnit, err, "")
		}
		s.unit = u
		return nil
	}
}

// WithSize sets the default page size by name: a3, a4, a5, letter or
// legal.
func WithSize(name string) Option {
	return func(s *settings) error {
		size, err := layout.ParsePageSize(name)
		if err != nil {
			return pdferror.Wrap(pdferror.InvalidPageSize, err, "")
		}
		s.size = size
		return nil
	}
}

// WithCustomSize sets the default page size in user units. It must come
// after WithUnit when both are given.
func WithCustomSize(width, height float64) Option {
	return func(s *settings) error {
		size, err := layout.CustomSize(width, height, s.unit)
		if err != nil {
			return pdferror.Wrap(pdferror.InvalidPageSize, err, "")
		}
		s.size = size
		return nil
	}
}

// WithFontPath sets the directory searched for font files.
func WithFontPath(dir string) Option {
	return func(s *settings) error {
		if err := checkDir(dir); err != nil {
			return pdferror.Wrap(pdferror.InvalidFontPath, err, "%s", dir)
		}
		s.fontPath = dir
		return nil
	}
}

// WithCachePath sets the directory holding the font metrics cache.
func WithCachePath(dir string) Option {
	return func(s *settings) error {
		s.cachePath = dir
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(s *settings) error {
		s.logger = l
		return nil
	}
}

// WithCompression enables or disables Flate compression of page content.
func WithCompression(compress bool) Option {
	return func(s *settings) error {
		s.compress = compress
		return nil
	}
}

// WithClock sets the source of the creation date.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) error {
		s.clock = clock
		return nil
	}
}

// New creates a document. Defaults are portrait A4 in millimeters with
// compression on.
func New(opts ...Option) (*Document, error) {
	s := &settings{
		orientation: layout.Portrait,
		unit:        layout.Mm,
		size:        layout.A4,
		logger:      observability.NopLogger{},
		compress:    true,
		clock:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	d := &Document{
		state:          StateNotInitialized,
		k:              float64(s.unit),
		defOrientation: s.orientation,
		curOrientation: s.orientation,
		defPageSize:    s.size,
		curPageSize:    s.size,
		fontPath:       s.fontPath,
		fonts:          make(map[string]*fonts.Font),
		images:         make(map[string]*imageRecord),
		drawColor:      "0 G",
		fillColor:      "0 g",
		textColor:      "0 g",
		fontSizePt:     12,
		zoom:           layout.ZoomMode{Mode: layout.ZoomDefault},
		layoutMode:     layout.LayoutDefault,
		compress:       s.compress,
		pdfVersion:     DefaultPDFVersion,
		protection:     crypt.NewProtection(),
		logger:         s.logger,
		clock:          s.clock,
		stdout:         os.Stdout,
	}
	if d.logger == nil {
		d.logger = observability.NopLogger{}
	}
	d.fontSize = d.fontSizePt / d.k

	oriented := s.size.Oriented(s.orientation)
	d.wPt, d.hPt = oriented.Width, oriented.Height
	d.w, d.h = d.wPt/d.k, d.hPt/d.k

	if s.cachePath != "" {
		if err := d.SetCachePath(s.cachePath); err != nil {
			return nil, err
		}
	} else {
		d.cache = fonts.NewMetricsCache("", d.logger)
	}

	margin := 28.35 / d.k
	d.SetMargins(margin, margin, -1)
	d.cMargin = margin / 10
	d.lineWidth = .567 / d.k
	d.SetAutoPageBreak(true, 2*margin)

	created := d.clock()
	d.meta = metadata.NewDocumentMetadata(created)
	d.fileID = writer.ComputeFileID(d.meta.Producer, created.Format(time.RFC3339Nano), d.meta.DocumentID.String())
	d.state = StateInitialized
	return d, nil
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("not a directory")
	}
	return nil
}

// State returns the lifecycle state.
func (d *Document) State() State {
	return d.state
}

func (d *Document) terminated() bool {
	return d.state == StateTerminated
}

// out appends a line to the current page while a page is open, and to
// the file buffer otherwise. Nothing is written once the document is
// terminated.
func (d *Document) out(s string) {
	if d.terminated() {
		return
	}
	if d.state == StateCreating {
		c := &d.pages[d.page-1].content
		c.WriteString(s)
		c.WriteByte('\n')
		return
	}
	if d.buffer != nil {
		d.buffer.Out(s)
	}
}

func (d *Document) outf(format string, args ...interface{}) {
	d.out(fmt.Sprintf(format, args...))
}

// SetMargins sets the left, top and right margins. A negative right
// margin means the left one.
func (d *Document) SetMargins(left, top, right float64) {
	d.lMargin = left
	d.tMargin = top
	if right < 0 {
		right = left
	}
	d.rMargin = right
}

// SetLeftMargin sets the left margin and moves the cursor inside it.
func (d *Document) SetLeftMargin(margin float64) {
	d.lMargin = margin
	if d.page > 0 && d.x < margin {
		d.x = margin
	}
}

// SetTopMargin sets the top margin.
func (d *Document) SetTopMargin(margin float64) {
	d.tMargin = margin
}

// SetRightMargin sets the right margin.
func (d *Document) SetRightMargin(margin float64) {
	d.rMargin = margin
}

// SetCellMargin sets the interior horizontal cell padding.
func (d *Document) SetCellMargin(margin float64) {
	d.cMargin = margin
}

// GetCellMargin returns the interior horizontal cell padding.
func (d *Document) GetCellMargin() float64 {
	return d.cMargin
}

// SetAutoPageBreak enables automatic page breaks at margin from the bottom
// of the page.
func (d *Document) SetAutoPageBreak(auto bool, margin float64) {
	d.autoPageBreak = auto
	d.bMargin = margin
	d.pageBreakTrigger = d.h - margin
}

// SetDisplayMode sets the zoom and page layout used by viewers.
func (d *Document) SetDisplayMode(zoom, layoutMode string) error {
	z, err := layout.ParseZoomMode(zoom)
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidZoomMode, err, "")
	}
	l, err := layout.ParseLayoutMode(layoutMode)
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidLayoutMode, err, "")
	}
	d.zoom = z
	d.layoutMode = l
	return nil
}

// SetCompression enables or disables Flate compression.
func (d *Document) SetCompression(compress bool) {
	d.compress = compress
}

// SetTitle sets the document title.
func (d *Document) SetTitle(title string) { d.meta.Set("Title", title) }

// SetSubject sets the document subject.
func (d *Document) SetSubject(subject string) { d.meta.Set("Subject", subject) }

// SetAuthor sets the document author.
func (d *Document) SetAuthor(author string) { d.meta.Set("Author", author) }

// SetKeywords sets the document keywords.
func (d *Document) SetKeywords(keywords string) { d.meta.Set("Keywords", keywords) }

// SetCreator sets the application that created the content.
func (d *Document) SetCreator(creator string) { d.meta.Set("Creator", creator) }

// SetMetadata sets an info dictionary entry.
func (d *Document) SetMetadata(key, value string) { d.meta.Set(key, value) }

// SetCreationDate overrides the creation date.
func (d *Document) SetCreationDate(t time.Time) { d.meta.Created = t }

// Metadata returns the descriptive metadata of the document.
func (d *Document) Metadata() *metadata.DocumentMetadata { return d.meta }

// SetPDFVersion overrides the version written in the file header.
func (d *Document) SetPDFVersion(version string) { d.pdfVersion = version }

// AliasNbPages sets the placeholder replaced by the page count. An empty
// alias means {nb}.
func (d *Document) AliasNbPages(alias string) {
	if alias == "" {
		alias = DefaultAlias
	}
	d.aliasNbPages = alias
}

// SetHeaderFunc sets the function called at the start of every page.
func (d *Document) SetHeaderFunc(fn func()) { d.headerFunc = fn }

// SetFooterFunc sets the function called at the end of every page.
func (d *Document) SetFooterFunc(fn func()) { d.footerFunc = fn }

// SetAcceptPageBreakFunc sets the function deciding whether an automatic
// page break happens. By default it follows SetAutoPageBreak.
func (d *Document) SetAcceptPageBreakFunc(fn func() bool) { d.acceptBreakFunc = fn }

// AcceptPageBreak reports whether an automatic page break may happen.
func (d *Document) AcceptPageBreak() bool {
	if d.acceptBreakFunc != nil {
		return d.acceptBreakFunc()
	}
	return d.autoPageBreak
}

// SetProtection encrypts the document with the RC4 40-bit standard
// handler. permissions holds print, modify, copy and annot-forms.
func (d *Document) SetProtection(permissions []string, userPassword, ownerPassword string) error {
	if err := d.protection.SetProtection(permissions, userPassword, ownerPassword, d.fileID); err != nil {
		return pdferror.Wrap(pdferror.InvalidStream, err, "protection")
	}
	return nil
}

// IsEncrypted reports whether protection is enabled.
func (d *Document) IsEncrypted() bool {
	return d.protection.IsEncrypted()
}

// FileID returns the first element of the trailer /ID.
func (d *Document) FileID() []byte {
	return d.fileID
}

// SetXMP replaces the generated XMP packet.
func (d *Document) SetXMP(packet string) {
	d.xmp = metadata.StripXMLDeclaration(packet)
}

// SetColorProfilePath sets the ICC profile written as output intent.
func (d *Document) SetColorProfilePath(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidColorProfilePath, err, "color profile file does not exist `%s`", path)
	}
	if fi.IsDir() {
		return pdferror.New(pdferror.InvalidColorProfilePath, "color profile `%s` is a directory", path)
	}
	d.colorProfilePath = path
	return nil
}

// AttachFile embeds the file at path. An empty name means the base name
// of path.
func (d *Document) AttachFile(path, name, desc, mimeType, relationship string) error {
	a, err := embed.FromFile(path, name, desc, mimeType, relationship)
	if err != nil {
		return pdferror.Wrap(pdferror.AttachmentInvalidPath, err, "")
	}
	d.attachments = append(d.attachments, a)
	return nil
}

// AttachContent embeds data under name.
func (d *Document) AttachContent(data []byte, name, desc, mimeType, relationship string) {
	d.attachments = append(d.attachments, embed.FromContent(data, name, desc, mimeType, relationship, d.clock()))
}

// SetOpenAttachmentPane makes viewers open the attachments panel.
func (d *Document) SetOpenAttachmentPane(open bool) {
	d.openAttachmentPane = open
}

// Open starts the document. Adding a page opens it implicitly.
func (d *Document) Open() {
	if d.state == StateNotInitialized {
		d.state = StateInitialized
	}
}

// Close finishes the last page and serializes the document. Closing a
// document without pages adds an empty one.
func (d *Document) Close() error {
	if d.terminated() {
		return nil
	}
	if d.page == 0 {
		if err := d.AddPage("", ""); err != nil {
			return err
		}
	}
	d.runFooter()
	d.endPage()
	return d.endDoc()
}

// AddPage starts a new page. Empty arguments mean the default orientation
// and the default size. Font, line width and colors carry over.
func (d *Document) AddPage(orientation, size string) error {
	o, err := layout.ParseOrientation(orientation, "")
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidOrientation, err, "")
	}
	var ps *layout.PageSize
	if size != "" {
		s, err := layout.ParsePageSize(size)
		if err != nil {
			return pdferror.Wrap(pdferror.InvalidPageSize, err, "")
		}
		ps = &s
	}
	return d.addPage(o, ps)
}

// AddPageFormat starts a new page of the given size in points.
func (d *Document) AddPageFormat(orientation string, size layout.PageSize) error {
	o, err := layout.ParseOrientation(orientation, "")
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidOrientation, err, "")
	}
	if size.Width <= 0 || size.Height <= 0 {
		return pdferror.New(pdferror.InvalidPageSize, "%gx%g", size.Width, size.Height)
	}
	return d.addPage(o, &size)
}

func (d *Document) addPage(o layout.Orientation, size *layout.PageSize) error {
	if d.terminated() {
		return nil
	}
	if d.state == StateNotInitialized {
		d.Open()
	}
	family := d.fontFamily
	style := d.fontStyle
	if d.underline {
		style += "U"
	}
	fontSize := d.fontSizePt
	lw := d.lineWidth
	dc, fc, tc, cf := d.drawColor, d.fillColor, d.textColor, d.colorFlag

	if d.page > 0 {
		d.runFooter()
		d.endPage()
	}
	d.beginPage(o, size)

	d.out("2 J")
	d.lineWidth = lw
	d.outf("%.2F w", lw*d.k)
	if family != "" {
		if err := d.SetFont(family, style, fontSize); err != nil {
			return err
		}
	}
	d.drawColor = dc
	if dc != "0 G" {
		d.out(dc)
	}
	d.fillColor = fc
	if fc != "0 g" {
		d.out(fc)
	}
	d.textColor = tc
	d.colorFlag = cf

	if d.headerFunc != nil {
		d.inHeader = true
		d.headerFunc()
		d.inHeader = false
	}

	if d.lineWidth != lw {
		d.lineWidth = lw
		d.outf("%.2F w", lw*d.k)
	}
	if family != "" {
		if err := d.SetFont(family, style, fontSize); err != nil {
			return err
		}
	}
	if d.drawColor != dc {
		d.drawColor = dc
		d.out(dc)
	}
	if d.fillColor != fc {
		d.fillColor = fc
		d.out(fc)
	}
	d.textColor = tc
	d.colorFlag = cf
	return nil
}

func (d *Document) runFooter() {
	if d.footerFunc == nil || d.page == 0 {
		return
	}
	d.inFooter = true
	d.footerFunc()
	d.inFooter = false
}

func (d *Document) beginPage(o layout.Orientation, size *layout.PageSize) {
	d.pages = append(d.pages, &page{})
	d.page = len(d.pages)
	d.state = StateCreating
	d.x = d.lMargin
	d.y = d.tMargin
	d.fontFamily = ""

	if o == "" {
		o = d.defOrientation
	}
	s := d.defPageSize
	if size != nil {
		s = *size
	}
	if o != d.curOrientation || s != d.curPageSize {
		oriented := s.Oriented(o)
		d.wPt, d.hPt = oriented.Width, oriented.Height
		d.w, d.h = d.wPt/d.k, d.hPt/d.k
		d.pageBreakTrigger = d.h - d.bMargin
		d.curOrientation = o
		d.curPageSize = s
	}
	if o != d.defOrientation || s != d.defPageSize {
		d.pages[d.page-1].size = &layout.PageSize{Width: d.wPt, Height: d.hPt}
	}
	d.logger.Debug("page started", observability.Int("page", d.page),
		observability.Float("width", d.wPt), observability.Float("height", d.hPt))
}

func (d *Document) endPage() {
	d.state = StateInitialized
}

// PageNo returns the current page number.
func (d *Document) PageNo() int {
	return d.page
}

// SetPage makes page n current. Content added afterwards goes to that
// page.
func (d *Document) SetPage(n int) {
	if n >= 1 && n <= len(d.pages) {
		d.page = n
	}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// GetScaleFactor returns the number of points in one user unit.
func (d *Document) GetScaleFactor() float64 {
	return d.k
}

// GetPageWidth returns the width of the current page in user units.
func (d *Document) GetPageWidth() float64 {
	return d.w
}

// GetPageHeight returns the height of the current page in user units.
func (d *Document) GetPageHeight() float64 {
	return d.h
}

// GetMargins returns the left, top, right and bottom margins.
func (d *Document) GetMargins() layout.Margins {
	return layout.Margins{Left: d.lMargin, Top: d.tMargin, Right: d.rMargin, Bottom: d.bMargin}
}

// GetX returns the abscissa of the cursor.
func (d *Document) GetX() float64 {
	return d.x
}

// SetX moves the cursor horizontally. A negative value is measured from
// the right edge.
func (d *Document) SetX(x float64) {
	if x >= 0 {
		d.x = x
	} else {
		d.x = d.w + x
	}
}

// GetY returns the ordinate of the cursor.
func (d *Document) GetY() float64 {
	return d.y
}

// SetY moves the cursor vertically and back to the left margin. A
// negative value is measured from the bottom edge.
func (d *Document) SetY(y float64) {
	d.x = d.lMargin
	if y >= 0 {
		d.y = y
	} else {
		d.y = d.h + y
	}
}

// SetXY moves the cursor.
func (d *Document) SetXY(x, y float64) {
	d.SetY(y)
	d.SetX(x)
}

// GetXY returns the cursor position.
func (d *Document) GetXY() (float64, float64) {
	return d.x, d.y
}

// Ln moves to the start of the next line. A negative h means the height
// of the last cell.
func (d *Document) Ln(h float64) {
	if d.terminated() {
		return
	}
	d.x = d.lMargin
	if h < 0 {
		d.y += d.lastH
	} else {
		d.y += h
	}
}
