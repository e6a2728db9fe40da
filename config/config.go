// Package config loads YAML document descriptions and applies them to a
// document.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/csfpdf/pdf/crypt"
	"github.com/georgepadayatti/csfpdf/pdf/layout"
	"github.com/georgepadayatti/csfpdf/pdf/metadata"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
)

// Common errors
var (
	ErrConfigurationError   = errors.New("configuration error")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrUnexpectedField      = errors.New("unexpected field in configuration")
	ErrInvalidValue         = errors.New("invalid value")
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func missing(field string) *ConfigError {
	return &ConfigError{Field: field, Message: "required field is missing", Err: ErrMissingRequiredField}
}

func invalid(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: err.Error(), Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
}

// DocumentConfig describes a document: page setup, resources, metadata
// and the blocks drawn on its pages.
type DocumentConfig struct {
	// Page is the default page setup.
	Page *PageConfig `yaml:"page" json:"page,omitempty"`

	// Margins overrides the default margins.
	Margins *MarginsConfig `yaml:"margins" json:"margins,omitempty"`

	// FontPath is the directory searched for font files.
	FontPath string `yaml:"font-path" json:"font_path,omitempty"`

	// CachePath is the font metrics cache directory.
	CachePath string `yaml:"cache-path" json:"cache_path,omitempty"`

	// Compression enables Flate compression. Defaults to true.
	Compression *bool `yaml:"compression" json:"compression,omitempty"`

	// AliasNbPages is the total page count placeholder.
	AliasNbPages string `yaml:"alias-nb-pages" json:"alias_nb_pages,omitempty"`

	// Fonts are registered before drawing.
	Fonts []FontConfig `yaml:"fonts" json:"fonts,omitempty"`

	// Metadata holds the info dictionary values.
	Metadata *MetadataConfig `yaml:"metadata" json:"metadata,omitempty"`

	// Protection enables encryption.
	Protection *ProtectionConfig `yaml:"protection" json:"protection,omitempty"`

	// Display sets the viewer zoom and layout.
	Display *DisplayConfig `yaml:"display" json:"display,omitempty"`

	// ColorProfile is the path of an ICC profile used as output intent.
	ColorProfile string `yaml:"color-profile" json:"color_profile,omitempty"`

	// Attachments are embedded files.
	Attachments []AttachmentConfig `yaml:"attachments" json:"attachments,omitempty"`

	// Blocks are drawn in order.
	Blocks []BlockConfig `yaml:"blocks" json:"blocks,omitempty"`

	// Logging configures the logger.
	Logging *LoggingConfig `yaml:"logging" json:"logging,omitempty"`
}

// PageConfig contains the default page setup.
type PageConfig struct {
	// Orientation is P, L, portrait or landscape.
	Orientation string `yaml:"orientation" json:"orientation,omitempty"`

	// Unit is pt, mm, cm or in.
	Unit string `yaml:"unit" json:"unit,omitempty"`

	// Size is a named size. Width and Height give a custom size instead.
	Size string `yaml:"size" json:"size,omitempty"`

	// Width and Height are in user units.
	Width  float64 `yaml:"width" json:"width,omitempty"`
	Height float64 `yaml:"height" json:"height,omitempty"`
}

// MarginsConfig contains page margins in user units. Unset values keep
// their defaults.
type MarginsConfig struct {
	Left   *float64 `yaml:"left" json:"left,omitempty"`
	Top    *float64 `yaml:"top" json:"top,omitempty"`
	Right  *float64 `yaml:"right" json:"right,omitempty"`
	Bottom *float64 `yaml:"bottom" json:"bottom,omitempty"`

	// AutoPageBreak defaults to true.
	AutoPageBreak *bool `yaml:"auto-page-break" json:"auto_page_break,omitempty"`
}

// FontConfig registers a font.
type FontConfig struct {
	Family string `yaml:"family" json:"family"`
	Style  string `yaml:"style" json:"style,omitempty"`

	// File is a .ttf program or a .json descriptor, relative to the font
	// path.
	File string `yaml:"file" json:"file,omitempty"`
}

// MetadataConfig contains the document information.
type MetadataConfig struct {
	Title    string `yaml:"title" json:"title,omitempty"`
	Subject  string `yaml:"subject" json:"subject,omitempty"`
	Author   string `yaml:"author" json:"author,omitempty"`
	Keywords string `yaml:"keywords" json:"keywords,omitempty"`
	Creator  string `yaml:"creator" json:"creator,omitempty"`

	// CreationDate is a PDF date such as D:20260314150926+01'00'.
	CreationDate string `yaml:"creation-date" json:"creation_date,omitempty"`

	// Custom holds extra info dictionary entries.
	Custom map[string]string `yaml:"custom" json:"custom,omitempty"`

	// XMPFile replaces the generated XMP packet.
	XMPFile string `yaml:"xmp-file" json:"xmp_file,omitempty"`
}

// ProtectionConfig enables RC4 encryption.
type ProtectionConfig struct {
	// Permissions holds print, modify, copy and annot-forms.
	Permissions   []string `yaml:"permissions" json:"permissions,omitempty"`
	UserPassword  string   `yaml:"user-password" json:"user_password,omitempty"`
	OwnerPassword string   `yaml:"owner-password" json:"owner_password,omitempty"`
}

// DisplayConfig contains viewer preferences.
type DisplayConfig struct {
	// Zoom is fullpage, fullwidth, real, default or a percentage.
	Zoom string `yaml:"zoom" json:"zoom,omitempty"`

	// Layout is single, continuous, two or default.
	Layout string `yaml:"layout" json:"layout,omitempty"`

	// OpenAttachments opens the attachments panel.
	OpenAttachments bool `yaml:"open-attachments" json:"open_attachments,omitempty"`
}

// AttachmentConfig embeds a file.
type AttachmentConfig struct {
	Path         string `yaml:"path" json:"path"`
	Name         string `yaml:"name" json:"name,omitempty"`
	Description  string `yaml:"description" json:"description,omitempty"`
	MimeType     string `yaml:"mime-type" json:"mime_type,omitempty"`
	Relationship string `yaml:"relationship" json:"relationship,omitempty"`
}

// Block types.
const (
	BlockPage      = "page"
	BlockFont      = "font"
	BlockColor     = "color"
	BlockCell      = "cell"
	BlockMultiCell = "multicell"
	BlockWrite     = "write"
	BlockText      = "text"
	BlockLn        = "ln"
	BlockLine      = "line"
	BlockRect      = "rect"
	BlockImage     = "image"
	BlockBarcode   = "barcode"
)

var blockTypes = map[string]bool{
	BlockPage: true, BlockFont: true, BlockColor: true, BlockCell: true,
	BlockMultiCell: true, BlockWrite: true, BlockText: true, BlockLn: true,
	BlockLine: true, BlockRect: true, BlockImage: true, BlockBarcode: true,
}

// Barcode kinds.
const (
	BarcodeEAN13  = "ean13"
	BarcodeUPCA   = "upca"
	BarcodeEAN128 = "ean128"
	BarcodeCode39 = "code39"
)

// BlockConfig is one drawing step. Type selects which fields are used.
type BlockConfig struct {
	Type string `yaml:"type" json:"type"`

	// page
	Orientation string `yaml:"orientation" json:"orientation,omitempty"`
	Size        string `yaml:"size" json:"size,omitempty"`

	// font
	Family   string  `yaml:"family" json:"family,omitempty"`
	Style    string  `yaml:"style" json:"style,omitempty"`
	FontSize float64 `yaml:"font-size" json:"font_size,omitempty"`

	// color: 1 gray, 3 RGB or 4 CMYK components.
	DrawColor []float64 `yaml:"draw-color" json:"draw_color,omitempty"`
	FillColor []float64 `yaml:"fill-color" json:"fill_color,omitempty"`
	TextColor []float64 `yaml:"text-color" json:"text_color,omitempty"`

	// geometry
	X      *float64 `yaml:"x" json:"x,omitempty"`
	Y      *float64 `yaml:"y" json:"y,omitempty"`
	X2     float64  `yaml:"x2" json:"x2,omitempty"`
	Y2     float64  `yaml:"y2" json:"y2,omitempty"`
	Width  float64  `yaml:"width" json:"width,omitempty"`
	Height float64  `yaml:"height" json:"height,omitempty"`

	// text
	Text   string `yaml:"text" json:"text,omitempty"`
	Border string `yaml:"border" json:"border,omitempty"`
	Ln     int    `yaml:"ln" json:"ln,omitempty"`
	Align  string `yaml:"align" json:"align,omitempty"`
	Fill   bool   `yaml:"fill" json:"fill,omitempty"`
	Link   string `yaml:"link" json:"link,omitempty"`

	// rect
	RectStyle string `yaml:"rect-style" json:"rect_style,omitempty"`

	// image
	Path      string `yaml:"path" json:"path,omitempty"`
	ImageType string `yaml:"image-type" json:"image_type,omitempty"`

	// barcode
	Kind     string `yaml:"kind" json:"kind,omitempty"`
	Code     string `yaml:"code" json:"code,omitempty"`
	Checksum bool   `yaml:"checksum" json:"checksum,omitempty"`
	Extended bool   `yaml:"extended" json:"extended,omitempty"`
	Wide     bool   `yaml:"wide" json:"wide,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level,omitempty"`

	// Output is the log output (stdout or stderr).
	Output string `yaml:"output" json:"output,omitempty"`
}

// SetDefaults sets default values for logging configuration.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Logger returns a text logger writing to stdout or stderr.
func (c *LoggingConfig) Logger(stdout, stderr io.Writer) observability.Logger {
	w := stderr
	if c.Output == "stdout" {
		w = stdout
	}
	return observability.NewTextLogger(w, observability.ParseLevel(c.Level))
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	switch c.Output {
	case "", "stdout", "stderr":
		return nil
	}
	return NewConfigError("logging.output", fmt.Sprintf("must be stdout or stderr, got %q", c.Output))
}

// Load loads a document configuration from a YAML file.
func Load(filename string) (*DocumentConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a document configuration from YAML data. Unknown keys are
// rejected.
func Parse(data []byte) (*DocumentConfig, error) {
	var config DocumentConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedField, err)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Logging == nil {
		config.Logging = &LoggingConfig{}
	}
	config.Logging.SetDefaults()
	return &config, nil
}

// LoadFromMap loads a configuration from a map.
func LoadFromMap(data map[string]any) (*DocumentConfig, error) {
	// Marshal to YAML then unmarshal to struct
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config map: %w", err)
	}
	return Parse(yamlData)
}

// Validate checks every value that can be checked without touching the
// file system.
func (c *DocumentConfig) Validate() error {
	if p := c.Page; p != nil {
		if _, err := layout.ParseOrientation(p.Orientation, layout.Portrait); err != nil {
			return invalid("page.orientation", err)
		}
		if p.Unit != "" {
			if _, err := layout.ParseUnit(p.Unit); err != nil {
				return invalid("page.unit", err)
			}
		}
		if p.Size != "" {
			if _, err := layout.ParsePageSize(p.Size); err != nil {
				return invalid("page.size", err)
			}
		}
		if (p.Width != 0 || p.Height != 0) && (p.Width <= 0 || p.Height <= 0) {
			return NewConfigError("page", "custom width and height must both be positive")
		}
	}
	for i, f := range c.Fonts {
		if f.Family == "" {
			return missing(fmt.Sprintf("fonts[%d].family", i))
		}
	}
	if m := c.Metadata; m != nil && m.CreationDate != "" {
		if _, err := metadata.ParsePDFDate(m.CreationDate); err != nil {
			return invalid("metadata.creation-date", err)
		}
	}
	if p := c.Protection; p != nil {
		if _, err := crypt.ParsePermissions(p.Permissions); err != nil {
			return invalid("protection.permissions", err)
		}
	}
	if d := c.Display; d != nil {
		if _, err := layout.ParseZoomMode(d.Zoom); err != nil {
			return invalid("display.zoom", err)
		}
		if _, err := layout.ParseLayoutMode(d.Layout); err != nil {
			return invalid("display.layout", err)
		}
	}
	for i, a := range c.Attachments {
		if a.Path == "" {
			return missing(fmt.Sprintf("attachments[%d].path", i))
		}
	}
	for i := range c.Blocks {
		if err := c.Blocks[i].validate(fmt.Sprintf("blocks[%d]", i)); err != nil {
			return err
		}
	}
	if c.Logging != nil {
		return c.Logging.Validate()
	}
	return nil
}

func (b *BlockConfig) validate(field string) error {
	if b.Type == "" {
		return missing(field + ".type")
	}
	if !blockTypes[b.Type] {
		return NewConfigError(field+".type", fmt.Sprintf("unknown block type %q", b.Type))
	}
	switch b.Type {
	case BlockPage:
		if _, err := layout.ParseOrientation(b.Orientation, layout.Portrait); err != nil {
			return invalid(field+".orientation", err)
		}
		if b.Size != "" {
			if _, err := layout.ParsePageSize(b.Size); err != nil {
				return invalid(field+".size", err)
			}
		}
	case BlockColor:
		for name, values := range map[string][]float64{
			"draw-color": b.DrawColor, "fill-color": b.FillColor, "text-color": b.TextColor,
		} {
			switch len(values) {
			case 0, 1, 3, 4:
			default:
				return NewConfigError(field+"."+name, fmt.Sprintf("needs 1, 3 or 4 components, got %d", len(values)))
			}
		}
	case BlockText:
		if b.X == nil || b.Y == nil {
			return missing(field + ".x/y")
		}
	case BlockImage:
		if b.Path == "" {
			return missing(field + ".path")
		}
	case BlockBarcode:
		switch b.Kind {
		case BarcodeEAN13, BarcodeUPCA, BarcodeEAN128, BarcodeCode39:
		case "":
			return missing(field + ".kind")
		default:
			return NewConfigError(field+".kind", fmt.Sprintf("unknown barcode kind %q", b.Kind))
		}
		if b.Code == "" {
			return missing(field + ".code")
		}
		if b.Kind == BarcodeEAN128 && b.Width <= 0 {
			return NewConfigError(field+".width", "ean128 needs the total barcode width")
		}
		if b.X == nil || b.Y == nil {
			return missing(field + ".x/y")
		}
	}
	return nil
}
