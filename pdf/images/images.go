// Package images decodes raster images into the form embedded in PDF
// image XObjects.
package images

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/georgepadayatti/csfpdf/pdf/filters"
)

// Common errors
var (
	ErrInvalidImage     = errors.New("invalid image data")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrInvalidStream    = errors.New("unexpected end of image stream")
)

// Color spaces of decoded images.
const (
	ColorSpaceGray    = "DeviceGray"
	ColorSpaceRGB     = "DeviceRGB"
	ColorSpaceCMYK    = "DeviceCMYK"
	ColorSpaceIndexed = "Indexed"
)

// Filters of decoded image data.
const (
	FilterDCT   = "DCTDecode"
	FilterFlate = "FlateDecode"
)

// Info is a decoded image ready to be written as an XObject.
type Info struct {
	Width            int
	Height           int
	ColorSpace       string
	BitsPerComponent int
	Filter           string
	// DecodeParms holds the predictor parameters of Flate data.
	DecodeParms string
	Palette     []byte
	// Transparency lists color key mask values.
	Transparency []int
	Data         []byte
	// SMask is the Flate compressed alpha channel, predicted like Data.
	SMask []byte
}

// HasAlpha reports whether the image carries a soft mask. Soft masks
// require PDF 1.4.
func (i *Info) HasAlpha() bool {
	return i.SMask != nil
}

// Parser decodes an image read from r. name identifies the source in
// error messages.
type Parser func(r io.Reader, name string) (*Info, error)

// Parsers maps a lowercase file type to its decoder.
var Parsers = map[string]Parser{
	"jpg":  ParseJPEG,
	"png":  ParsePNG,
	"gif":  ParseGIF,
	"webp": ParseWebP,
	"bmp":  ParseBMP,
	"tif":  ParseTIFF,
	"tiff": ParseTIFF,
}

// NormalizeType lowercases an image type and folds aliases.
func NormalizeType(typ string) string {
	typ = strings.ToLower(typ)
	if typ == "jpeg" {
		return "jpg"
	}
	return typ
}

// Lookup returns the parser for typ.
func Lookup(typ string) (Parser, error) {
	p, ok := Parsers[NormalizeType(typ)]
	if !ok {
		return nil, fmt.Errorf("%w: type %q", ErrUnsupportedImage, typ)
	}
	return p, nil
}

// ParseJPEG passes JPEG data through unchanged for DCTDecode.
func ParseJPEG(r io.Reader, name string) (*Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidStream, name, err)
	}
	if len(data) < 3 || data[0] != 0xFF || data[1] != 0xD8 || data[2] != 0xFF {
		return nil, fmt.Errorf("%w: not a JPEG file: %s", ErrUnsupportedImage, name)
	}
	config, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidImage, name, err)
	}

	cs := ColorSpaceRGB
	switch config.ColorModel {
	case color.GrayModel:
		cs = ColorSpaceGray
	case color.CMYKModel:
		cs = ColorSpaceCMYK
	}

	return &Info{
		Width:            config.Width,
		Height:           config.Height,
		ColorSpace:       cs,
		BitsPerComponent: 8,
		Filter:           FilterDCT,
		Data:             data,
	}, nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

type chunkReader struct {
	r io.Reader
}

// maxChunkLen is the largest chunk length a PNG stream may declare.
const maxChunkLen = 1<<31 - 1

// read returns the next n bytes. The buffer grows with the data actually
// read, so a forged length fails on the short read instead of allocating.
func (c chunkReader) read(n int) ([]byte, error) {
	if n < 0 || n > maxChunkLen {
		return nil, ErrInvalidStream
	}
	var buf bytes.Buffer
	if m, err := io.CopyN(&buf, c.r, int64(n)); err != nil || m != int64(n) {
		return nil, ErrInvalidStream
	}
	return buf.Bytes(), nil
}

func (c chunkReader) readInt() (int, error) {
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(b)), nil
}

// ParsePNG reads a PNG stream chunk by chunk. The IDAT data is kept
// compressed; alpha channels are split into a separate soft mask.
// Bit depths above 8 and interlaced images are not supported.
func ParsePNG(r io.Reader, name string) (*Info, error) {
	info, err := parsePNG(chunkReader{bufio.NewReader(r)}, name)
	if errors.Is(err, ErrInvalidStream) {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	return info, err
}

func parsePNG(c chunkReader, name string) (*Info, error) {
	sig, err := c.read(8)
	if err != nil || !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("%w: not a PNG file: %s", ErrUnsupportedImage, name)
	}

	if _, err := c.read(4); err != nil {
		return nil, err
	}
	typ, err := c.read(4)
	if err != nil {
		return nil, err
	}
	if string(typ) != "IHDR" {
		return nil, fmt.Errorf("%w: incorrect PNG file: %s", ErrUnsupportedImage, name)
	}
	width, err := c.readInt()
	if err != nil {
		return nil, err
	}
	height, err := c.readInt()
	if err != nil {
		return nil, err
	}
	hdr, err := c.read(5)
	if err != nil {
		return nil, err
	}
	bpc, colorType := int(hdr[0]), hdr[1]
	if bpc > 8 {
		return nil, fmt.Errorf("%w: 16-bit depth not supported: %s", ErrUnsupportedImage, name)
	}
	var cs string
	switch colorType {
	case 0, 4:
		cs = ColorSpaceGray
	case 2, 6:
		cs = ColorSpaceRGB
	case 3:
		cs = ColorSpaceIndexed
	default:
		return nil, fmt.Errorf("%w: unknown color type %d: %s", ErrUnsupportedImage, colorType, name)
	}
	switch {
	case hdr[2] != 0:
		return nil, fmt.Errorf("%w: unknown compression method: %s", ErrUnsupportedImage, name)
	case hdr[3] != 0:
		return nil, fmt.Errorf("%w: unknown filter method: %s", ErrUnsupportedImage, name)
	case hdr[4] != 0:
		return nil, fmt.Errorf("%w: interlacing not supported: %s", ErrUnsupportedImage, name)
	}
	if _, err := c.read(4); err != nil {
		return nil, err
	}

	colors := 1
	if cs == ColorSpaceRGB {
		colors = 3
	}
	info := &Info{
		Width:            width,
		Height:           height,
		ColorSpace:       cs,
		BitsPerComponent: bpc,
		Filter:           FilterFlate,
		DecodeParms:      filters.PNGParams(colors, bpc, width).String(),
	}

	var data bytes.Buffer
chunks:
	for {
		n, err := c.readInt()
		if err != nil {
			return nil, err
		}
		typ, err := c.read(4)
		if err != nil {
			return nil, err
		}
		if string(typ) == "IEND" {
			break chunks
		}
		body, err := c.read(n)
		if err != nil {
			return nil, err
		}
		switch string(typ) {
		case "PLTE":
			info.Palette = body
		case "tRNS":
			info.Transparency = transparency(colorType, body)
		case "IDAT":
			data.Write(body)
		}
		// CRC
		if _, err := c.read(4); err != nil {
			return nil, err
		}
	}

	if cs == ColorSpaceIndexed && len(info.Palette) == 0 {
		return nil, fmt.Errorf("%w: missing palette in %s", ErrUnsupportedImage, name)
	}

	info.Data = data.Bytes()
	if colorType >= 4 {
		if err := splitAlpha(info, colorType); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return info, nil
}

func transparency(colorType byte, t []byte) []int {
	switch colorType {
	case 0:
		if len(t) >= 2 {
			return []int{int(t[1])}
		}
	case 2:
		if len(t) >= 6 {
			return []int{int(t[1]), int(t[3]), int(t[5])}
		}
	default:
		if i := bytes.IndexByte(t, 0); i >= 0 {
			return []int{i}
		}
	}
	return nil
}

// splitAlpha separates interleaved color and alpha samples. Each output
// scanline keeps the original filter type byte; since every sample is
// predicted from the same sample of the neighbouring pixel, the split
// data stays valid for the reduced pixel width.
func splitAlpha(info *Info, colorType byte) error {
	raw, err := filters.Decompress(info.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	colorBytes := 1
	if colorType == 6 {
		colorBytes = 3
	}
	pixel := colorBytes + 1
	rowLen := 1 + pixel*info.Width
	if len(raw) < rowLen*info.Height {
		return ErrInvalidStream
	}

	colorData := make([]byte, 0, (1+colorBytes*info.Width)*info.Height)
	alphaData := make([]byte, 0, (1+info.Width)*info.Height)
	for y := 0; y < info.Height; y++ {
		row := raw[y*rowLen : (y+1)*rowLen]
		colorData = append(colorData, row[0])
		alphaData = append(alphaData, row[0])
		for x := 1; x < rowLen; x += pixel {
			colorData = append(colorData, row[x:x+colorBytes]...)
			alphaData = append(alphaData, row[x+colorBytes])
		}
	}
	info.Data = filters.Compress(colorData)
	info.SMask = filters.Compress(alphaData)
	return nil
}

// FromImage encodes img as an 8-bit PNG in memory and parses the result.
func FromImage(img image.Image, name string) (*Info, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image: %s", ErrInvalidImage, name)
	}
	switch img.ColorModel() {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model:
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		img = dst
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidImage, name, err)
	}
	return ParsePNG(&buf, name)
}

func bridge(decode func(io.Reader) (image.Image, error)) Parser {
	return func(r io.Reader, name string) (*Info, error) {
		img, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("%w: missing or incorrect image file: %s: %v", ErrInvalidImage, name, err)
		}
		return FromImage(img, name)
	}
}

// ParseGIF decodes the first frame of a GIF through the PNG path.
var ParseGIF = Parser(bridge(gif.Decode))

// ParseWebP decodes a WebP image through the PNG path.
var ParseWebP = Parser(bridge(webp.Decode))

// ParseBMP decodes a BMP image through the PNG path.
var ParseBMP = Parser(bridge(bmp.Decode))

// ParseTIFF decodes a TIFF image through the PNG path.
var ParseTIFF = Parser(bridge(tiff.Decode))
