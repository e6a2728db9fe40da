// Package filters provides the FlateDecode stream filter used for page
// content, font programs and image data.
package filters

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// Common errors
var (
	ErrUnsupportedFilter = errors.New("unsupported filter")
	ErrDecodeFailed      = errors.New("decode failed")
)

// PredictorParams mirrors a /DecodeParms dictionary for FlateDecode.
type PredictorParams struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

// PNGParams returns PNG-predictor parameters (Predictor 15) for rows of
// columns pixels with the given number of color components.
func PNGParams(colors, bitsPerComponent, columns int) *PredictorParams {
	return &PredictorParams{Predictor: 15, Colors: colors, BitsPerComponent: bitsPerComponent, Columns: columns}
}

// String formats the parameters as dictionary entries.
func (p *PredictorParams) String() string {
	return fmt.Sprintf("/Predictor %d /Colors %d /BitsPerComponent %d /Columns %d",
		p.Predictor, p.Colors, p.BitsPerComponent, p.Columns)
}

// Filter represents a PDF stream filter.
type Filter interface {
	Decode(data []byte, params *PredictorParams) ([]byte, error)
	Encode(data []byte) ([]byte, error)
	Name() string
}

// FlateDecodeFilter implements the FlateDecode filter (zlib compression).
type FlateDecodeFilter struct {
	Level int
}

// Name implements Filter.
func (f *FlateDecodeFilter) Name() string {
	return "FlateDecode"
}

// Decode implements Filter.
func (f *FlateDecodeFilter) Decode(data []byte, params *PredictorParams) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	result := buf.Bytes()
	if params != nil && params.Predictor >= 10 {
		bpc := params.BitsPerComponent
		if bpc == 0 {
			bpc = 8
		}
		colors := params.Colors
		if colors == 0 {
			colors = 1
		}
		bytesPerPixel := (colors*bpc + 7) / 8
		rowLength := (params.Columns*colors*bpc+7)/8 + 1
		return Unfilter(result, rowLength, bytesPerPixel)
	}
	return result, nil
}

// Encode implements Filter.
func (f *FlateDecodeFilter) Encode(data []byte) ([]byte, error) {
	level := f.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flate encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

var flate = &FlateDecodeFilter{}

// Compress deflates data with zlib framing. Writing to a bytes.Buffer
// cannot fail, so no error is returned.
func Compress(data []byte) []byte {
	out, _ := flate.Encode(data)
	return out
}

// Decompress inflates zlib data.
func Decompress(data []byte) ([]byte, error) {
	return flate.Decode(data, nil)
}

// Unfilter reverses PNG row filtering. rowLength includes the leading
// filter-type byte.
func Unfilter(data []byte, rowLength, bytesPerPixel int) ([]byte, error) {
	if len(data) == 0 || rowLength < 2 {
		return data, nil
	}
	if len(data)%rowLength != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte rows", ErrDecodeFailed, len(data), rowLength)
	}

	width := rowLength - 1
	output := make([]byte, 0, len(data)/rowLength*width)
	prev := make([]byte, width)

	for i := 0; i < len(data); i += rowLength {
		kind := data[i]
		row := data[i+1 : i+rowLength]
		cur := make([]byte, width)

		for j := range row {
			var left, upLeft byte
			if j >= bytesPerPixel {
				left = cur[j-bytesPerPixel]
				upLeft = prev[j-bytesPerPixel]
			}
			up := prev[j]

			switch kind {
			case 0:
				cur[j] = row[j]
			case 1:
				cur[j] = row[j] + left
			case 2:
				cur[j] = row[j] + up
			case 3:
				cur[j] = row[j] + byte((int(left)+int(up))/2)
			case 4:
				cur[j] = row[j] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("%w: unknown row filter %d", ErrDecodeFailed, kind)
			}
		}

		output = append(output, cur...)
		prev = cur
	}

	return output, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Registry holds the filters the writer knows how to produce.
var Registry = map[string]Filter{
	"FlateDecode": flate,
	"Fl":          flate,
}

// GetFilter returns a filter by name.
func GetFilter(name string) (Filter, error) {
	if f, ok := Registry[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, name)
}
