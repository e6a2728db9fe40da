package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/georgepadayatti/csfpdf/pdf/filters"
)

func createTestPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	// Fill with a pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: 128,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func createTestJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

func createTestGrayImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	return img
}

// createAlphaImage returns an image whose alpha channel varies per pixel,
// which forces a color type 6 PNG.
func createAlphaImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 20), B: uint8(x ^ y), A: uint8(x*y + 1)})
		}
	}
	return img
}

func TestLookup(t *testing.T) {
	for _, typ := range []string{"jpg", "JPEG", "png", "gif", "webp", "bmp", "tif", "TIFF"} {
		if _, err := Lookup(typ); err != nil {
			t.Errorf("Lookup(%q) failed: %v", typ, err)
		}
	}
	if _, err := Lookup("svg"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Lookup(svg) error = %v, want ErrUnsupportedImage", err)
	}
	if NormalizeType("JPeG") != "jpg" {
		t.Error("NormalizeType should fold jpeg to jpg")
	}
}

func TestParseJPEG(t *testing.T) {
	rgb := image.NewRGBA(image.Rect(0, 0, 30, 20))
	tests := []struct {
		name string
		data []byte
		cs   string
	}{
		{"rgb", createTestJPEG(rgb), ColorSpaceRGB},
		{"gray", createTestJPEG(createTestGrayImage(30, 20)), ColorSpaceGray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseJPEG(bytes.NewReader(tt.data), tt.name)
			if err != nil {
				t.Fatalf("ParseJPEG failed: %v", err)
			}
			if info.Width != 30 || info.Height != 20 {
				t.Errorf("Dimensions = %dx%d, want 30x20", info.Width, info.Height)
			}
			if info.ColorSpace != tt.cs {
				t.Errorf("ColorSpace = %s, want %s", info.ColorSpace, tt.cs)
			}
			if info.BitsPerComponent != 8 || info.Filter != FilterDCT {
				t.Errorf("Unexpected encoding %d %s", info.BitsPerComponent, info.Filter)
			}
			if !bytes.Equal(info.Data, tt.data) {
				t.Error("JPEG data must pass through unchanged")
			}
		})
	}
}

func TestParseJPEGInvalid(t *testing.T) {
	if _, err := ParseJPEG(bytes.NewReader(createTestPNG(2, 2)), "x.jpg"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("PNG data as JPEG: error = %v, want ErrUnsupportedImage", err)
	}
	if _, err := ParseJPEG(bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xE0}), "x.jpg"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("truncated JPEG: error = %v, want ErrInvalidImage", err)
	}
}

func TestParsePNGRGB(t *testing.T) {
	info, err := ParsePNG(bytes.NewReader(createTestPNG(16, 8)), "rgb.png")
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if info.Width != 16 || info.Height != 8 || info.ColorSpace != ColorSpaceRGB || info.BitsPerComponent != 8 {
		t.Errorf("Unexpected header %+v", info)
	}
	if want := "/Predictor 15 /Colors 3 /BitsPerComponent 8 /Columns 16"; info.DecodeParms != want {
		t.Errorf("DecodeParms = %q, want %q", info.DecodeParms, want)
	}
	if info.HasAlpha() {
		t.Error("Opaque image should have no soft mask")
	}

	raw, err := (&filters.FlateDecodeFilter{}).Decode(info.Data, filters.PNGParams(3, 8, 16))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(raw) != 16*8*3 {
		t.Fatalf("len(raw) = %d, want %d", len(raw), 16*8*3)
	}
	// pixel (5, 3)
	at := (3*16 + 5) * 3
	if diff := cmp.Diff([]byte{5, 3, 128}, raw[at:at+3]); diff != "" {
		t.Errorf("pixel mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePNGAlpha(t *testing.T) {
	img := createAlphaImage(9, 7)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	info, err := ParsePNG(&buf, "alpha.png")
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if !info.HasAlpha() || info.ColorSpace != ColorSpaceRGB {
		t.Fatalf("Expected RGB image with soft mask, got %s alpha=%v", info.ColorSpace, info.HasAlpha())
	}

	rgb, err := (&filters.FlateDecodeFilter{}).Decode(info.Data, filters.PNGParams(3, 8, 9))
	if err != nil {
		t.Fatalf("color Decode failed: %v", err)
	}
	alpha, err := (&filters.FlateDecodeFilter{}).Decode(info.SMask, filters.PNGParams(1, 8, 9))
	if err != nil {
		t.Fatalf("alpha Decode failed: %v", err)
	}

	var wantRGB, wantAlpha []byte
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			c := img.NRGBAAt(x, y)
			wantRGB = append(wantRGB, c.R, c.G, c.B)
			wantAlpha = append(wantAlpha, c.A)
		}
	}
	if diff := cmp.Diff(wantRGB, rgb); diff != "" {
		t.Errorf("color samples mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantAlpha, alpha); diff != "" {
		t.Errorf("alpha samples mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePNGGray(t *testing.T) {
	var buf bytes.Buffer
	png.Encode(&buf, createTestGrayImage(4, 4))
	info, err := ParsePNG(&buf, "gray.png")
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if info.ColorSpace != ColorSpaceGray {
		t.Errorf("ColorSpace = %s, want %s", info.ColorSpace, ColorSpaceGray)
	}
	if want := "/Predictor 15 /Colors 1 /BitsPerComponent 8 /Columns 4"; info.DecodeParms != want {
		t.Errorf("DecodeParms = %q", info.DecodeParms)
	}
}

func TestParsePNGIndexed(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{A: 0},
		color.NRGBA{B: 255, A: 255},
	}
	img := image.NewPaletted(image.Rect(0, 0, 3, 3), pal)
	img.SetColorIndex(1, 1, 1)

	var buf bytes.Buffer
	png.Encode(&buf, img)
	info, err := ParsePNG(&buf, "indexed.png")
	if err != nil {
		t.Fatalf("ParsePNG failed: %v", err)
	}
	if info.ColorSpace != ColorSpaceIndexed {
		t.Fatalf("ColorSpace = %s, want %s", info.ColorSpace, ColorSpaceIndexed)
	}
	if diff := cmp.Diff([]byte{255, 0, 0, 0, 0, 0, 0, 0, 255}, info.Palette); diff != "" {
		t.Errorf("Palette mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, info.Transparency); diff != "" {
		t.Errorf("Transparency mismatch (-want +got):\n%s", diff)
	}
}

func TestTransparency(t *testing.T) {
	tests := []struct {
		colorType byte
		trns      []byte
		want      []int
	}{
		{0, []byte{0, 7}, []int{7}},
		{2, []byte{0, 1, 0, 2, 0, 3}, []int{1, 2, 3}},
		{3, []byte{255, 255, 0, 128}, []int{2}},
		{3, []byte{255, 128}, nil},
		{2, []byte{0, 1}, nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, transparency(tt.colorType, tt.trns)); diff != "" {
			t.Errorf("transparency(%d, %v) mismatch (-want +got):\n%s", tt.colorType, tt.trns, diff)
		}
	}
}

func TestParsePNGErrors(t *testing.T) {
	valid := createTestPNG(4, 4)

	sixteen := new(bytes.Buffer)
	png.Encode(sixteen, image.NewRGBA64(image.Rect(0, 0, 2, 2)))

	interlaced := append([]byte(nil), valid...)
	// IHDR interlace byte
	interlaced[28] = 1

	// forged length of the chunk following IHDR
	forged := func(n uint32) []byte {
		b := append([]byte(nil), valid...)
		binary.BigEndian.PutUint32(b[33:], n)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not png", []byte("GIF89a........"), ErrUnsupportedImage},
		{"empty", nil, ErrUnsupportedImage},
		{"16-bit", sixteen.Bytes(), ErrUnsupportedImage},
		{"interlaced", interlaced, ErrUnsupportedImage},
		{"truncated header", valid[:20], ErrInvalidStream},
		{"truncated data", valid[:len(valid)-20], ErrInvalidStream},
		{"chunk length over limit", forged(0xFFFFFFF0), ErrInvalidStream},
		{"chunk length past end", forged(0x7FFFFFF0), ErrInvalidStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePNG(bytes.NewReader(tt.data), tt.name)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseBridged(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 5, 4))
	for i := range rgba.Pix {
		rgba.Pix[i] = 255
	}

	var gifBuf, bmpBuf, tiffBuf bytes.Buffer
	if err := gif.Encode(&gifBuf, rgba, nil); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, rgba); err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(&tiffBuf, rgba, nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		typ  string
		data []byte
	}{
		{"gif", gifBuf.Bytes()},
		{"bmp", bmpBuf.Bytes()},
		{"tiff", tiffBuf.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			parse, err := Lookup(tt.typ)
			if err != nil {
				t.Fatal(err)
			}
			info, err := parse(bytes.NewReader(tt.data), "image."+tt.typ)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if info.Width != 5 || info.Height != 4 || info.Filter != FilterFlate {
				t.Errorf("Unexpected image %dx%d %s", info.Width, info.Height, info.Filter)
			}
		})
	}

	if _, err := ParseWebP(bytes.NewReader([]byte("RIFF....WEBP")), "bad.webp"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("bad webp: error = %v, want ErrInvalidImage", err)
	}
}

func TestFromImageWideSamples(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA64(x, y, color.RGBA64{R: 0xFFFF, G: 0x8080, B: 0, A: 0xFFFF})
		}
	}
	info, err := FromImage(img, "wide")
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if info.BitsPerComponent != 8 {
		t.Errorf("BitsPerComponent = %d, want 8", info.BitsPerComponent)
	}

	if _, err := FromImage(image.NewRGBA(image.Rect(0, 0, 0, 0)), "empty"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("empty image: error = %v, want ErrInvalidImage", err)
	}
}
