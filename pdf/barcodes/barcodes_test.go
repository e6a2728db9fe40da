// Package barcodes provides barcode generation tests.
package barcodes

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/georgepadayatti/csfpdf/pdf/layout"
)

// BarcodeType tests

func TestBarcodeTypeString(t *testing.T) {
	tests := []struct {
		btype    BarcodeType
		expected string
	}{
		{TypeEAN13, "EAN-13"},
		{TypeUPCA, "UPC-A"},
		{TypeCode128, "Code128"},
		{TypeCode39, "Code39"},
		{BarcodeType(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		result := tt.btype.String()
		if result != tt.expected {
			t.Errorf("BarcodeType(%d).String() = %q, want %q", tt.btype, result, tt.expected)
		}
	}
}

func TestBarcodePattern(t *testing.T) {
	barcode := &Barcode{
		Encoded: []bool{true, false, true, true, false},
	}
	if barcode.Width() != 5 {
		t.Errorf("Width() = %d, want 5", barcode.Width())
	}
	if pattern := barcode.Pattern(); pattern != "10110" {
		t.Errorf("Pattern() = %q, want %q", pattern, "10110")
	}
}

// EAN tests

func TestEAN13CheckDigit(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"400638133393", 1},
		{"590123412345", 7},
		{"003600029145", 2},
		{"000000000000", 0},
	}
	for _, tt := range tests {
		got, err := EAN13CheckDigit(tt.code)
		if err != nil {
			t.Fatalf("EAN13CheckDigit(%s) failed: %v", tt.code, err)
		}
		if got != tt.want {
			t.Errorf("EAN13CheckDigit(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}

	if _, err := EAN13CheckDigit("123"); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("short code: error = %v, want ErrInvalidLength", err)
	}
}

func TestEncodeEAN13(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"check digit appended", "400638133393", "4006381333931"},
		{"check digit verified", "5901234123457", "5901234123457"},
		{"left padded", "123", "0000000001236"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc, err := EncodeEAN13(tt.code)
			if err != nil {
				t.Fatalf("EncodeEAN13 failed: %v", err)
			}
			if bc.Data != tt.want {
				t.Errorf("Data = %q, want %q", bc.Data, tt.want)
			}
			p := bc.Pattern()
			if len(p) != 95 {
				t.Fatalf("pattern length = %d, want 95", len(p))
			}
			if p[:3] != "101" || p[45:50] != "01010" || p[92:] != "101" {
				t.Errorf("guard bars missing in %s", p)
			}
		})
	}
}

func TestEncodeEAN13Parity(t *testing.T) {
	bc, err := EncodeEAN13("4006381333931")
	if err != nil {
		t.Fatal(err)
	}
	p := bc.Pattern()
	// Leading 4 selects LGLLGG: the first 0 uses L, the second G.
	if p[3:10] != "0001101" || p[10:17] != "0100111" {
		t.Errorf("left half parity wrong: %s", p[3:17])
	}
	// Right half uses R patterns: 3 then 3.
	if p[50:57] != "1000010" {
		t.Errorf("right half wrong: %s", p[50:57])
	}
}

func TestEncodeEAN13Errors(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"4006381333932", ErrIncorrectCheckDigit},
		{"12a", ErrInvalidCharacter},
		{"12345678901234", ErrInvalidLength},
	}
	for _, tt := range tests {
		if _, err := EncodeEAN13(tt.code); !errors.Is(err, tt.want) {
			t.Errorf("EncodeEAN13(%q) error = %v, want %v", tt.code, err, tt.want)
		}
	}
}

func TestEncodeUPCA(t *testing.T) {
	bc, err := EncodeUPCA("03600029145")
	if err != nil {
		t.Fatalf("EncodeUPCA failed: %v", err)
	}
	if bc.Type != TypeUPCA || bc.Data != "0036000291452" {
		t.Errorf("got %v %q", bc.Type, bc.Data)
	}

	if _, err := EncodeUPCA("036000291452"); err != nil {
		t.Errorf("full UPC-A code rejected: %v", err)
	}
	if _, err := EncodeUPCA("036000291453"); !errors.Is(err, ErrIncorrectCheckDigit) {
		t.Errorf("error = %v, want ErrIncorrectCheckDigit", err)
	}
}

// Code128 tests

func code128Values(t *testing.T, bc *Barcode) []int {
	t.Helper()
	p := bc.Pattern()
	var values []int
	for i := 0; i+11 <= len(p)-14; i += 11 {
		v := -1
		for j, pat := range code128Patterns[:106] {
			if pat == p[i:i+11] {
				v = j
				break
			}
		}
		if v < 0 {
			t.Fatalf("unknown symbol %s at %d", p[i:i+11], i)
		}
		values = append(values, v)
	}
	return values
}

func TestEncodeCode128(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		want  []int
		check int
	}{
		{"digits use set C", "123456", []int{105, 12, 34, 56, 44}, 44},
		{"upper case uses set A", "ABC", []int{103, 33, 34, 35, 0}, 0},
		{"lower case uses set B", "abc", []int{104, 65, 66, 67, 90}, 90},
		{"switch to C for digit run", "AB1234", []int{103, 33, 34, 99, 12, 34, 101}, 101},
		{"FNC1 in set C", FNC1 + "0101234", []int{105, 102, 1, 1, 23, 101, 20, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc, err := EncodeCode128(tt.data)
			if err != nil {
				t.Fatalf("EncodeCode128 failed: %v", err)
			}
			if bc.Checksum != tt.check {
				t.Errorf("Checksum = %d, want %d", bc.Checksum, tt.check)
			}
			if diff := cmp.Diff(tt.want, code128Values(t, bc)); diff != "" {
				t.Errorf("symbols mismatch (-want +got):\n%s", diff)
			}
			if !strings.HasSuffix(bc.Pattern(), "11000111010110") {
				t.Error("missing stop pattern")
			}
			if got, want := bc.Width(), len(tt.want)*11+14; got != want {
				t.Errorf("Width() = %d, want %d", got, want)
			}
		})
	}
}

func TestEncodeCode128Errors(t *testing.T) {
	if _, err := EncodeCode128(""); !errors.Is(err, ErrInvalidData) {
		t.Errorf("empty: error = %v, want ErrInvalidData", err)
	}
	if _, err := EncodeCode128("a\xffb"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("byte 255: error = %v, want ErrInvalidCharacter", err)
	}
}

// Code39 tests

func TestCode39CheckChar(t *testing.T) {
	c, err := Code39CheckChar("CODE39")
	if err != nil {
		t.Fatal(err)
	}
	if c != 'W' {
		t.Errorf("Code39CheckChar(CODE39) = %c, want W", c)
	}
	if _, err := Code39CheckChar("abc"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("lower case: error = %v, want ErrInvalidCharacter", err)
	}
}

func TestEncodeCode39(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		opts    Code39Options
		data    string
		symbols int
		module  int
	}{
		{"basic", "abc", Code39Options{}, "abc", 5, 12},
		{"accents stripped", "été", Code39Options{}, "ete", 5, 12},
		{"extended pairs", "a", Code39Options{Extended: true}, "a", 4, 12},
		{"checksum", "CODE39", Code39Options{Checksum: true}, "CODE39", 9, 12},
		{"wide", "1", Code39Options{Wide: true, Gap: 2}, "1", 3, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc, err := EncodeCode39(tt.code, tt.opts)
			if err != nil {
				t.Fatalf("EncodeCode39 failed: %v", err)
			}
			if bc.Data != tt.data {
				t.Errorf("Data = %q, want %q", bc.Data, tt.data)
			}
			gap := max(tt.opts.Gap, 1)
			if want := tt.symbols * (tt.module + gap); bc.Width() != want {
				t.Errorf("Width() = %d, want %d", bc.Width(), want)
			}
		})
	}

	bc, _ := EncodeCode39("CODE39", Code39Options{Checksum: true})
	if bc.Checksum != 32 {
		t.Errorf("Checksum = %d, want 32", bc.Checksum)
	}
	if !strings.HasPrefix(bc.Pattern(), code39Patterns['*']+"0") {
		t.Error("missing start character")
	}
}

func TestEncodeCode39Errors(t *testing.T) {
	tests := []struct {
		code string
		opts Code39Options
	}{
		{"a_b", Code39Options{}},
		{"€", Code39Options{Extended: true}},
	}
	for _, tt := range tests {
		if _, err := EncodeCode39(tt.code, tt.opts); !errors.Is(err, ErrInvalidCharacter) {
			t.Errorf("EncodeCode39(%q) error = %v, want ErrInvalidCharacter", tt.code, err)
		}
	}
}

func TestStripAccents(t *testing.T) {
	tests := map[string]string{
		"àâäéèêëìîïòôöùûü": "aaaeeeeiiiooouuu",
		"Crème Brûlée":     "Creme Brulee",
		"plain":            "plain",
	}
	for in, want := range tests {
		if got := StripAccents(in); got != want {
			t.Errorf("StripAccents(%q) = %q, want %q", in, got, want)
		}
	}
}

// Drawing tests

type rect struct{ x, y, w, h float64 }

type recorder struct {
	rects []rect
	cells []string
	texts []string
	fonts []string
	x, y  float64
}

func (r *recorder) Rect(x, y, w, h float64, style string) {
	r.rects = append(r.rects, rect{x, y, w, h})
}

func (r *recorder) Cell(w, h float64, txt, border string, ln int, align string, fill bool, link layout.Link) error {
	r.cells = append(r.cells, txt)
	return nil
}

func (r *recorder) SetXY(x, y float64) { r.x, r.y = x, y }

func (r *recorder) Text(x, y float64, txt string) error {
	r.texts = append(r.texts, txt)
	return nil
}

func (r *recorder) SetFont(family, style string, size float64) error {
	r.fonts = append(r.fonts, family)
	return nil
}

func (r *recorder) GetUserFontSize() float64 { return 4 }

func (r *recorder) empty() bool {
	return len(r.rects)+len(r.cells)+len(r.texts)+len(r.fonts) == 0
}

func TestDrawEAN13(t *testing.T) {
	r := &recorder{}
	if err := EAN13(r, 10, 20, "400638133393", 1, 10); err != nil {
		t.Fatalf("EAN13 failed: %v", err)
	}
	bc, _ := EncodeEAN13("400638133393")
	if want := strings.Count(bc.Pattern(), "1"); len(r.rects) != want {
		t.Errorf("drew %d bars, want %d", len(r.rects), want)
	}
	if r.rects[0] != (rect{10, 20, 1, 11}) {
		t.Errorf("first guard bar = %+v", r.rects[0])
	}
	if r.rects[2].h != 10 {
		t.Errorf("data bar height = %v, want 10", r.rects[2].h)
	}
	if diff := cmp.Diff([]string{"4", "006381", "333931"}, r.cells); diff != "" {
		t.Errorf("digits mismatch (-want +got):\n%s", diff)
	}
}

func TestDrawValidatesFirst(t *testing.T) {
	r := &recorder{}
	if err := EAN13(r, 0, 0, "4006381333932", 1, 10); !errors.Is(err, ErrIncorrectCheckDigit) {
		t.Errorf("error = %v, want ErrIncorrectCheckDigit", err)
	}
	if err := Code39(r, 0, 0, "a_b", Code39Options{}, 1, 10); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("error = %v, want ErrInvalidCharacter", err)
	}
	if !r.empty() {
		t.Error("invalid barcodes must not draw anything")
	}
}

func TestDrawEAN128(t *testing.T) {
	r := &recorder{}
	if err := EAN128(r, 5, 5, "ABC", 69, 10); err != nil {
		t.Fatalf("EAN128 failed: %v", err)
	}
	// 69 modules wide, so one module per unit.
	first, last := r.rects[0], r.rects[len(r.rects)-1]
	if first != (rect{5, 5, 2, 10}) {
		t.Errorf("first bar = %+v", first)
	}
	if last.x+last.w != 5+68 {
		t.Errorf("last bar ends at %v, want 73", last.x+last.w)
	}
}

func TestDrawCode39(t *testing.T) {
	r := &recorder{}
	if err := Code39(r, 0, 0, "AB", Code39Options{}, 0.4, 20); err != nil {
		t.Fatalf("Code39 failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Arial"}, r.fonts); diff != "" {
		t.Errorf("fonts mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AB"}, r.texts); diff != "" {
		t.Errorf("texts mismatch:\n%s", diff)
	}
	// Wide bar width selects a two module gap.
	bc, _ := EncodeCode39("AB", Code39Options{Gap: 2})
	if want := strings.Count(bc.Pattern(), "1"); len(r.rects) != want {
		t.Errorf("drew %d modules, want %d", len(r.rects), want)
	}
}
