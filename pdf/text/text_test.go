package text

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "Hello"},
		{"a(b)c", `a\(b\)c`},
		{`back\slash`, `back\\slash`},
		{"line\rbreak", `line\rbreak`},
		{"keep\nnewline", "keep\nnewline"},
		{"\x00\xFF", "\x00\xFF"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUTF16BE(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "\x00A"},
		{"é", "\x00\xE9"},
		{"€", "\x20\xAC"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UTF16BE(tt.in); got != tt.want {
			t.Errorf("UTF16BE(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUTF16BEWithBOM(t *testing.T) {
	if got, want := UTF16BEWithBOM("Hi"), "\xFE\xFF\x00H\x00i"; got != want {
		t.Errorf("UTF16BEWithBOM = %q, want %q", got, want)
	}
}

func TestWinAnsi(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "Hello"},
		{"café", "caf\xE9"},
		{"€5", "\x805"},
		{"“quoted”", "\x93quoted\x94"},
		{"日本", "??"},
	}
	for _, tt := range tests {
		if got := ToWinAnsi(tt.in); got != tt.want {
			t.Errorf("ToWinAnsi(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FromWinAnsi("caf\xE9 \x80"); got != "café €" {
		t.Errorf("FromWinAnsi = %q", got)
	}
	if _, ok := WinAnsiByte('日'); ok {
		t.Error("WinAnsiByte should reject CJK")
	}
}

func TestOperators(t *testing.T) {
	if got := WordSpacing(1.5); got != "1.500 Tw" {
		t.Errorf("WordSpacing = %q", got)
	}
	if got := ShowText(28.35, 813.54, "Hi"); got != "BT 28.35 813.54 Td (Hi) Tj ET" {
		t.Errorf("ShowText = %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb\nc")
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("SplitLines mismatch (-want +got):\n%s", diff)
	}
}
