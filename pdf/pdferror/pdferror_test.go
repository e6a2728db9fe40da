package pdferror

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", &Error{Code: InvalidUnit}, "invalid unit"},
		{"with message", New(UndefinedFont, "%s", "courierBI"), "undefined font: courierBI"},
		{"wrapped", Wrap(OutputInvalidPath, fs.ErrNotExist, "out.pdf"), "invalid output path: out.pdf: file does not exist"},
		{"unknown code", &Error{Code: -99}, "error -99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("adding page: %w", New(InvalidPageSize, "a7"))
	if got := CodeOf(err); got != InvalidPageSize {
		t.Errorf("CodeOf() = %d, want %d", got, InvalidPageSize)
	}
	if got := CodeOf(errors.New("plain")); got != 0 {
		t.Errorf("CodeOf(plain) = %d, want 0", got)
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := Wrap(InvalidImage, errors.New("bad"), "logo.gif")
	if !errors.Is(err, &Error{Code: InvalidImage}) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(err, &Error{Code: UnsupportedImage}) {
		t.Error("errors.Is should not match a different code")
	}
}
