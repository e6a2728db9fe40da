package fonts

import (
	"encoding/json"
	"fmt"
	"os"
)

// descriptorFile is the JSON definition of a Type1 or TrueType font
// drawn with a single-byte encoding.
type descriptorFile struct {
	Type         Type   `json:"type"`
	Name         string `json:"name"`
	Desc         Desc   `json:"desc"`
	Up           int    `json:"up"`
	Ut           int    `json:"ut"`
	CW           []int  `json:"cw"`
	Enc          string `json:"enc,omitempty"`
	Diff         string `json:"diff,omitempty"`
	File         string `json:"file,omitempty"`
	OriginalSize int64  `json:"originalsize,omitempty"`
	Size1        int64  `json:"size1,omitempty"`
	Size2        int64  `json:"size2,omitempty"`
}

// LoadDescriptor reads a JSON font definition. The record is data only;
// nothing in it is executed.
func LoadDescriptor(path string) (*Font, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDescriptor(raw)
}

// ParseDescriptor decodes a JSON font definition.
func ParseDescriptor(raw []byte) (*Font, error) {
	var d descriptorFile
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("%w: missing font name", ErrInvalidFont)
	}
	switch d.Type {
	case TypeType1, TypeTrueType:
	default:
		return nil, fmt.Errorf("%w: descriptor type %q", ErrUnsupportedFormat, d.Type)
	}
	if len(d.CW) != 256 {
		return nil, fmt.Errorf("%w: %d character widths, want 256", ErrInvalidFont, len(d.CW))
	}
	if d.File != "" {
		if d.Type == TypeTrueType && d.OriginalSize == 0 {
			return nil, fmt.Errorf("%w: embedded TrueType program without originalsize", ErrInvalidFont)
		}
		if d.Type == TypeType1 && d.Size1 == 0 {
			return nil, fmt.Errorf("%w: embedded Type1 program without size1", ErrInvalidFont)
		}
	}

	f := &Font{
		Type:         d.Type,
		Name:         d.Name,
		Desc:         d.Desc,
		Up:           d.Up,
		Ut:           d.Ut,
		Enc:          d.Enc,
		Diff:         d.Diff,
		File:         d.File,
		OriginalSize: d.OriginalSize,
		Size1:        d.Size1,
		Size2:        d.Size2,
	}
	copy(f.CharWidths[:], d.CW)
	return f, nil
}

// DiffTable deduplicates encoding differences across descriptor fonts.
// Indices start at 1 in registration order.
type DiffTable struct {
	diffs []string
}

// Index returns the index of diff, adding it if unseen.
func (t *DiffTable) Index(diff string) int {
	for i, d := range t.diffs {
		if d == diff {
			return i + 1
		}
	}
	t.diffs = append(t.diffs, diff)
	return len(t.diffs)
}

// All returns the differences in index order.
func (t *DiffTable) All() []string {
	return t.diffs
}
