package embed

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/georgepadayatti/csfpdf/pdf/filters"
	"github.com/georgepadayatti/csfpdf/pdf/writer"
)

var modTime = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.xml")
	if err := os.WriteFile(path, []byte("<invoice/>"), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := FromFile(path, "", "Invoice data", MimeTypeXML, AFRelationshipData)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if a.Name != "invoice.xml" || string(a.Data) != "<invoice/>" || a.ModTime.IsZero() {
		t.Errorf("Unexpected attachment %+v", a)
	}

	if _, err := FromFile(filepath.Join(dir, "missing.txt"), "", "", "", ""); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("missing file: error = %v, want ErrInvalidPath", err)
	}
}

func TestDefaults(t *testing.T) {
	a := FromContent([]byte("x"), "a.bin", "", "", "", modTime)
	if a.MimeType != MimeTypeBinary || a.Relationship != AFRelationshipUnspecified {
		t.Errorf("defaults = %q %q", a.MimeType, a.Relationship)
	}
	if got := a.Subtype(); got != "/application#2Foctet-stream" {
		t.Errorf("Subtype() = %q", got)
	}
}

func TestWrite(t *testing.T) {
	a := FromContent([]byte("hello world"), "note.txt", "A note", MimeTypeText, AFRelationshipSupplement, modTime)
	b := writer.NewBuffer(nil)
	spec := Write(b, a, false)
	out := string(b.Bytes())

	if spec != 3 {
		t.Errorf("spec object = %d, want 3", spec)
	}
	for _, want := range []string{
		"3 0 obj\n<<\n/Type /Filespec\n/F (note.txt)\n/UF (note.txt)\n/Desc (A note)\n/EF <</F 4 0 R /UF 4 0 R>>\n/AFRelationship /Supplement\n>>\nendobj\n",
		"4 0 obj\n<</Type /EmbeddedFile /Subtype /text#2Fplain /Params <</CheckSum <5EB63BBBE01EEED093CB22BB8F5ACDC3> /ModDate (D:20260501080000+00'00') /Size 11>> /Length 11>>\nstream\nhello world\nendstream\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q\ngot:\n%s", want, out)
		}
	}
}

func TestWriteCompressed(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 100)
	a := FromContent(data, "a.txt", "", MimeTypeText, "", modTime)
	b := writer.NewBuffer(nil)
	Write(b, a, true)
	out := b.Bytes()

	if !bytes.Contains(out, []byte("/Filter /FlateDecode /Params")) || !bytes.Contains(out, []byte("/Size 300>>")) {
		t.Fatalf("missing filter or size in:\n%s", out)
	}
	start := bytes.Index(out, []byte("stream\n")) + len("stream\n")
	end := bytes.Index(out, []byte("\nendstream"))
	plain, err := filters.Decompress(out[start:end])
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(plain, data) {
		t.Error("compressed stream does not round trip")
	}
}

func TestWriteAllAndNames(t *testing.T) {
	atts := []*Attachment{
		FromContent([]byte("1"), "zeta.txt", "", "", "", modTime),
		FromContent([]byte("2"), "alpha.txt", "", "", "", modTime),
	}
	b := writer.NewBuffer(nil)
	af, specs := WriteAll(b, atts, false)
	if af != 7 || len(specs) != 2 || specs[0] != 3 || specs[1] != 5 {
		t.Fatalf("WriteAll = %d %v, want 7 [3 5]", af, specs)
	}
	if !bytes.Contains(b.Bytes(), []byte("7 0 obj\n[3 0 R 5 0 R]\nendobj\n")) {
		t.Errorf("missing AF array in:\n%s", b.Bytes())
	}

	got := NamesEntry(b, atts, specs)
	want := "/Names <</EmbeddedFiles <</Names [(alpha.txt) 5 0 R (zeta.txt) 3 0 R]>>>>"
	if got != want {
		t.Errorf("NamesEntry = %q, want %q", got, want)
	}
}
