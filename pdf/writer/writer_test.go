package writer

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/georgepadayatti/csfpdf/pdf/crypt"
)

// writeSample writes a small document with reserved objects emitted out of
// order, the way pages and resources are.
func writeSample(b *Buffer) {
	b.Header("1.6")
	b.NewObject()
	b.Out("<</Type /Page /Parent 1 0 R>>")
	b.Out("endobj")
	b.PutStreamObject("", []byte("BT ET"))
	b.SetOffset(PagesObject)
	b.Out("<</Type /Pages /Kids [3 0 R] /Count 1>>")
	b.Out("endobj")
	b.SetOffset(ResourcesObject)
	b.Out("<<>>")
	b.Out("endobj")
	b.NewObject()
	b.Out("<</Type /Catalog /Pages 1 0 R>>")
	b.Out("endobj")
	xref := b.Xref()
	b.Trailer([]string{"/Root 5 0 R"}, xref)
}

func TestObjectNumbering(t *testing.T) {
	b := NewBuffer(nil)
	if b.Count() != 2 || b.Current() != 2 {
		t.Fatalf("fresh buffer Count=%d Current=%d, want 2 2", b.Count(), b.Current())
	}
	for want := 3; want < 6; want++ {
		if got := b.NewObject(); got != want {
			t.Errorf("NewObject() = %d, want %d", got, want)
		}
		b.Out("endobj")
	}
	if b.Count() != 5 {
		t.Errorf("Count() = %d, want 5", b.Count())
	}
}

func TestSetOffsetRejectsUnreserved(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for unreserved object")
		}
	}()
	NewBuffer(nil).SetOffset(3)
}

func TestXrefOffsets(t *testing.T) {
	b := NewBuffer(nil)
	writeSample(b)
	out := b.Bytes()

	m := regexp.MustCompile(`startxref\n(\d+)\n%%EOF\n$`).FindSubmatch(out)
	if m == nil {
		t.Fatalf("missing startxref in:\n%s", out)
	}
	xref, _ := strconv.Atoi(string(m[1]))
	if !bytes.HasPrefix(out[xref:], []byte("xref\n0 6\n0000000000 65535 f \n")) {
		t.Fatalf("startxref does not point at the xref table: %q", out[xref:xref+20])
	}

	lines := strings.Split(string(out[xref:]), "\n")[3:8]
	for i, line := range lines {
		if len(line) != 19 || !strings.HasSuffix(line, " 00000 n ") {
			t.Fatalf("malformed xref entry %q", line)
		}
		offset, err := strconv.Atoi(line[:10])
		if err != nil {
			t.Fatal(err)
		}
		want := strconv.Itoa(i+1) + " 0 obj\n"
		if !bytes.HasPrefix(out[offset:], []byte(want)) {
			t.Errorf("object %d offset %d points at %q", i+1, offset, out[offset:offset+len(want)])
		}
		if offset != b.Offset(i+1) {
			t.Errorf("Offset(%d) = %d, xref says %d", i+1, b.Offset(i+1), offset)
		}
	}

	if !bytes.Contains(out, []byte("trailer\n<<\n/Size 6\n/Root 5 0 R\n>>\n")) {
		t.Errorf("unexpected trailer in:\n%s", out[xref:])
	}
}

func TestHeader(t *testing.T) {
	b := NewBuffer(nil)
	b.Header("1.4")
	if diff := cmp.Diff("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n", string(b.Bytes())); diff != "" {
		t.Errorf("Header mismatch (-want +got):\n%s", diff)
	}
}

func TestPutStreamObject(t *testing.T) {
	b := NewBuffer(nil)
	n := b.PutStreamObject("/Filter /FlateDecode ", []byte("abc"))
	want := "3 0 obj\n<</Filter /FlateDecode /Length 3>>\nstream\nabc\nendstream\nendobj\n"
	if n != 3 || string(b.Bytes()) != want {
		t.Errorf("PutStreamObject = %d %q, want 3 %q", n, b.Bytes(), want)
	}
}

func TestEncryptedStrings(t *testing.T) {
	p := crypt.NewProtection()
	if err := p.SetProtection([]string{"print"}, "user", "owner", []byte("0123456789abcdef")); err != nil {
		t.Fatal(err)
	}
	b := NewBuffer(p)
	n := b.NewObject()

	got := b.TextString("Hello")
	cipher := p.Cipher(p.ObjectKey(n), []byte("Hello"))
	if got == "(Hello)" {
		t.Fatal("TextString was not encrypted")
	}
	// RC4 is symmetric; decrypting the unescaped body restores the text.
	body := strings.NewReplacer(`\\`, `\`, `\(`, `(`, `\)`, `)`, `\r`, "\r").Replace(got[1 : len(got)-1])
	if body != string(cipher) {
		t.Errorf("TextString body %q, want %q", body, cipher)
	}
	if plain := p.Cipher(p.ObjectKey(n), []byte(body)); string(plain) != "Hello" {
		t.Errorf("decrypted %q, want Hello", plain)
	}

	b.PutStream([]byte("0 0 m"))
	if bytes.Contains(b.Bytes(), []byte("0 0 m")) {
		t.Error("stream data was written in clear text")
	}
}

func TestPlainTextString(t *testing.T) {
	b := NewBuffer(crypt.NewProtection())
	if got := b.TextString("a(b)"); got != `(a\(b\))` {
		t.Errorf("TextString = %q", got)
	}
}

func TestUnicodeString(t *testing.T) {
	b := NewBuffer(nil)
	if got := b.UnicodeString("plain"); got != "(plain)" {
		t.Errorf("UnicodeString(plain) = %q", got)
	}
	if got := b.UnicodeString("é"); got != "(\xFE\xFF\x00\xE9)" {
		t.Errorf("UnicodeString(é) = %q", got)
	}
}

func TestComputeFileID(t *testing.T) {
	a := ComputeFileID("csFPDF 3.0", "20260101120000")
	b := ComputeFileID("csFPDF 3.0", "20260101120000")
	c := ComputeFileID("csFPDF 3.0", "20260101120001")
	if len(a) != 16 || !bytes.Equal(a, b) || bytes.Equal(a, c) {
		t.Errorf("ComputeFileID not deterministic or not distinct: %x %x %x", a, b, c)
	}
	if got := HexString([]byte{0xAB, 0x01}); got != "<AB01>" {
		t.Errorf("HexString = %q", got)
	}
}
