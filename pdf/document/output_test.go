package document

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/georgepadayatti/csfpdf/pdf/layout"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
)

func helloDocument(t *testing.T, opts ...Option) *Document {
	t.Helper()
	d := newDoc(t, opts...)
	if err := d.AddPage("", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.SetFont("Arial", "B", 16); err != nil {
		t.Fatal(err)
	}
	if err := d.Cell(40, 10, "Hello World!", "", 0, "", false, Link{}); err != nil {
		t.Fatal(err)
	}
	return d
}

func output(t *testing.T, d *Document) string {
	t.Helper()
	data, err := d.Output(DestString, "")
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	return string(data)
}

func TestHelloDocument(t *testing.T) {
	got := output(t, helloDocument(t))

	if !strings.HasPrefix(got, "%PDF-1.6\n") {
		t.Errorf("header = %q", got[:10])
	}
	if !strings.HasSuffix(got, "%%EOF\n") {
		t.Error("missing end of file marker")
	}
	for _, want := range []string{
		"1 0 obj\n<</Type /Pages\n/Kids [3 0 R ]\n/Count 1\n",
		"3 0 obj\n<</Type /Page\n/Parent 1 0 R\n",
		"/Contents 4 0 R>>",
		"BT /F1 16.00 Tf ET",
		"(Hello World!) Tj ET",
		"/BaseFont /Helvetica-Bold",
		"/Encoding /WinAnsiEncoding",
		"2 0 obj\n<<\n/ProcSet [/PDF /Text /ImageB /ImageC /ImageI]\n/Font <<\n/F1 5 0 R\n>>",
		"/Type /Catalog\n/Pages 1 0 R\n",
		"/Producer ",
		"/CreationDate (D:20260314150926",
		"/Type /Metadata /Subtype /XML",
		"trailer\n<<\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(got, "/Encrypt") {
		t.Error("unprotected document has an /Encrypt entry")
	}
}

func TestXrefOffsets(t *testing.T) {
	checkXref(t, output(t, helloDocument(t)))
}

// checkXref verifies that every cross-reference entry points at its
// object header and that startxref points at the table.
func checkXref(t *testing.T, got string) {
	t.Helper()
	start := strings.LastIndex(got, "\nxref\n")
	if start < 0 {
		t.Fatal("no xref section")
	}
	lines := strings.Split(got[start+1:], "\n")
	var first, count int
	if _, err := fmt.Sscanf(lines[1], "%d %d", &first, &count); err != nil || first != 0 {
		t.Fatalf("bad subsection header %q", lines[1])
	}
	if lines[2] != "0000000000 65535 f " {
		t.Errorf("free entry = %q", lines[2])
	}
	for n := 1; n < count; n++ {
		entry := lines[2+n]
		off, err := strconv.Atoi(entry[:10])
		if err != nil {
			t.Fatalf("entry %d = %q", n, entry)
		}
		if want := strconv.Itoa(n) + " 0 obj\n"; !strings.HasPrefix(got[off:], want) {
			t.Errorf("object %d offset %d points at %q", n, off, got[off:off+12])
		}
	}
	if !strings.Contains(got, "/Size "+strconv.Itoa(count)+"\n") {
		t.Errorf("trailer /Size does not match %d entries", count)
	}

	m := regexp.MustCompile(`startxref\n(\d+)\n%%EOF`).FindStringSubmatch(got)
	if m == nil || m[1] != strconv.Itoa(start+1) {
		t.Errorf("startxref = %v, want %d", m, start+1)
	}
}

func TestOutputReturnsCopy(t *testing.T) {
	d := helloDocument(t)
	first, err := d.Output(DestString, "")
	if err != nil {
		t.Fatal(err)
	}
	want := string(first)
	first[0] = 'X'
	if got := output(t, d); got != want {
		t.Error("modifying the returned bytes changed the document")
	}
}

func TestOutputLogsCounts(t *testing.T) {
	var buf bytes.Buffer
	d := helloDocument(t, WithLogger(observability.NewTextLogger(&buf, observability.LevelDebug)))
	data := output(t, d)

	for _, want := range []string{
		`msg="document closed"`,
		observability.MetricPages + "=1",
		observability.MetricOutputBytes + "=" + strconv.Itoa(len(data)),
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log lacks %q:\n%s", want, buf.String())
		}
	}
}

func TestOutputIdempotent(t *testing.T) {
	d := helloDocument(t, WithCompression(true))
	first := output(t, d)
	second := output(t, d)
	if first != second {
		t.Error("second Output differs from the first")
	}
	if d.State() != StateTerminated {
		t.Errorf("state = %v, want StateTerminated", d.State())
	}
	if strings.Contains(first, "Hello World!") {
		t.Error("compressed page content is readable")
	}
}

func TestTrailerID(t *testing.T) {
	d := helloDocument(t)
	got := output(t, d)
	id := strings.ToUpper(hex.EncodeToString(d.FileID()))
	want := "/ID [<" + id + "><" + id + ">]"
	if !strings.Contains(got, want) {
		t.Errorf("trailer missing %s", want)
	}
	if n := strings.Count(got, "/ID ["); n != 1 {
		t.Errorf("/ID appears %d times", n)
	}
}

func TestProtection(t *testing.T) {
	d := newDoc(t)
	if err := d.SetProtection([]string{"print", "copy"}, "user", "owner"); err != nil {
		t.Fatalf("SetProtection failed: %v", err)
	}
	if !d.IsEncrypted() {
		t.Fatal("IsEncrypted() = false")
	}
	d.SetTitle("Secret title")
	if err := d.AddPage("", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.SetFont("courier", "", 12); err != nil {
		t.Fatal(err)
	}
	if err := d.Cell(0, 10, "Secret text", "", 1, "", false, Link{}); err != nil {
		t.Fatal(err)
	}
	got := output(t, d)
	for _, leaked := range []string{"Secret text", "Secret title"} {
		if strings.Contains(got, leaked) {
			t.Errorf("%q appears in clear", leaked)
		}
	}
	for _, want := range []string{"/Filter /Standard", "/V 1", "/R 2", "/Encrypt "} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestAliasNbPages(t *testing.T) {
	d := newDoc(t)
	d.AliasNbPages("")
	d.SetFooterFunc(func() {
		d.SetY(-15)
		if err := d.Cell(0, 10, "Page "+strconv.Itoa(d.PageNo())+"/{nb}", "", 0, "C", false, Link{}); err != nil {
			t.Error(err)
		}
	})
	if err := d.SetFont("helvetica", "", 10); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := d.AddPage("", ""); err != nil {
			t.Fatal(err)
		}
	}
	got := output(t, d)
	if strings.Contains(got, "{nb}") {
		t.Error("alias left in the output")
	}
	for _, want := range []string{"(Page 1/3) Tj", "(Page 2/3) Tj", "(Page 3/3) Tj"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLinkAnnotations(t *testing.T) {
	d := newDoc(t)
	if err := d.SetFont("helvetica", "", 10); err != nil {
		t.Fatal(err)
	}
	if err := d.AddPage("", ""); err != nil {
		t.Fatal(err)
	}
	id := d.AddLink()
	if err := d.Cell(40, 10, "to page 2", "", 1, "", false, layout.Internal(id)); err != nil {
		t.Fatal(err)
	}
	if err := d.Write(5, "website", layout.URL("https://example.com")); err != nil {
		t.Fatal(err)
	}
	unset := d.AddLink()
	d.Link(10, 100, 10, 10, layout.Internal(unset))
	if err := d.AddPage("", ""); err != nil {
		t.Fatal(err)
	}
	d.SetLink(id, 0, -1)

	got := output(t, d)
	for _, want := range []string{
		"/Subtype /Link",
		"/A <</S /URI /URI (https://example.com)>>",
		"/Dest [5 0 R /XYZ 0 841.89 null]",
		"/Dest [3 0 R /XYZ 0 841.89 null]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
		img.Set(x, 1, color.NRGBA{B: 255, A: 128})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImages(t *testing.T) {
	d := newDoc(t)
	if err := d.AddPage("", ""); err != nil {
		t.Fatal(err)
	}
	data := testPNG(t)
	opts := ImageOptions{X: Float(10), Y: Float(20), Width: 40, Type: "png"}
	if err := d.ImageFromReader("logo", bytes.NewReader(data), opts); err != nil {
		t.Fatalf("ImageFromReader failed: %v", err)
	}
	// A registered image is drawn again without reading.
	if err := d.ImageFromReader("logo", bytes.NewReader(nil), ImageOptions{}); err != nil {
		t.Fatalf("second draw failed: %v", err)
	}
	if w, h, err := d.ImageSize("logo"); err != nil || w != 4 || h != 2 {
		t.Errorf("ImageSize() = %d, %d, %v", w, h, err)
	}

	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	y := d.GetY()
	if err := d.Image(path, ImageOptions{Width: 20}); err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if !floatEqual(d.GetY(), y+10) {
		t.Errorf("flowing image moved the cursor to %v, want %v", d.GetY(), y+10)
	}

	got := output(t, d)
	for _, want := range []string{
		"/Subtype /Image",
		"/SMask ",
		"/I1 Do Q",
		"/I2 Do Q",
		"/XObject <<\n/I1 ",
		"%PDF-1.6",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestAttachmentsAndXMP(t *testing.T) {
	d := newDoc(t)
	d.AttachContent([]byte("<invoice/>"), "factur-x.xml", "Invoice", "text/xml", "Alternative")
	d.SetOpenAttachmentPane(true)
	d.SetTitle("Invoice 42")
	got := output(t, d)
	for _, want := range []string{
		"/Type /Filespec",
		"/AFRelationship /Alternative",
		"/Names <</EmbeddedFiles <</Names [(factur-x.xml) ",
		"/PageMode /UseAttachments",
		"/AF ",
		"<x:xmpmeta",
		"Invoice 42",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestCustomXMP(t *testing.T) {
	d := newDoc(t)
	d.SetXMP(`<?xml version="1.0"?><x:xmpmeta xmlns:x="adobe:ns:meta/">custom</x:xmpmeta>`)
	got := output(t, d)
	if !strings.Contains(got, `<x:xmpmeta xmlns:x="adobe:ns:meta/">custom</x:xmpmeta>`) {
		t.Error("custom packet not written")
	}
	if strings.Contains(got, "<?xml") {
		t.Error("XML declaration not stripped")
	}
}

func TestDisplayModeCatalog(t *testing.T) {
	d := newDoc(t)
	if err := d.SetDisplayMode("fullpage", "two"); err != nil {
		t.Fatal(err)
	}
	got := output(t, d)
	if !strings.Contains(got, "/OpenAction [3 0 R /Fit]") || !strings.Contains(got, "/PageLayout /TwoColumnLeft") {
		t.Error("display mode missing from the catalog")
	}
}

func TestPageSizes(t *testing.T) {
	d := newDoc(t)
	if err := d.AddPage("", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.AddPage("L", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.AddPageFormat("", layout.PageSize{Width: 200, Height: 300}); err != nil {
		t.Fatal(err)
	}
	got := output(t, d)
	if n := strings.Count(got, "/MediaBox"); n != 3 {
		t.Errorf("found %d MediaBox entries, want 3", n)
	}
	for _, want := range []string{"/MediaBox [0 0 841.89 595.28]", "/MediaBox [0 0 200.00 300.00]", "/Count 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestOutputDestinations(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.pdf")
		d := helloDocument(t)
		if _, err := d.Output("f", path); err != nil {
			t.Fatalf("Output F failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("file not written: %v", err)
		}
	})

	t.Run("bad path", func(t *testing.T) {
		d := helloDocument(t)
		_, err := d.Output(DestFile, filepath.Join(t.TempDir(), "missing", "out.pdf"))
		wantCode(t, err, pdferror.OutputInvalidPath)
	})

	t.Run("inline", func(t *testing.T) {
		var buf bytes.Buffer
		d := helloDocument(t)
		d.SetOutputWriter(&buf)
		if _, err := d.Output(DestInline, ""); err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Error("nothing written inline")
		}
	})

	t.Run("download", func(t *testing.T) {
		d := helloDocument(t)
		_, err := d.Output(DestDownload, "")
		wantCode(t, err, pdferror.OutputInvalidDestination)

		rec := httptest.NewRecorder()
		d.SetDeliverer(HTTPDeliverer{W: rec})
		if _, err := d.Output(DestDownload, "report.pdf"); err != nil {
			t.Fatal(err)
		}
		if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="report.pdf"` {
			t.Errorf("Content-Disposition = %q", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := helloDocument(t).Output("X", "")
		wantCode(t, err, pdferror.OutputInvalidDestination)
	})
}

func TestWriteHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := helloDocument(t).WriteHTTP(rec, "", true); err != nil {
		t.Fatal(err)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename="doc.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestOutputTo(t *testing.T) {
	var buf bytes.Buffer
	d := helloDocument(t)
	if err := d.OutputTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != output(t, d) {
		t.Error("OutputTo differs from Output")
	}
}
