package metadata

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var created = time.Date(2026, 3, 14, 15, 9, 26, 0, time.FixedZone("CET", 3600))

func TestXmpArrayTypeString(t *testing.T) {
	tests := []struct {
		arrayType XmpArrayType
		expected  string
	}{
		{XmpSimple, ""},
		{XmpArrayOrdered, "Seq"},
		{XmpArrayUnordered, "Bag"},
		{XmpArrayAlternative, "Alt"},
	}

	for _, tt := range tests {
		if got := tt.arrayType.String(); got != tt.expected {
			t.Errorf("XmpArrayType.String() = %s, want %s", got, tt.expected)
		}
	}
}

func TestPrefix(t *testing.T) {
	tests := map[string]string{
		NSDC:                  "dc",
		NSPDF:                 "pdf",
		NSXMPMM:               "xmpMM",
		NSPDFAId:              "pdfaid",
		"http://example.com/": "ns",
	}
	for ns, want := range tests {
		if got := Prefix(ns); got != want {
			t.Errorf("Prefix(%s) = %s, want %s", ns, got, want)
		}
	}
}

func TestNewDocumentMetadata(t *testing.T) {
	m := NewDocumentMetadata(created)
	if m.Producer != Vendor {
		t.Errorf("Producer = %q, want %q", m.Producer, Vendor)
	}
	if m.DocumentID == m.InstanceID {
		t.Error("DocumentID and InstanceID should differ")
	}
}

func TestInfoDict(t *testing.T) {
	m := NewDocumentMetadata(created)
	m.Set("Title", "Report")
	m.Set("Author", "Jane")
	m.Set("Department", "Sales")
	m.Set("Department", "Finance")
	m.Set("Producer", "Custom Producer")

	want := []InfoDictEntry{
		{"Producer", "Custom Producer"},
		{"Department", "Finance"},
		{"Title", "Report"},
		{"Author", "Jane"},
		{"CreationDate", "D:20260314150926+01'00'"},
	}
	if diff := cmp.Diff(want, m.InfoDict()); diff != "" {
		t.Errorf("InfoDict mismatch (-want +got):\n%s", diff)
	}
}

func TestXMPPacket(t *testing.T) {
	m := NewDocumentMetadata(created)
	m.Title = "Q&A <draft>"
	m.Author = "Jane"
	m.Keywords = "pdf, go"
	packet := string(m.XMP())

	for _, want := range []string{
		"<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n",
		"<pdf:Producer>csFPDF 3.0</pdf:Producer>",
		"<pdf:Keywords>pdf, go</pdf:Keywords>",
		"<xmp:CreateDate>2026-03-14T15:09:26+01:00</xmp:CreateDate>",
		"<xmpMM:DocumentID>uuid:" + m.DocumentID.String() + "</xmpMM:DocumentID>",
		"<rdf:li xml:lang=\"x-default\">Q&amp;A &lt;draft&gt;</rdf:li>",
		"<rdf:Seq>\n\t\t\t\t<rdf:li>Jane</rdf:li>",
		"<pdfaid:part>3</pdfaid:part>",
		"<pdfaid:conformance>B</pdfaid:conformance>",
	} {
		if !strings.Contains(packet, want) {
			t.Errorf("packet lacks %q", want)
		}
	}
	if !strings.HasSuffix(packet, "<?xpacket end=\"r\"?>") {
		t.Error("packet must end with the xpacket trailer")
	}

	// The packet body must be well-formed XML.
	body := packet[strings.Index(packet, "<x:xmpmeta"):strings.LastIndex(packet, "<?xpacket")]
	dec := xml.NewDecoder(strings.NewReader(body))
	for {
		_, err := dec.Token()
		if err != nil {
			if err != io.EOF {
				t.Fatalf("malformed XMP: %v", err)
			}
			break
		}
	}
}

func TestXMPWithoutDublinCore(t *testing.T) {
	m := NewDocumentMetadata(created)
	var namespaces []string
	for _, d := range m.XMPDescriptions() {
		namespaces = append(namespaces, Prefix(d.NS))
	}
	if diff := cmp.Diff([]string{"pdf", "xmp", "xmpMM", "pdfaid"}, namespaces); diff != "" {
		t.Errorf("descriptions mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatPDFDate(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), "D:20240115103000+00'00'"},
		{time.Date(2024, 12, 31, 23, 59, 59, 0, time.FixedZone("", -(5*3600 + 30*60))), "D:20241231235959-05'30'"},
	}
	for _, tt := range tests {
		if got := FormatPDFDate(tt.in); got != tt.want {
			t.Errorf("FormatPDFDate(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"D:20240115103000+01'00'", true},
		{"D:20240115103000Z", true},
		{"D:20240115103000", true},
		{"D:20240115", true},
		{"20240115", false},
		{"D:invalid", false},
	}

	for _, tt := range tests {
		_, err := ParsePDFDate(tt.input)
		if (err == nil) != tt.valid {
			t.Errorf("ParsePDFDate(%q) error = %v, valid = %v", tt.input, err, tt.valid)
		}
	}

	got, err := ParsePDFDate(FormatPDFDate(created))
	if err != nil || !got.Equal(created) {
		t.Errorf("round trip = %v, %v, want %v", got, err, created)
	}
}

func TestStripXMLDeclaration(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`<?xml version="1.0"?><x:xmpmeta/>`, `<x:xmpmeta/>`},
		{`<x:xmpmeta/>`, `<x:xmpmeta/>`},
		{`<?xml version="1.0" encoding="UTF-8"?>` + "\n<a/>", "\n<a/>"},
	}
	for _, tt := range tests {
		if got := StripXMLDeclaration(tt.in); got != tt.want {
			t.Errorf("StripXMLDeclaration(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
