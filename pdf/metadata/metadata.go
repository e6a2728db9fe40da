// Package metadata provides document information values and XMP packet
// generation.
package metadata

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vendor is the default producer.
const Vendor = "csFPDF 3.0"

// XML namespace URIs
const (
	NSRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXMP    = "http://ns.adobe.com/xap/1.0/"
	NSXMPMM  = "http://ns.adobe.com/xap/1.0/mm/"
	NSDC     = "http://purl.org/dc/elements/1.1/"
	NSPDF    = "http://ns.adobe.com/pdf/1.3/"
	NSPDFAId = "http://www.aiim.org/pdfa/ns/id/"
	NSX      = "adobe:ns:meta/"
)

var prefixes = map[string]string{
	NSRDF:    "rdf",
	NSXMP:    "xmp",
	NSXMPMM:  "xmpMM",
	NSDC:     "dc",
	NSPDF:    "pdf",
	NSPDFAId: "pdfaid",
}

// Prefix returns the conventional prefix of a namespace, or "ns".
func Prefix(ns string) string {
	if p, ok := prefixes[ns]; ok {
		return p
	}
	return "ns"
}

// XmpArrayType represents the kind of an XMP property value.
type XmpArrayType int

const (
	XmpSimple XmpArrayType = iota
	XmpArrayOrdered
	XmpArrayUnordered
	XmpArrayAlternative
)

func (t XmpArrayType) String() string {
	switch t {
	case XmpArrayOrdered:
		return "Seq"
	case XmpArrayUnordered:
		return "Bag"
	case XmpArrayAlternative:
		return "Alt"
	}
	return ""
}

// XmpProperty is one property of a description.
type XmpProperty struct {
	Name  string
	Value string
	Type  XmpArrayType
}

// XmpDescription is an rdf:Description holding the properties of one
// namespace.
type XmpDescription struct {
	NS         string
	Properties []XmpProperty
}

// Set appends a property.
func (d *XmpDescription) Set(name, value string, typ XmpArrayType) {
	d.Properties = append(d.Properties, XmpProperty{Name: name, Value: value, Type: typ})
}

// SerializeXMP writes an XMP packet holding descs in order.
func SerializeXMP(descs []*XmpDescription) []byte {
	var buf bytes.Buffer
	buf.WriteString("<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	fmt.Fprintf(&buf, "<x:xmpmeta xmlns:x=\"%s\" x:xmptk=\"%s\">\n", NSX, Vendor)
	fmt.Fprintf(&buf, "<rdf:RDF xmlns:rdf=\"%s\">\n", NSRDF)
	for _, d := range descs {
		serializeDescription(&buf, d)
	}
	buf.WriteString("</rdf:RDF>\n")
	buf.WriteString("</x:xmpmeta>\n")
	buf.WriteString("<?xpacket end=\"r\"?>")
	return buf.Bytes()
}

func serializeDescription(buf *bytes.Buffer, d *XmpDescription) {
	prefix := Prefix(d.NS)
	fmt.Fprintf(buf, "\t<rdf:Description rdf:about=\"\" xmlns:%s=\"%s\">\n", prefix, d.NS)
	for _, p := range d.Properties {
		tag := prefix + ":" + p.Name
		value := escapeXML(p.Value)
		switch p.Type {
		case XmpSimple:
			fmt.Fprintf(buf, "\t\t<%s>%s</%s>\n", tag, value, tag)
		case XmpArrayAlternative:
			fmt.Fprintf(buf, "\t\t<%s>\n\t\t\t<rdf:Alt>\n\t\t\t\t<rdf:li xml:lang=\"x-default\">%s</rdf:li>\n\t\t\t</rdf:Alt>\n\t\t</%s>\n", tag, value, tag)
		default:
			fmt.Fprintf(buf, "\t\t<%s>\n\t\t\t<rdf:%s>\n\t\t\t\t<rdf:li>%s</rdf:li>\n\t\t\t</rdf:%s>\n\t\t</%s>\n", tag, p.Type, value, p.Type, tag)
		}
	}
	buf.WriteString("\t</rdf:Description>\n")
}

// escapeXML escapes special XML characters.
func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// InfoDictEntry represents an entry in the PDF info dictionary.
type InfoDictEntry struct {
	Key   string
	Value string
}

// DocumentMetadata holds the descriptive values of a document.
type DocumentMetadata struct {
	Title    string
	Subject  string
	Author   string
	Keywords string
	Creator  string
	Producer string
	Created  time.Time

	// Custom holds extra info dictionary entries in insertion order.
	Custom []InfoDictEntry

	DocumentID uuid.UUID
	InstanceID uuid.UUID
}

// NewDocumentMetadata returns metadata with the default producer and
// fresh XMP identifiers.
func NewDocumentMetadata(created time.Time) *DocumentMetadata {
	return &DocumentMetadata{
		Producer:   Vendor,
		Created:    created,
		DocumentID: uuid.New(),
		InstanceID: uuid.New(),
	}
}

// Set stores an info dictionary value. The standard keys update their
// fields; other keys are kept as custom entries, replacing an earlier
// value of the same key.
func (m *DocumentMetadata) Set(key, value string) {
	switch key {
	case "Title":
		m.Title = value
	case "Subject":
		m.Subject = value
	case "Author":
		m.Author = value
	case "Keywords":
		m.Keywords = value
	case "Creator":
		m.Creator = value
	case "Producer":
		m.Producer = value
	default:
		for i := range m.Custom {
			if m.Custom[i].Key == key {
				m.Custom[i].Value = value
				return
			}
		}
		m.Custom = append(m.Custom, InfoDictEntry{Key: key, Value: value})
	}
}

// InfoDict returns the info dictionary entries: producer, custom entries,
// the non-empty standard fields and the creation date.
func (m *DocumentMetadata) InfoDict() []InfoDictEntry {
	var entries []InfoDictEntry
	if m.Producer != "" {
		entries = append(entries, InfoDictEntry{Key: "Producer", Value: m.Producer})
	}
	entries = append(entries, m.Custom...)

	for _, e := range []InfoDictEntry{
		{"Title", m.Title},
		{"Subject", m.Subject},
		{"Author", m.Author},
		{"Keywords", m.Keywords},
		{"Creator", m.Creator},
	} {
		if e.Value != "" {
			entries = append(entries, e)
		}
	}
	return append(entries, InfoDictEntry{Key: "CreationDate", Value: FormatPDFDate(m.Created)})
}

// XMPDescriptions returns the pdf, xmp, xmpMM, dc and pdfaid descriptions
// of the document. The packet claims PDF/A-3B identification.
func (m *DocumentMetadata) XMPDescriptions() []*XmpDescription {
	pdf := &XmpDescription{NS: NSPDF}
	pdf.Set("Producer", m.Producer, XmpSimple)
	if m.Keywords != "" {
		pdf.Set("Keywords", m.Keywords, XmpSimple)
	}

	xmp := &XmpDescription{NS: NSXMP}
	xmp.Set("CreateDate", m.Created.Format(time.RFC3339), XmpSimple)
	if m.Creator != "" {
		xmp.Set("CreatorTool", m.Creator, XmpSimple)
	}

	mm := &XmpDescription{NS: NSXMPMM}
	mm.Set("DocumentID", "uuid:"+m.DocumentID.String(), XmpSimple)
	mm.Set("InstanceID", "uuid:"+m.InstanceID.String(), XmpSimple)

	descs := []*XmpDescription{pdf, xmp, mm}

	dc := &XmpDescription{NS: NSDC}
	if m.Author != "" {
		dc.Set("creator", m.Author, XmpArrayOrdered)
	}
	if m.Title != "" {
		dc.Set("title", m.Title, XmpArrayAlternative)
	}
	if m.Subject != "" {
		dc.Set("description", m.Subject, XmpArrayAlternative)
	}
	if len(dc.Properties) > 0 {
		descs = append(descs, dc)
	}

	pdfaid := &XmpDescription{NS: NSPDFAId}
	pdfaid.Set("part", "3", XmpSimple)
	pdfaid.Set("conformance", "B", XmpSimple)
	return append(descs, pdfaid)
}

// XMP returns the serialized XMP packet.
func (m *DocumentMetadata) XMP() []byte {
	return SerializeXMP(m.XMPDescriptions())
}

// FormatPDFDate formats a time as a PDF date string (D:YYYYMMDDHHmmSSOHH'mm').
func FormatPDFDate(t time.Time) string {
	_, offset := t.Zone()
	hours := offset / 3600
	minutes := (offset % 3600) / 60
	sign := "+"
	if offset < 0 {
		sign = "-"
		hours = -hours
		minutes = -minutes
	}

	return fmt.Sprintf("D:%04d%02d%02d%02d%02d%02d%s%02d'%02d'",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
		sign, hours, minutes)
}

// ParsePDFDate parses a PDF date string.
func ParsePDFDate(s string) (time.Time, error) {
	if !strings.HasPrefix(s, "D:") {
		return time.Time{}, fmt.Errorf("invalid PDF date: missing D: prefix")
	}

	s = strings.ReplaceAll(s[2:], "'", "")

	formats := []string{
		"20060102150405-0700",
		"20060102150405Z",
		"20060102150405",
		"200601021504",
		"2006010215",
		"20060102",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse PDF date: %s", s)
}

// StripXMLDeclaration removes an XML declaration from a caller-supplied
// packet, which must not precede the xpacket header.
func StripXMLDeclaration(packet string) string {
	if i := strings.Index(packet, "<?xml"); i >= 0 {
		if j := strings.Index(packet[i:], "?>"); j >= 0 {
			return packet[:i] + packet[i+j+2:]
		}
	}
	return packet
}
