// Package embed provides file attachments: embedded file streams, their
// file specifications and the catalog name tree.
package embed

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/georgepadayatti/csfpdf/pdf/filters"
	"github.com/georgepadayatti/csfpdf/pdf/metadata"
	"github.com/georgepadayatti/csfpdf/pdf/writer"
)

// Common errors
var (
	ErrInvalidPath = errors.New("cannot open attachment")
)

// Common MIME types for embedded files
const (
	MimeTypePDF    = "application/pdf"
	MimeTypeXML    = "application/xml"
	MimeTypeText   = "text/plain"
	MimeTypeJSON   = "application/json"
	MimeTypeBinary = "application/octet-stream"
)

// Common AF relationships
const (
	AFRelationshipSource      = "Source"
	AFRelationshipData        = "Data"
	AFRelationshipAlternative = "Alternative"
	AFRelationshipSupplement  = "Supplement"
	AFRelationshipUnspecified = "Unspecified"
)

// Attachment is a file embedded in the document.
type Attachment struct {
	// Name is the file name shown by viewers.
	Name        string
	Description string
	MimeType    string
	// Relationship is the /AFRelationship of the file to the document.
	Relationship string
	Data         []byte
	ModTime      time.Time
}

// FromFile reads an attachment from path. An empty name means the base
// name of path.
func FromFile(path, name, desc, mimeType, relationship string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w `%s`: %v", ErrInvalidPath, path, err)
	}
	var mod time.Time
	if fi, err := os.Stat(path); err == nil {
		mod = fi.ModTime()
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return newAttachment(data, name, desc, mimeType, relationship, mod), nil
}

// FromContent builds an attachment from data held in memory.
func FromContent(data []byte, name, desc, mimeType, relationship string, modTime time.Time) *Attachment {
	return newAttachment(data, name, desc, mimeType, relationship, modTime)
}

func newAttachment(data []byte, name, desc, mimeType, relationship string, mod time.Time) *Attachment {
	if mimeType == "" {
		mimeType = MimeTypeBinary
	}
	if relationship == "" {
		relationship = AFRelationshipUnspecified
	}
	return &Attachment{
		Name:         name,
		Description:  desc,
		MimeType:     mimeType,
		Relationship: relationship,
		Data:         data,
		ModTime:      mod,
	}
}

// Subtype returns the MIME type as a PDF name.
func (a *Attachment) Subtype() string {
	return "/" + strings.ReplaceAll(a.MimeType, "/", "#2F")
}

// Checksum returns the MD5 digest of the uncompressed data.
func (a *Attachment) Checksum() []byte {
	sum := md5.Sum(a.Data)
	return sum[:]
}

// Write emits the file specification and embedded file stream of a and
// returns the number of the file specification object.
func Write(b *writer.Buffer, a *Attachment, compress bool) int {
	spec := b.NewObject()
	b.Out("<<")
	b.Out("/Type /Filespec")
	b.Out("/F " + b.TextString(a.Name))
	b.Out("/UF " + b.UnicodeString(a.Name))
	if a.Description != "" {
		b.Out("/Desc " + b.UnicodeString(a.Description))
	}
	b.Outf("/EF <</F %d 0 R /UF %d 0 R>>", spec+1, spec+1)
	b.Out("/AFRelationship /" + a.Relationship)
	b.Out(">>")
	b.Out("endobj")

	data := a.Data
	entries := "/Type /EmbeddedFile /Subtype " + a.Subtype() + " "
	if compress {
		data = filters.Compress(data)
		entries += "/Filter /FlateDecode "
	}
	b.NewObject()
	entries += fmt.Sprintf("/Params <</CheckSum %s /ModDate %s /Size %d>> ",
		writer.HexString(a.Checksum()), b.TextString(metadata.FormatPDFDate(a.ModTime)), len(a.Data))
	b.Outf("<<%s/Length %d>>", entries, len(data))
	b.PutStream(data)
	b.Out("endobj")
	return spec
}

// WriteAll emits every attachment followed by the array referenced by the
// catalog /AF entry, and returns the array's object number.
func WriteAll(b *writer.Buffer, atts []*Attachment, compress bool) (af int, specs []int) {
	for _, a := range atts {
		specs = append(specs, Write(b, a, compress))
	}
	af = b.NewObject()
	refs := make([]string, len(specs))
	for i, n := range specs {
		refs[i] = fmt.Sprintf("%d 0 R", n)
	}
	b.Out("[" + strings.Join(refs, " ") + "]")
	b.Out("endobj")
	return af, specs
}

// NamesEntry returns the catalog /Names entry holding the embedded files
// name tree. Keys are sorted as name trees require.
func NamesEntry(b *writer.Buffer, atts []*Attachment, specs []int) string {
	idx := make([]int, len(atts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return atts[idx[i]].Name < atts[idx[j]].Name })

	parts := make([]string, len(idx))
	for k, i := range idx {
		parts[k] = fmt.Sprintf("%s %d 0 R", b.TextString(atts[i].Name), specs[i])
	}
	return "/Names <</EmbeddedFiles <</Names [" + strings.Join(parts, " ") + "]>>>>"
}
