// Package writer provides the output buffer of a PDF file: object
// numbering, the offset table, the cross-reference section and the
// trailer.
package writer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/georgepadayatti/csfpdf/pdf/crypt"
	"github.com/georgepadayatti/csfpdf/pdf/text"
)

// Reserved object numbers.
const (
	PagesObject     = 1
	ResourcesObject = 2
)

// Buffer accumulates a serialized document. Object numbers are handed out
// sequentially and the offset of each object is recorded when its header
// is written.
type Buffer struct {
	buf     bytes.Buffer
	offsets []int
	current int
	enc     crypt.Encryptor
}

// NewBuffer returns an empty buffer whose first new object is 3. enc may
// be nil.
func NewBuffer(enc crypt.Encryptor) *Buffer {
	return &Buffer{
		offsets: make([]int, ResourcesObject+1),
		current: ResourcesObject,
		enc:     enc,
	}
}

// Out appends a line.
func (b *Buffer) Out(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
}

// Outf appends a formatted line.
func (b *Buffer) Outf(format string, args ...interface{}) {
	fmt.Fprintf(&b.buf, format, args...)
	b.buf.WriteByte('\n')
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Current returns the number of the object being written.
func (b *Buffer) Current() int {
	return b.current
}

// Count returns the highest object number in use.
func (b *Buffer) Count() int {
	return len(b.offsets) - 1
}

// NewObject starts the next object and returns its number.
func (b *Buffer) NewObject() int {
	n := len(b.offsets)
	b.offsets = append(b.offsets, b.buf.Len())
	b.current = n
	b.Out(strconv.Itoa(n) + " 0 obj")
	return n
}

// SetOffset starts one of the reserved objects.
func (b *Buffer) SetOffset(n int) {
	if n <= 0 || n > ResourcesObject {
		panic(fmt.Sprintf("writer: object %d is not reserved", n))
	}
	b.offsets[n] = b.buf.Len()
	b.current = n
	b.Out(strconv.Itoa(n) + " 0 obj")
}

// Offset returns the recorded offset of object n.
func (b *Buffer) Offset(n int) int {
	return b.offsets[n]
}

func (b *Buffer) encrypt(data []byte) []byte {
	if b.enc == nil || !b.enc.IsEncrypted() {
		return data
	}
	return b.enc.Cipher(b.enc.ObjectKey(b.current), data)
}

// PutStream writes a stream body, encrypted with the key of the current
// object.
func (b *Buffer) PutStream(data []byte) {
	b.Out("stream")
	b.buf.Write(b.encrypt(data))
	b.buf.WriteByte('\n')
	b.Out("endstream")
}

// PutStreamObject writes a complete stream object. entries are extra
// dictionary entries and end with a space when non-empty.
func (b *Buffer) PutStreamObject(entries string, data []byte) int {
	n := b.NewObject()
	b.Outf("<<%s/Length %d>>", entries, len(data))
	b.PutStream(data)
	b.Out("endobj")
	return n
}

// TextString returns s as a literal string, encrypted with the key of the
// current object.
func (b *Buffer) TextString(s string) string {
	return "(" + text.Escape(string(b.encrypt([]byte(s)))) + ")"
}

// UnicodeString returns a text string holding s, encoded as UTF-16BE
// with a byte order mark when s is not plain ASCII.
func (b *Buffer) UnicodeString(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return b.TextString(text.UTF16BEWithBOM(s))
		}
	}
	return b.TextString(s)
}

// Header writes the file header with its binary marker comment.
func (b *Buffer) Header(version string) {
	b.Out("%PDF-" + version)
	b.Out("%\xE2\xE3\xCF\xD3")
}

// Xref writes the cross-reference table and returns its offset.
func (b *Buffer) Xref() int {
	offset := b.buf.Len()
	b.Out("xref")
	b.Outf("0 %d", len(b.offsets))
	b.Out("0000000000 65535 f ")
	for _, o := range b.offsets[1:] {
		b.Outf("%010d 00000 n ", o)
	}
	return offset
}

// Trailer writes the trailer dictionary and the end of file marker.
func (b *Buffer) Trailer(entries []string, xref int) {
	b.Out("trailer")
	b.Out("<<")
	b.Outf("/Size %d", len(b.offsets))
	for _, e := range entries {
		b.Out(e)
	}
	b.Out(">>")
	b.Out("startxref")
	b.Out(strconv.Itoa(xref))
	b.Out("%%EOF")
}

// ComputeFileID derives the 16-byte file identifier from parts.
func ComputeFileID(parts ...string) []byte {
	h, _ := blake2b.New(16, nil)
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}

// HexString formats data as a PDF hexadecimal string.
func HexString(data []byte) string {
	return "<" + strings.ToUpper(fmt.Sprintf("%x", data)) + ">"
}
