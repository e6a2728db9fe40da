package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/embed"
	"github.com/georgepadayatti/csfpdf/pdf/filters"
	"github.com/georgepadayatti/csfpdf/pdf/fonts"
	"github.com/georgepadayatti/csfpdf/pdf/images"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
	"github.com/georgepadayatti/csfpdf/pdf/text"
	"github.com/georgepadayatti/csfpdf/pdf/writer"
)

// toUnicodeCMap maps every two-byte code to the same Unicode value; the
// codes drawn with subset fonts are BMP codepoints.
const toUnicodeCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo
<</Registry (Adobe)
/Ordering (UCS)
/Supplement 0
>> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0000> <FFFF> <0000>
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

// serializer holds the object numbers assigned while writing the file.
type serializer struct {
	*writer.Buffer
	fontFiles     map[string]int
	filesAF       int
	fileSpecs     []int
	colorIntent   int
	metadata      int
	encryptObject int
}

func pageObject(p int) int {
	return 1 + 2*p
}

func (d *Document) endDoc() error {
	d.buffer = writer.NewBuffer(d.protection)
	s := &serializer{Buffer: d.buffer, fontFiles: make(map[string]int)}

	s.Header(d.pdfVersion)
	d.putPages(s)
	if err := d.putResources(s); err != nil {
		d.buffer = nil
		return err
	}

	info := s.NewObject()
	s.Out("<<")
	d.putInfo(s)
	s.Out(">>")
	s.Out("endobj")

	catalog := s.NewObject()
	s.Out("<<")
	d.putCatalog(s)
	s.Out(">>")
	s.Out("endobj")

	xref := s.Xref()
	id := writer.HexString(d.fileID)
	trailer := []string{
		fmt.Sprintf("/Root %d 0 R", catalog),
		fmt.Sprintf("/Info %d 0 R", info),
		"/ID [" + id + id + "]",
	}
	if s.encryptObject > 0 {
		trailer = append(trailer, fmt.Sprintf("/Encrypt %d 0 R", s.encryptObject))
	}
	s.Trailer(trailer, xref)

	d.output = s.Bytes()
	d.state = StateTerminated
	d.logger.Debug("document closed", observability.Int(observability.MetricPages, len(d.pages)),
		observability.Int(observability.MetricObjects, s.Count()),
		observability.Int(observability.MetricOutputBytes, len(d.output)))
	return nil
}

func (d *Document) putPages(s *serializer) {
	nb := len(d.pages)
	if d.aliasNbPages != "" {
		count := strconv.Itoa(nb)
		for _, f := range d.fontOrder {
			f.Use(count)
		}
		aliasU := text.UTF16BE(d.aliasNbPages)
		countU := text.UTF16BE(count)
		for _, p := range d.pages {
			c := p.content.Bytes()
			c = bytes.ReplaceAll(c, []byte(aliasU), []byte(countU))
			c = bytes.ReplaceAll(c, []byte(d.aliasNbPages), []byte(count))
			p.content.Reset()
			p.content.Write(c)
		}
	}

	def := d.defPageSize.Oriented(d.defOrientation)
	filter := ""
	if d.compress {
		filter = "/Filter /FlateDecode "
	}
	for i, p := range d.pages {
		s.NewObject()
		s.Out("<</Type /Page")
		s.Out("/Parent 1 0 R")
		if p.size != nil {
			s.Outf("/MediaBox [0 0 %.2F %.2F]", p.size.Width, p.size.Height)
		}
		s.Out("/Resources 2 0 R")
		if len(p.links) > 0 {
			var annots strings.Builder
			annots.WriteString("/Annots [")
			for _, l := range p.links {
				fmt.Fprintf(&annots, "<</Type /Annot /Subtype /Link /Rect [%.2F %.2F %.2F %.2F] /Border [0 0 0] ",
					l.x, l.y, l.x+l.w, l.y-l.h)
				if l.link.URL != "" {
					annots.WriteString("/A <</S /URI /URI " + s.TextString(l.link.URL) + ">>>>")
				} else {
					annots.WriteString(d.destination(l.link.ID, def.Height) + ">>")
				}
			}
			annots.WriteString("]")
			s.Out(annots.String())
		}
		if d.pdfVersion > "1.3" {
			s.Out("/Group <</Type /Group /S /Transparency /CS /DeviceRGB>>")
		}
		s.Outf("/Contents %d 0 R>>", pageObject(i+1)+1)
		s.Out("endobj")

		content := p.content.Bytes()
		if d.compress {
			content = filters.Compress(content)
		}
		s.PutStreamObject(filter, content)
	}

	s.SetOffset(writer.PagesObject)
	s.Out("<</Type /Pages")
	kids := make([]string, nb)
	for i := range d.pages {
		kids[i] = fmt.Sprintf("%d 0 R ", pageObject(i+1))
	}
	s.Out("/Kids [" + strings.Join(kids, "") + "]")
	s.Outf("/Count %d", nb)
	s.Outf("/MediaBox [0 0 %.2F %.2F]", def.Width, def.Height)
	s.Out(">>")
	s.Out("endobj")
}

// destination returns the /Dest entry of an internal link. Links that
// were never set point at the top of the first page.
func (d *Document) destination(id int, defHeight float64) string {
	target := linkTarget{page: 1}
	if id >= 1 && id <= len(d.links) && d.links[id-1].page > 0 {
		target = d.links[id-1]
	}
	if target.page > len(d.pages) {
		target.page = len(d.pages)
	}
	h := defHeight
	if sz := d.pages[target.page-1].size; sz != nil {
		h = sz.Height
	}
	return fmt.Sprintf("/Dest [%d 0 R /XYZ 0 %.2F null]", pageObject(target.page), h-target.y*d.k)
}

func (d *Document) putFonts(s *serializer) error {
	base := s.Current()
	for _, diff := range d.diffs.All() {
		s.NewObject()
		s.Out("<</Type /Encoding /BaseEncoding /WinAnsiEncoding /Differences [" + diff + "]>>")
		s.Out("endobj")
	}

	for _, f := range d.fontOrder {
		if f.IsUnicode() || f.File == "" {
			continue
		}
		if _, done := s.fontFiles[f.File]; done {
			continue
		}
		if err := d.putFontFile(s, f); err != nil {
			return err
		}
	}

	for _, f := range d.fontOrder {
		switch f.Type {
		case fonts.TypeCore:
			f.N = s.NewObject()
			s.Out("<</Type /Font")
			s.Out("/BaseFont /" + f.Name)
			s.Out("/Subtype /Type1")
			if f.Name != "Symbol" && f.Name != "ZapfDingbats" {
				s.Out("/Encoding /WinAnsiEncoding")
			}
			s.Out(">>")
			s.Out("endobj")
		case fonts.TypeType1, fonts.TypeTrueType:
			d.putSimpleFont(s, f, base)
		case fonts.TypeTTF:
			if err := d.putSubsetFont(s, f); err != nil {
				return err
			}
		default:
			return pdferror.New(pdferror.UnsupportedFont, "unsupported font type: %s", f.Type)
		}
	}
	return nil
}

// putFontFile embeds the program of a descriptor font. Type1 programs in
// PFB form lose their segment headers; .z files are already compressed.
func (d *Document) putFontFile(s *serializer, f *fonts.Font) error {
	data, err := os.ReadFile(d.fontFile(f.File))
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidFontFile, err, "font file `%s`", f.File)
	}
	compressed := strings.HasSuffix(f.File, ".z")
	length1 := f.OriginalSize
	if f.Type == fonts.TypeType1 {
		length1 = f.Size1
		if !compressed && f.Size2 > 0 && len(data) > 6 && data[0] == 128 {
			data = data[6:]
			if int(length1) < len(data)-6 && data[length1] == 128 {
				data = append(data[:length1:length1], data[length1+6:]...)
			}
		}
	}

	s.fontFiles[f.File] = s.NewObject()
	s.Outf("<</Length %d", len(data))
	if compressed {
		s.Out("/Filter /FlateDecode")
	}
	s.Outf("/Length1 %d", length1)
	if f.Type == fonts.TypeType1 && f.Size2 > 0 {
		s.Outf("/Length2 %d /Length3 0", f.Size2)
	}
	s.Out(">>")
	s.PutStream(data)
	s.Out("endobj")
	return nil
}

func (d *Document) putSimpleFont(s *serializer, f *fonts.Font, diffBase int) {
	f.N = s.NewObject()
	s.Out("<</Type /Font")
	s.Out("/BaseFont /" + f.Name)
	s.Out("/Subtype /" + string(f.Type))
	s.Out("/FirstChar 32 /LastChar 255")
	s.Outf("/Widths %d 0 R", f.N+1)
	s.Outf("/FontDescriptor %d 0 R", f.N+2)
	if f.Enc != "" {
		if f.DiffN > 0 {
			s.Outf("/Encoding %d 0 R", diffBase+f.DiffN)
		} else {
			s.Out("/Encoding /WinAnsiEncoding")
		}
	}
	s.Out(">>")
	s.Out("endobj")

	s.NewObject()
	var widths strings.Builder
	widths.WriteString("[")
	for c := 32; c <= 255; c++ {
		widths.WriteString(strconv.Itoa(f.CharWidths[c]) + " ")
	}
	s.Out(widths.String() + "]")
	s.Out("endobj")

	s.NewObject()
	desc := "<</Type /FontDescriptor /FontName /" + f.Name + " " + f.Desc.Entries()
	if n, ok := s.fontFiles[f.File]; ok && f.File != "" {
		suffix := "2"
		if f.Type == fonts.TypeType1 {
			suffix = ""
		}
		desc += fmt.Sprintf(" /FontFile%s %d 0 R", suffix, n)
	}
	s.Out(desc + ">>")
	s.Out("endobj")
}

// putSubsetFont writes a TrueType subset as a Type0 font with its CID
// font, ToUnicode map, CIDSystemInfo, descriptor, CIDToGIDMap and program.
func (d *Document) putSubsetFont(s *serializer, f *fonts.Font) error {
	program, err := os.ReadFile(f.File)
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidFontFile, err, "font file `%s`", f.File)
	}
	var runes []rune
	for _, r := range f.SubsetRunes() {
		if r != 0 {
			runes = append(runes, r)
		}
	}
	sub, err := fonts.Subset(program, runes)
	if err != nil {
		return pdferror.Wrap(pdferror.InvalidFontFile, err, "subsetting `%s`", f.File)
	}
	d.logger.Debug("font subset built", observability.String("font", f.Name),
		observability.Int("codepoints", len(runes)), observability.Int(observability.MetricSubsetGlyphs, sub.NumGlyphs))
	name := "MPDFAA+" + f.Name

	f.N = s.NewObject()
	s.Out("<</Type /Font")
	s.Out("/Subtype /Type0")
	s.Out("/BaseFont /" + name)
	s.Out("/Encoding /Identity-H")
	s.Outf("/DescendantFonts [%d 0 R]", f.N+1)
	s.Outf("/ToUnicode %d 0 R", f.N+2)
	s.Out(">>")
	s.Out("endobj")

	cid := s.NewObject()
	s.Out("<</Type /Font")
	s.Out("/Subtype /CIDFontType2")
	s.Out("/BaseFont /" + name)
	s.Outf("/CIDSystemInfo %d 0 R", cid+2)
	s.Outf("/FontDescriptor %d 0 R", cid+3)
	if f.Desc.MissingWidth > 0 {
		s.Outf("/DW %d", f.Desc.MissingWidth)
	}
	s.Out(d.cache.WidthArray(f, sub.MaxUni))
	s.Outf("/CIDToGIDMap %d 0 R", cid+4)
	s.Out(">>")
	s.Out("endobj")

	s.PutStreamObject("", []byte(toUnicodeCMap))

	s.NewObject()
	s.Out("<</Registry (Adobe)")
	s.Out("/Ordering (UCS)")
	s.Out("/Supplement 0")
	s.Out(">>")
	s.Out("endobj")

	desc := f.Desc
	// Symbolic set, nonsymbolic cleared.
	desc.Flags = (desc.Flags | 4) &^ 32
	fd := s.NewObject()
	s.Out("<</Type /FontDescriptor")
	s.Out("/FontName /" + name)
	s.Out(desc.Entries())
	s.Outf("/FontFile2 %d 0 R", fd+2)
	s.Out(">>")
	s.Out("endobj")

	s.PutStreamObject("/Filter /FlateDecode ", filters.Compress(sub.CIDToGIDMap()))
	s.PutStreamObject(fmt.Sprintf("/Filter /FlateDecode /Length1 %d ", len(sub.Program)), filters.Compress(sub.Program))
	return nil
}

func (d *Document) putImages(s *serializer) {
	for _, rec := range d.imageOrder {
		rec.n = d.putImage(s, rec.Info)
		// Release the decoded data once written.
		rec.Data = nil
		rec.SMask = nil
	}
}

func (d *Document) putImage(s *serializer, info *images.Info) int {
	n := s.NewObject()
	s.Out("<</Type /XObject")
	s.Out("/Subtype /Image")
	s.Outf("/Width %d", info.Width)
	s.Outf("/Height %d", info.Height)
	if info.ColorSpace == images.ColorSpaceIndexed {
		s.Outf("/ColorSpace [/Indexed /DeviceRGB %d %d 0 R]", len(info.Palette)/3-1, n+1)
	} else {
		s.Out("/ColorSpace /" + info.ColorSpace)
		if info.ColorSpace == images.ColorSpaceCMYK {
			s.Out("/Decode [1 0 1 0 1 0 1 0]")
		}
	}
	s.Outf("/BitsPerComponent %d", info.BitsPerComponent)
	if info.Filter != "" {
		s.Out("/Filter /" + info.Filter)
	}
	if info.DecodeParms != "" {
		s.Out("/DecodeParms <<" + info.DecodeParms + ">>")
	}
	if len(info.Transparency) > 0 {
		var mask strings.Builder
		for _, t := range info.Transparency {
			fmt.Fprintf(&mask, "%d %d ", t, t)
		}
		s.Out("/Mask [" + mask.String() + "]")
	}
	if info.SMask != nil {
		s.Outf("/SMask %d 0 R", n+1)
	}
	s.Outf("/Length %d>>", len(info.Data))
	s.PutStream(info.Data)
	s.Out("endobj")

	if info.SMask != nil {
		d.putImage(s, &images.Info{
			Width:            info.Width,
			Height:           info.Height,
			ColorSpace:       images.ColorSpaceGray,
			BitsPerComponent: 8,
			Filter:           info.Filter,
			DecodeParms:      filters.PNGParams(1, 8, info.Width).String(),
			Data:             info.SMask,
		})
	}
	if info.ColorSpace == images.ColorSpaceIndexed {
		pal := info.Palette
		filter := ""
		if d.compress {
			filter = "/Filter /FlateDecode "
			pal = filters.Compress(pal)
		}
		s.PutStreamObject(filter, pal)
	}
	return n
}

func (d *Document) putResources(s *serializer) error {
	if err := d.putFonts(s); err != nil {
		return err
	}
	d.putImages(s)

	s.SetOffset(writer.ResourcesObject)
	s.Out("<<")
	s.Out("/ProcSet [/PDF /Text /ImageB /ImageC /ImageI]")
	s.Out("/Font <<")
	for _, f := range d.fontOrder {
		s.Outf("/F%d %d 0 R", f.Index, f.N)
	}
	s.Out(">>")
	s.Out("/XObject <<")
	for _, rec := range d.imageOrder {
		s.Outf("/I%d %d 0 R", rec.index, rec.n)
	}
	s.Out(">>")
	s.Out(">>")
	s.Out("endobj")

	if len(d.attachments) > 0 {
		s.filesAF, s.fileSpecs = embed.WriteAll(s.Buffer, d.attachments, d.compress)
	}
	if d.colorProfilePath != "" {
		if err := d.putColorProfile(s); err != nil {
			return err
		}
	}
	d.putXMP(s)

	if d.protection.IsEncrypted() {
		s.encryptObject = s.NewObject()
		s.Out("<<")
		s.Out("/Filter /Standard")
		s.Out("/V 1")
		s.Out("/R 2")
		s.Out("/O (" + text.Escape(string(d.protection.OwnerKey())) + ")")
		s.Out("/U (" + text.Escape(string(d.protection.UserKey())) + ")")
		s.Outf("/P %d", d.protection.P())
		s.Out(">>")
		s.Out("endobj")
	}
	return nil
}

func (d *Document) putColorProfile(s *serializer) error {
	icc, err := os.ReadFile(d.colorProfilePath)
	if err != nil || len(icc) == 0 {
		return pdferror.Wrap(pdferror.InvalidColorProfilePath, err, "could not load the color profile `%s`", d.colorProfilePath)
	}
	name := filepath.Base(d.colorProfilePath)

	profile := s.PutStreamObject("/N 3 ", icc)
	s.colorIntent = s.NewObject()
	s.Out("<<")
	s.Outf("/DestOutputProfile %d 0 R", profile)
	s.Out("/OutputConditionIdentifier " + s.TextString(name) + " /Info " + s.TextString(name) +
		" /RegistryName " + s.TextString("http://www.color.org"))
	s.Out("/Type /OutputIntent")
	s.Out("/S /GTS_PDFA1")
	s.Out(">>")
	s.Out("endobj")
	return nil
}

func (d *Document) putXMP(s *serializer) {
	if d.xmp != "" {
		data := []byte(d.xmp)
		entries := "/Type /Metadata /Subtype /XML "
		if d.compress {
			data = filters.Compress(data)
			entries = "/Filter /FlateDecode " + entries
		}
		s.metadata = s.PutStreamObject(entries, data)
		return
	}
	s.metadata = s.PutStreamObject("/Type /Metadata /Subtype /XML ", d.meta.XMP())
}

func (d *Document) putInfo(s *serializer) {
	for _, e := range d.meta.InfoDict() {
		s.Out("/" + e.Key + " " + s.UnicodeString(e.Value))
	}
}

func (d *Document) putCatalog(s *serializer) {
	s.Out("/Type /Catalog")
	s.Out("/Pages 1 0 R")
	if action := d.zoom.OpenAction(); action != "" {
		s.Outf("/OpenAction [%d 0 R %s]", pageObject(1), action)
	}
	if name := d.layoutMode.PageLayoutName(); name != "" {
		s.Out("/PageLayout /" + name)
	}
	if len(d.attachments) > 0 {
		s.Outf("/AF %d 0 R", s.filesAF)
		s.Out(embed.NamesEntry(s.Buffer, d.attachments, s.fileSpecs))
	}
	if d.openAttachmentPane {
		s.Out("/PageMode /UseAttachments")
	}
	if s.colorIntent > 0 {
		s.Outf("/OutputIntents [%d 0 R]", s.colorIntent)
	}
	s.Outf("/Metadata %d 0 R", s.metadata)
}
