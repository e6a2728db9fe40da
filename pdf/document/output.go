package document

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/georgepadayatti/csfpdf/pdf/observability"
	"github.com/georgepadayatti/csfpdf/pdf/pdferror"
)

// Output destinations.
const (
	DestInline   = "I"
	DestDownload = "D"
	DestFile     = "F"
	DestString   = "S"
)

// DefaultOutputName is the file name used when Output gets none.
const DefaultOutputName = "doc.pdf"

// Deliverer sends a finished document to a client as a download.
type Deliverer interface {
	Deliver(name, contentType string, data []byte) error
}

// SetDeliverer sets the collaborator used by the D destination.
func (d *Document) SetDeliverer(dl Deliverer) {
	d.deliverer = dl
}

// SetOutputWriter sets the writer used by the I destination. It defaults
// to standard output.
func (d *Document) SetOutputWriter(w io.Writer) {
	d.stdout = w
}

// Output closes the document if needed and sends it to dest: S returns
// the bytes, F writes the file name, I writes to the output writer and D
// hands the bytes to the deliverer.
func (d *Document) Output(dest, name string) ([]byte, error) {
	if !d.terminated() {
		if err := d.Close(); err != nil {
			return nil, err
		}
	}
	if name == "" {
		name = DefaultOutputName
	}

	switch strings.ToUpper(dest) {
	case DestString, "":
		return bytes.Clone(d.output), nil
	case DestFile:
		if err := os.WriteFile(name, d.output, 0o644); err != nil {
			return nil, pdferror.Wrap(pdferror.OutputInvalidPath, err, "unable to create output file `%s`", name)
		}
		d.logger.Info("document written", observability.String("path", name), observability.Int(observability.MetricOutputBytes, len(d.output)))
	case DestInline:
		if _, err := d.stdout.Write(d.output); err != nil {
			return nil, pdferror.Wrap(pdferror.OutputInvalidPath, err, "writing %s", name)
		}
	case DestDownload:
		if d.deliverer == nil {
			return nil, pdferror.New(pdferror.OutputInvalidDestination, "no deliverer set for download of `%s`", name)
		}
		if err := d.deliverer.Deliver(name, "application/x-download", d.output); err != nil {
			return nil, pdferror.Wrap(pdferror.OutputInvalidDestination, err, "delivering `%s`", name)
		}
	default:
		return nil, pdferror.New(pdferror.OutputInvalidDestination, "unknown destination %q for `%s`", dest, name)
	}
	return nil, nil
}

// OutputTo closes the document if needed and writes it to w.
func (d *Document) OutputTo(w io.Writer) error {
	data, err := d.Output(DestString, "")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return pdferror.Wrap(pdferror.OutputInvalidPath, err, "")
	}
	return nil
}

// WriteHTTP sends the document as an HTTP response, shown in the browser
// when inline is true and offered as a download otherwise.
func (d *Document) WriteHTTP(w http.ResponseWriter, name string, inline bool) error {
	data, err := d.Output(DestString, "")
	if err != nil {
		return err
	}
	if name == "" {
		name = DefaultOutputName
	}
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	h.Set("Cache-Control", "private, max-age=0, must-revalidate")
	h.Set("Pragma", "public")
	if _, err := w.Write(data); err != nil {
		return pdferror.Wrap(pdferror.OutputInvalidPath, err, "")
	}
	return nil
}

// HTTPDeliverer delivers downloads through an HTTP response.
type HTTPDeliverer struct {
	W http.ResponseWriter
}

// Deliver implements Deliverer.
func (h HTTPDeliverer) Deliver(name, contentType string, data []byte) error {
	hdr := h.W.Header()
	hdr.Set("Content-Type", contentType)
	hdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	hdr.Set("Cache-Control", "private, max-age=0, must-revalidate")
	hdr.Set("Pragma", "public")
	_, err := h.W.Write(data)
	return err
}
