// Package cli provides the csfpdf command-line interface.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/georgepadayatti/csfpdf/pdf/document"
	"github.com/georgepadayatti/csfpdf/pdf/observability"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// osExit is a variable for os.Exit to allow testing
var osExit = os.Exit

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// stdoutIsTerminal reports whether standard output is an interactive
// terminal.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ErrTerminalOutput is returned when a PDF would be written to a terminal.
var ErrTerminalOutput = errors.New("refusing to write binary PDF to a terminal; use -o or redirect stdout")

// Run executes the CLI with the given arguments.
// This is the main entry point for the CLI.
func Run(args []string) {
	if len(args) < 2 {
		Usage()
		return
	}

	command := args[1]

	var err error
	switch command {
	case "demo":
		err = DemoCommand(args[2:])
	case "barcode":
		err = BarcodeCommand(args[2:])
	case "render":
		err = RenderCommand(args[2:])
	case "cache":
		err = CacheCommand(args[2:])
	case "version":
		VersionCommand()
	case "help", "-h", "--help":
		Usage()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		Usage()
		osExit(2)
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		osExit(1)
	}
}

// Usage prints the CLI usage information.
func Usage() {
	fmt.Fprintf(stdout, "csfpdf - PDF document generator\n\n")
	fmt.Fprintf(stdout, "Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Fprintln(stdout, "Commands:")
	fmt.Fprintln(stdout, "  demo     Generate a sample document")
	fmt.Fprintln(stdout, "  barcode  Generate a one-page document holding a barcode")
	fmt.Fprintln(stdout, "  render   Generate a document from a YAML description")
	fmt.Fprintln(stdout, "  cache    Show or clear the font metrics cache")
	fmt.Fprintln(stdout, "  version  Show version information")
	fmt.Fprintln(stdout, "  help     Show this help message")
	fmt.Fprintln(stdout, "")
	fmt.Fprintf(stdout, "Use '%s <command> -h' for command-specific help\n", os.Args[0])
	fmt.Fprintln(stdout, "")
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintf(stdout, "  %s demo -o demo.pdf\n", os.Args[0])
	fmt.Fprintf(stdout, "  %s barcode -type ean13 -o ean.pdf 400638133393\n", os.Args[0])
	fmt.Fprintf(stdout, "  %s render -o invoice.pdf invoice.yaml > /dev/null\n", os.Args[0])
	fmt.Fprintf(stdout, "  %s cache -dir ~/.cache/csfpdf clear\n", os.Args[0])
}

// VersionCommand prints version information.
func VersionCommand() {
	fmt.Fprintf(stdout, "csfpdf version %s\n", Version)
	fmt.Fprintf(stdout, "Build time: %s\n", BuildTime)
}

// outputOptions are the flags shared by the commands producing a PDF.
type outputOptions struct {
	Output     string
	Verbose    bool
	FontPath   string
	CachePath  string
	NoCompress bool
}

func (o *outputOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Output, "o", "-", "Output file, - for standard output")
	fs.BoolVar(&o.Verbose, "v", false, "Log document generation to standard error")
	fs.StringVar(&o.FontPath, "font-path", "", "Directory searched for font files")
	fs.StringVar(&o.CachePath, "cache", "", "Font metrics cache directory")
	fs.BoolVar(&o.NoCompress, "no-compress", false, "Write uncompressed page content")
}

func (o *outputOptions) logger() observability.Logger {
	if o.Verbose {
		return observability.NewTextLogger(stderr, observability.LevelDebug)
	}
	return observability.NopLogger{}
}

// documentOptions returns the constructor options selected by the flags.
func (o *outputOptions) documentOptions() []document.Option {
	opts := []document.Option{document.WithLogger(o.logger())}
	if o.FontPath != "" {
		opts = append(opts, document.WithFontPath(o.FontPath))
	}
	if o.CachePath != "" {
		opts = append(opts, document.WithCachePath(o.CachePath))
	}
	if o.NoCompress {
		opts = append(opts, document.WithCompression(false))
	}
	return opts
}

// write closes d and writes it to the selected output.
func (o *outputOptions) write(d *document.Document) error {
	if o.Output == "" || o.Output == "-" {
		if stdoutIsTerminal() {
			return ErrTerminalOutput
		}
		return d.OutputTo(stdout)
	}
	if _, err := d.Output(document.DestFile, o.Output); err != nil {
		return err
	}
	if !o.Verbose {
		return nil
	}
	fmt.Fprintf(stderr, "Wrote %s (%d pages)\n", o.Output, d.PageCount())
	return nil
}

// newFlagSet creates a flag set reporting errors instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}
