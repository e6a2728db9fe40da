package cli

import (
	"fmt"
	"os"

	"github.com/georgepadayatti/csfpdf/config"
	"github.com/georgepadayatti/csfpdf/pdf/document"
)

// RenderCommand implements the 'render' command.
func RenderCommand(args []string) error {
	fs := newFlagSet("render")
	var out outputOptions
	out.register(fs)
	var check bool
	fs.BoolVar(&check, "check", false, "Validate the configuration without generating the document")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s render [options] <document.yaml>\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Generate a document from a YAML description.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one configuration file, got %d arguments", fs.NArg())
	}

	cfg, err := config.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if check {
		fmt.Fprintf(stdout, "%s: ok\n", fs.Arg(0))
		return nil
	}

	opts := out.documentOptions()
	if !out.Verbose {
		// The logging section applies unless -v overrides it.
		opts = append(opts, document.WithLogger(cfg.Logging.Logger(stdout, stderr)))
	}
	d, err := cfg.NewDocument(opts...)
	if err != nil {
		return err
	}
	return out.write(d)
}
