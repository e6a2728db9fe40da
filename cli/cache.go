package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/georgepadayatti/csfpdf/pdf/document"
)

// defaultCacheDir returns the user cache directory for font metrics.
func defaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "csfpdf"), nil
}

// CacheCommand implements the 'cache' command.
func CacheCommand(args []string) error {
	fs := newFlagSet("cache")
	var dir string
	var verbose bool
	fs.StringVar(&dir, "dir", "", "Font metrics cache directory (default: user cache dir)")
	fs.BoolVar(&verbose, "v", false, "Log cache operations to standard error")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s cache [options] <path|clear>\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Show or clear the font metrics cache.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one action, got %d arguments", fs.NArg())
	}

	if dir == "" {
		var err error
		if dir, err = defaultCacheDir(); err != nil {
			return err
		}
	}

	switch action := fs.Arg(0); action {
	case "path":
		fmt.Fprintln(stdout, dir)
		return nil
	case "clear":
		out := outputOptions{Verbose: verbose, CachePath: dir}
		d, err := document.New(out.documentOptions()...)
		if err != nil {
			return err
		}
		if err := d.ClearCache(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Cleared %s\n", d.CachePath())
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown cache action %q", action)
	}
}
