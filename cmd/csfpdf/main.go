// Command csfpdf generates PDF documents from the command line.
//
// Usage:
//
//	csfpdf <command> [options] <args>
//
// Commands:
//
//	demo     Generate a sample document
//	barcode  Generate a one-page document holding a barcode
//	render   Generate a document from a YAML description
//	cache    Show or clear the font metrics cache
//	version  Show version information
//	help     Show help message
//
// Examples:
//
//	# Sample document
//	csfpdf demo -o demo.pdf
//
//	# EAN-13 barcode
//	csfpdf barcode -type ean13 -o ean.pdf 400638133393
//
//	# Document described in YAML
//	csfpdf render -o invoice.pdf invoice.yaml
package main

import (
	"os"

	"github.com/georgepadayatti/csfpdf/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/csfpdf
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	cli.Run(os.Args)
}
