// Package writer implements the token stream output formats.
package writer

import (
	"fmt"
	"io"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/scanner"
)

// TokenWriter writes the token streams of scanned code units. Close has
// to be called once after the last unit to flush format trailers.
type TokenWriter interface {
	WriteUnit(cu *codeunit.CodeUnit, result *scanner.Result) error
	Close() error
}

// New creates a token writer for the named output format.
func New(format string, w io.Writer) (TokenWriter, error) {
	switch format {
	case "text":
		return newTextWriter(w), nil
	case "json":
		return newJSONWriter(w), nil
	case "cbor":
		return newCBORWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format '%s'", format)
	}
}
