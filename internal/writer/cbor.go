package writer

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/scanner"
)

// cborWriter streams one CBOR map per unit, forming a CBOR sequence that
// consumers can decode unit by unit.
type cborWriter struct {
	enc *cbor.Encoder
}

func newCBORWriter(w io.Writer) *cborWriter {
	return &cborWriter{enc: cbor.NewEncoder(w)}
}

func (c *cborWriter) WriteUnit(cu *codeunit.CodeUnit, result *scanner.Result) error {
	doc := unitDocument{
		Name:      cu.Name,
		Filename:  cu.Filename,
		FirstLine: cu.FirstLine,
		Tokens:    result.Tokens,
	}
	if err := c.enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding unit %s: %w", cu.Name, err)
	}
	return nil
}

func (c *cborWriter) Close() error {
	return nil
}
