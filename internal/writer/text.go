package writer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/scanner"
)

// textWriter renders each unit as a listing: a header line followed by
// one line per token.
type textWriter struct {
	w     *bufio.Writer
	units int
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{w: bufio.NewWriter(w)}
}

func (t *textWriter) WriteUnit(cu *codeunit.CodeUnit, result *scanner.Result) error {
	if t.units > 0 {
		if _, err := fmt.Fprintln(t.w); err != nil {
			return fmt.Errorf("writing unit separator: %w", err)
		}
	}
	t.units++

	if _, err := fmt.Fprintf(t.w, "# %s (%s:%d)\n", cu.Name, cu.Filename, cu.FirstLine); err != nil {
		return fmt.Errorf("writing unit header: %w", err)
	}
	for _, tok := range result.Tokens {
		if _, err := fmt.Fprintln(t.w, tok.String()); err != nil {
			return fmt.Errorf("writing token line: %w", err)
		}
	}
	return nil
}

func (t *textWriter) Close() error {
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}
