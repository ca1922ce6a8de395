package writer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/scanner"
	"github.com/retroenv/pydisasm/internal/token"
)

// unitDocument is the serialized form of one scanned code unit, shared by
// the JSON and CBOR writers.
type unitDocument struct {
	Name      string        `json:"name"`
	Filename  string        `json:"filename"`
	FirstLine int           `json:"firstLine"`
	Tokens    []token.Token `json:"tokens"`
}

// jsonWriter collects all units and emits a single indented document on
// Close, so the output is one well formed JSON array.
type jsonWriter struct {
	w     io.Writer
	units []unitDocument
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{w: w}
}

func (j *jsonWriter) WriteUnit(cu *codeunit.CodeUnit, result *scanner.Result) error {
	j.units = append(j.units, unitDocument{
		Name:      cu.Name,
		Filename:  cu.Filename,
		FirstLine: cu.FirstLine,
		Tokens:    result.Tokens,
	})
	return nil
}

func (j *jsonWriter) Close() error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j.units); err != nil {
		return fmt.Errorf("encoding token stream: %w", err)
	}
	return nil
}
