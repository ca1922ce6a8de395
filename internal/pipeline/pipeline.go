// Package pipeline orchestrates the disassembly workflow stages.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/loader"
	"github.com/retroenv/pydisasm/internal/opcode"
	"github.com/retroenv/pydisasm/internal/options"
	"github.com/retroenv/pydisasm/internal/scanner"
	"github.com/retroenv/pydisasm/internal/writer"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete disassembly workflow.
type Pipeline struct {
	logger  *log.Logger
	opc     *opcode.Table
	loader  *loader.Loader
	scanner *scanner.Scanner
}

// New creates a disassembly pipeline for the given bytecode version.
func New(logger *log.Logger, version string) (*Pipeline, error) {
	table, err := opcode.ForVersion(version)
	if err != nil {
		return nil, fmt.Errorf("selecting opcode table: %w", err)
	}

	return &Pipeline{
		logger:  logger,
		opc:     table,
		loader:  loader.New(table),
		scanner: scanner.New(logger, table),
	}, nil
}

// Execute runs the complete disassembly pipeline and returns the number
// of scanned code units.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, output io.Writer) (int, error) {
	root, err := p.loader.LoadFile(opts.Input)
	if err != nil {
		return 0, err
	}

	return p.ExecuteWithUnit(ctx, root, opts, output)
}

// ExecuteWithUnit runs the pipeline on an already deserialized code unit,
// useful for testing and programmatic usage.
func (p *Pipeline) ExecuteWithUnit(ctx context.Context, root *codeunit.CodeUnit,
	opts options.Program, output io.Writer) (int, error) {

	tokenWriter, err := writer.New(opts.Format, output)
	if err != nil {
		return 0, fmt.Errorf("creating token writer: %w", err)
	}

	count, err := p.processUnit(ctx, root, tokenWriter)
	if err != nil {
		return count, err
	}

	if err := tokenWriter.Close(); err != nil {
		return count, fmt.Errorf("closing token writer: %w", err)
	}

	p.logger.Debug("Disassembled file",
		log.String("input", opts.Input),
		log.Int("units", count),
	)
	return count, nil
}

// processUnit scans one code unit and recurses into its nested code
// object constants depth-first, in document order.
func (p *Pipeline) processUnit(ctx context.Context, cu *codeunit.CodeUnit, tokenWriter writer.TokenWriter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("scanning unit %s: %w", cu.Name, err)
	}

	result, err := p.scanner.Tokenize(cu)
	if err != nil {
		return 0, fmt.Errorf("scanning unit %s: %w", cu.Name, err)
	}
	if err := tokenWriter.WriteUnit(cu, result); err != nil {
		return 0, fmt.Errorf("writing unit %s: %w", cu.Name, err)
	}

	count := 1
	for _, c := range cu.Consts {
		if c.Kind != codeunit.KindCode {
			continue
		}
		nested, err := p.processUnit(ctx, c.Code, tokenWriter)
		count += nested
		if err != nil {
			return count, err
		}
	}
	return count, nil
}
