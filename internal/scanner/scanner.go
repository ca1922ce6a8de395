// Package scanner reconstructs the control-flow structure of flat bytecode
// and emits an annotated token stream for a grammar driven parser.
//
// Compiled conditionals collapse if, if/else, and and or into the same few
// jump opcodes, distinguished only by surrounding context: statement
// boundaries, sibling jumps, line numbers and trailing unconditional jumps.
// The structure detector encodes exactly that discriminating context as a
// deterministic single pass over precomputed indices.
package scanner

import (
	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/opcode"
	"github.com/retroenv/pydisasm/internal/token"
	"github.com/retroenv/retrogolib/log"
)

// Scanner tokenizes code units of one bytecode version. It holds no per
// unit state, every Tokenize call constructs a fresh analysis context, so
// a single instance can be reused across units.
type Scanner struct {
	logger *log.Logger
	opc    *opcode.Table
}

// Result is the token stream of one code unit together with the analysis
// byproducts a downstream consumer can use.
type Result struct {
	Tokens []token.Token

	// Regions lists the discovered structural regions in append order,
	// starting with the root region spanning the whole buffer.
	Regions []Region

	// ReturnEndIfs lists offsets of return instructions that terminate an
	// if-then region.
	ReturnEndIfs []int

	// NotContinue lists offsets of unconditional jumps that close an
	// if-then body and must not be read as loop continuations.
	NotContinue []int
}

// New creates a scanner for the instruction set described by the table.
func New(logger *log.Logger, table *opcode.Table) *Scanner {
	return &Scanner{
		logger: logger,
		opc:    table,
	}
}

// Tokenize produces the ordered token sequence of one code unit. The code
// unit is never mutated. Malformed input is a fatal error with no partial
// output, ambiguous jump classifications are not: they resolve through
// documented default rules.
func (s *Scanner) Tokenize(cu *codeunit.CodeUnit) (*Result, error) {
	a, err := newAnalysis(s.opc, cu)
	if err != nil {
		return nil, err
	}

	a.jumpTargets = a.findJumpTargets()
	a.detectNewIfs()

	tokens, err := a.emitTokens()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Scanned code unit",
		log.String("name", cu.Name),
		log.Int("instructions", len(a.offsets)),
		log.Int("tokens", len(tokens)),
		log.Int("regions", len(a.structs)),
	)

	return &Result{
		Tokens:       tokens,
		Regions:      a.structs,
		ReturnEndIfs: sortedKeys(a.returnEndIfs),
		NotContinue:  sortedKeys(a.notContinue),
	}, nil
}
