package scanner

import (
	"fmt"
	"maps"
	"slices"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/opcode"
)

// lineInfo describes one byte offset: the source line it belongs to and
// the offset at which the next source line starts.
type lineInfo struct {
	line int
	next int
}

// analysis is the per-call context owning all derived tables. It is
// constructed fresh for every Tokenize call, state never leaks between
// code units.
type analysis struct {
	opc *opcode.Table
	cu  *codeunit.CodeUnit

	code       []byte
	offsets    []int // valid instruction start offsets, ascending
	lines      []lineInfo
	prevOp     []int
	lineStarts map[int]struct{}

	stmts    map[int]struct{}
	nextStmt []int

	structs      []Region
	fixedJumps   map[int]int
	jumpTargets  map[int][]int
	newIfs       map[int][]int
	notContinue  map[int]struct{}
	returnEndIfs map[int]struct{}
}

// newAnalysis validates the instruction buffer and builds the offset,
// line and previous-instruction indices. A truncated instruction stream
// or an opcode absent from the metadata table aborts with an error.
func newAnalysis(opc *opcode.Table, cu *codeunit.CodeUnit) (*analysis, error) {
	a := &analysis{
		opc:    opc,
		cu:     cu,
		code:   cu.Code,
		newIfs: map[int][]int{},
	}

	for offset := 0; offset < len(a.code); {
		op := a.code[offset]
		if opc.Mnemonic(op) == "" {
			return nil, fmt.Errorf("unknown opcode 0x%02x at offset %d", op, offset)
		}
		size := 1
		if opc.HasOperand(op) {
			size = 3
		}
		if offset+size > len(a.code) {
			return nil, fmt.Errorf("truncated instruction stream at offset %d", offset)
		}
		a.offsets = append(a.offsets, offset)
		offset += size
	}

	a.buildLineMap()
	a.buildPrevOp()
	return a, nil
}

// opSize returns the byte size of the instruction at the given offset.
func (a *analysis) opSize(offset int) int {
	if a.opc.HasOperand(a.code[offset]) {
		return 3
	}
	return 1
}

// opAt reads the opcode at an offset, returning 0 for out of range reads.
// 0 is not an opcode any detector pattern matches on.
func (a *analysis) opAt(offset int) byte {
	if offset < 0 || offset >= len(a.code) {
		return 0
	}
	return a.code[offset]
}

// arg decodes the 2 byte little-endian operand of the instruction.
func (a *analysis) arg(offset int) int {
	return int(a.code[offset+1]) | int(a.code[offset+2])<<8
}

// target returns the absolute jump destination of the instruction.
func (a *analysis) target(offset int) int {
	t := a.arg(offset)
	if a.opc.JumpRel.Contains(a.code[offset]) {
		t += offset + 3
	}
	return t
}

// before returns the start offset of the instruction immediately preceding
// the given offset.
func (a *analysis) before(offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset > len(a.code) {
		offset = len(a.code)
	}
	return a.prevOp[offset-1]
}

// buildLineMap fills the per-offset line info from the sparse breakpoint
// list. Offsets before the first breakpoint inherit its line, offsets past
// the last breakpoint use the buffer length as next line start.
func (a *analysis) buildLineMap() {
	n := len(a.code)
	a.lines = make([]lineInfo, n)

	breaks := a.cu.LineBreaks
	if len(breaks) == 0 {
		breaks = []codeunit.LineBreak{{Offset: 0, Line: a.cu.FirstLine}}
	}

	prevLine := breaks[0].Line
	offset := 0
	for _, br := range breaks[1:] {
		for offset < br.Offset && offset < n {
			a.lines[offset] = lineInfo{line: prevLine, next: br.Offset}
			offset++
		}
		prevLine = br.Line
	}
	for ; offset < n; offset++ {
		a.lines[offset] = lineInfo{line: prevLine, next: n}
	}

	a.lineStarts = make(map[int]struct{}, len(breaks))
	for _, br := range breaks {
		a.lineStarts[br.Offset] = struct{}{}
	}
}

// buildPrevOp replicates every instruction start offset across all bytes
// the instruction occupies, operand bytes included.
func (a *analysis) buildPrevOp() {
	a.prevOp = make([]int, len(a.code))
	for _, offset := range a.offsets {
		for b := offset; b < offset+a.opSize(offset); b++ {
			a.prevOp[b] = offset
		}
	}
}

func sortedKeys(m map[int]struct{}) []int {
	return slices.Sorted(maps.Keys(m))
}
