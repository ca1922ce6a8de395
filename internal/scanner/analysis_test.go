package scanner

import (
	"testing"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/opcode"
	"github.com/retroenv/retrogolib/assert"
)

func TestNewAnalysisRejectsUnknownOpcode(t *testing.T) {
	b := &codeBuilder{}
	b.line(1).op(7) // no 2.7 opcode is assigned to 7

	_, err := newAnalysis(opcode.Python27(), b.unit())
	assert.ErrorContains(t, err, "unknown opcode 0x07 at offset 0")
}

func TestNewAnalysisRejectsTruncatedStream(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).op(opc.ReturnValue)
	b.code = append(b.code, opLoadConst, 0) // operand byte missing

	_, err := newAnalysis(opc, b.unit())
	assert.ErrorContains(t, err, "truncated instruction stream at offset 1")
}

func TestPrevOpCoversOperandBytes(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadConst, 0).op(opc.PopTop).arg(opLoadConst, 1).op(opc.ReturnValue)

	a, err := newAnalysis(opc, b.unit())
	assert.NoError(t, err)

	// every byte of an instruction maps to the instruction start
	for _, want := range []struct{ offset, start int }{
		{0, 0}, {1, 0}, {2, 0},
		{3, 3},
		{4, 4}, {5, 4}, {6, 4},
		{7, 7},
	} {
		assert.Equal(t, want.start, a.prevOp[want.offset])
	}

	// before steps to the preceding instruction and saturates at 0
	assert.Equal(t, 0, a.before(3))
	assert.Equal(t, 3, a.before(4))
	assert.Equal(t, 4, a.before(7))
	assert.Equal(t, 7, a.before(len(a.code)))
	assert.Equal(t, 0, a.before(0))
}

func TestLineMap(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(10).arg(opLoadConst, 0).op(opc.PopTop)
	b.line(12).arg(opLoadConst, 1).op(opc.ReturnValue)

	a, err := newAnalysis(opc, b.unit())
	assert.NoError(t, err)

	assert.Equal(t, lineInfo{line: 10, next: 4}, a.lines[0])
	assert.Equal(t, lineInfo{line: 10, next: 4}, a.lines[3])
	assert.Equal(t, lineInfo{line: 12, next: 8}, a.lines[4])
	assert.Equal(t, lineInfo{line: 12, next: 8}, a.lines[7])

	_, ok := a.lineStarts[4]
	assert.True(t, ok)
	_, ok = a.lineStarts[3]
	assert.False(t, ok)
}

func TestLineMapWithoutBreaks(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.arg(opLoadConst, 0).op(opc.ReturnValue)

	cu := b.unit()
	cu.LineBreaks = nil
	cu.FirstLine = 5

	a, err := newAnalysis(opc, cu)
	assert.NoError(t, err)
	assert.Equal(t, lineInfo{line: 5, next: 4}, a.lines[0])
}

// line numbers never decrease with the offset and every entry points at
// a strictly later next-line boundary.
func TestLineMapMonotonic(t *testing.T) {
	units := map[string]*codeunit.CodeUnit{
		"if":       scenarioIfNoElse(),
		"ifElse":   scenarioIfElse(),
		"while":    scenarioWhile(),
		"ternary":  scenarioConditionalReturn(),
		"andChain": scenarioAndChain(),
		"orChain":  scenarioOrChain(),
	}

	for name, cu := range units {
		t.Run(name, func(t *testing.T) {
			a, err := newAnalysis(opcode.Python27(), cu)
			assert.NoError(t, err)

			assert.Len(t, a.lines, len(cu.Code))
			for i := 1; i < len(a.lines); i++ {
				assert.True(t, a.lines[i].line >= a.lines[i-1].line)
				assert.True(t, a.lines[i].next > i)
			}
		})
	}
}

func TestStmtIndicesLoopContinuation(t *testing.T) {
	a, err := newAnalysis(opcode.Python27(), scenarioWhile())
	assert.NoError(t, err)
	a.buildStmtIndices()

	// the loop back edge is filtered, the body statement is kept
	assert.False(t, a.isStmt(13))
	assert.True(t, a.isStmt(12))
	assert.True(t, a.isStmt(16))
	assert.True(t, a.isStmt(20))

	// nextStmt points each offset at the following statement boundary
	assert.Equal(t, 12, a.nextStmt[6])
	assert.Equal(t, 16, a.nextStmt[12])
	assert.Equal(t, len(a.code), a.nextStmt[20])
}

func TestStmtIndicesComprehensionChain(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	// list comprehension tail: the append feeds a jump back to the
	// iterator, neither the back edge nor the loop variable binding is a
	// statement
	b.line(1).arg(opc.SetupLoop, 20) // to 23
	b.arg(116, 0)                    // LOAD_GLOBAL
	b.op(68)                         // GET_ITER
	b.arg(opc.ForIter, 12)           // to 22
	b.arg(125, 0)                    // STORE_FAST
	b.arg(124, 0)                    // LOAD_FAST
	b.arg(opc.ListAppend, 2)
	b.line(2).arg(opc.JumpAbsolute, 7)
	b.op(opc.PopBlock)
	b.line(3).arg(opLoadConst, 0).op(opc.ReturnValue)

	a, err := newAnalysis(opc, b.unit())
	assert.NoError(t, err)
	a.buildStmtIndices()

	assert.False(t, a.isStmt(19)) // comprehension back edge
	assert.False(t, a.isStmt(10)) // loop variable binding
	assert.True(t, a.isStmt(0))
	assert.True(t, a.isStmt(22))
}

func TestRestrictToParent(t *testing.T) {
	parent := Region{Kind: RegionRoot, Start: 10, End: 50}

	assert.Equal(t, 20, restrictToParent(20, parent))
	assert.Equal(t, 50, restrictToParent(10, parent))
	assert.Equal(t, 50, restrictToParent(50, parent))
	assert.Equal(t, 50, restrictToParent(80, parent))
	assert.Equal(t, 50, restrictToParent(5, parent))
}

func TestLastInstr(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opc.JumpForward, 9) // @0 to 12
	b.arg(opc.JumpForward, 8)         // @3 to 14
	b.arg(opc.JumpForward, 5)         // @6 to 14
	b.arg(opLoadConst, 0).op(opc.ReturnValue)

	a, err := newAnalysis(opc, b.unit())
	assert.NoError(t, err)

	// exact match wins over closer approximations
	assert.Equal(t, 0, a.lastInstr(0, 9, opc.JumpForward, 12))
	// later instruction wins on equal target
	assert.Equal(t, 6, a.lastInstr(0, 9, opc.JumpForward, 14))
	assert.Equal(t, -1, a.lastInstr(0, 9, opc.JumpAbsolute, 12))
}
