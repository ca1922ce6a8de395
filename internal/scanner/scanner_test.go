package scanner

import (
	"testing"

	"github.com/retroenv/pydisasm/internal/codeunit"
	"github.com/retroenv/pydisasm/internal/opcode"
	"github.com/retroenv/pydisasm/internal/token"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// codeBuilder assembles instruction streams for tests.
type codeBuilder struct {
	code   []byte
	breaks []codeunit.LineBreak
}

// line marks the current offset as the start of a source line.
func (b *codeBuilder) line(line int) *codeBuilder {
	b.breaks = append(b.breaks, codeunit.LineBreak{Offset: len(b.code), Line: line})
	return b
}

// op appends an instruction without operand.
func (b *codeBuilder) op(op byte) *codeBuilder {
	b.code = append(b.code, op)
	return b
}

// arg appends an instruction with a 2 byte operand.
func (b *codeBuilder) arg(op byte, v int) *codeBuilder {
	b.code = append(b.code, op, byte(v), byte(v>>8))
	return b
}

func (b *codeBuilder) unit() *codeunit.CodeUnit {
	return &codeunit.CodeUnit{
		Name:       "test",
		FirstLine:  1,
		Code:       b.code,
		Consts:     manyConsts(8),
		Names:      []string{"a", "b", "c", "d"},
		VarNames:   []string{"x", "y"},
		CmpOps:     opcode.Python27().CompareOps,
		LineBreaks: b.breaks,
	}
}

func manyConsts(n int) []codeunit.Const {
	consts := make([]codeunit.Const, n)
	for i := range consts {
		consts[i] = codeunit.Const{Kind: codeunit.KindInt, Int: int64(i)}
	}
	return consts
}

func testScanner(t *testing.T) *Scanner {
	t.Helper()
	return New(log.NewTestLogger(t), opcode.Python27())
}

const (
	opLoadName  = 101
	opLoadConst = 100
)

func regionsOfKind(regions []Region, kind RegionKind) []Region {
	var result []Region
	for _, r := range regions {
		if r.Kind == kind {
			result = append(result, r)
		}
	}
	return result
}

// if (cond): A with no else: a single jump whose destination directly
// follows the body.
func scenarioIfNoElse() *codeunit.CodeUnit {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadName, 0).arg(opc.PopJumpIfFalse, 10)
	b.line(2).arg(opLoadConst, 0).op(opc.PopTop)
	b.line(3).arg(opLoadConst, 1).op(opc.ReturnValue)
	return b.unit()
}

func TestDetectIfWithoutElse(t *testing.T) {
	result, err := testScanner(t).Tokenize(scenarioIfNoElse())
	assert.NoError(t, err)

	ifThens := regionsOfKind(result.Regions, RegionIfThen)
	assert.Len(t, ifThens, 1)
	assert.Equal(t, Region{Kind: RegionIfThen, Start: 6, End: 10}, ifThens[0])
	assert.Empty(t, regionsOfKind(result.Regions, RegionIfElse))
}

// if (cond): A else: B: destination preceded by an unconditional forward
// jump over the else block.
func scenarioIfElse() *codeunit.CodeUnit {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadName, 0).arg(opc.PopJumpIfFalse, 13)
	b.line(2).arg(opLoadConst, 0).op(opc.PopTop).arg(opc.JumpForward, 4) // to 17
	b.line(3).arg(opLoadConst, 1).op(opc.PopTop)
	b.line(4).arg(opLoadConst, 2).op(opc.ReturnValue)
	return b.unit()
}

func TestDetectIfElse(t *testing.T) {
	result, err := testScanner(t).Tokenize(scenarioIfElse())
	assert.NoError(t, err)

	ifThens := regionsOfKind(result.Regions, RegionIfThen)
	assert.Len(t, ifThens, 1)
	assert.Equal(t, Region{Kind: RegionIfThen, Start: 6, End: 10}, ifThens[0])

	elses := regionsOfKind(result.Regions, RegionIfElse)
	assert.Len(t, elses, 1)
	assert.Equal(t, Region{Kind: RegionIfElse, Start: 10, End: 17}, elses[0])

	assert.Len(t, result.NotContinue, 1)
	assert.Equal(t, 10, result.NotContinue[0])
}

// while (cond): A: the test jump's destination is preceded by the loop
// back edge, guarded by the loop setup.
func scenarioWhile() *codeunit.CodeUnit {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opc.SetupLoop, 14) // to 17
	b.arg(opLoadName, 0).arg(opc.PopJumpIfFalse, 16)
	b.line(2).arg(opLoadConst, 0).op(opc.PopTop).arg(opc.JumpAbsolute, 3)
	b.op(opc.PopBlock)
	b.line(3).arg(opLoadConst, 1).op(opc.ReturnValue)
	return b.unit()
}

func TestDetectWhileLoopIsNotAnIf(t *testing.T) {
	result, err := testScanner(t).Tokenize(scenarioWhile())
	assert.NoError(t, err)

	assert.Empty(t, regionsOfKind(result.Regions, RegionIfThen))
	assert.Empty(t, regionsOfKind(result.Regions, RegionIfElse))
}

// return A if cond else B: destination preceded by a return instruction.
func scenarioConditionalReturn() *codeunit.CodeUnit {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadName, 0).arg(opc.PopJumpIfFalse, 10).
		arg(opLoadConst, 0).op(opc.ReturnValue).
		arg(opLoadConst, 1).op(opc.ReturnValue)
	return b.unit()
}

func TestDetectReturnEndsIf(t *testing.T) {
	result, err := testScanner(t).Tokenize(scenarioConditionalReturn())
	assert.NoError(t, err)

	ifThens := regionsOfKind(result.Regions, RegionIfThen)
	assert.Len(t, ifThens, 1)
	assert.Equal(t, Region{Kind: RegionIfThen, Start: 6, End: 10}, ifThens[0])
	assert.Empty(t, regionsOfKind(result.Regions, RegionIfElse))

	assert.Len(t, result.ReturnEndIfs, 1)
	assert.Equal(t, 9, result.ReturnEndIfs[0])
}

// if a and b and c: A on one source line: the leading jumps chain onto the
// last sibling instead of opening regions of their own.
func scenarioAndChain() *codeunit.CodeUnit {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadName, 0).arg(opc.PopJumpIfFalse, 22).
		arg(opLoadName, 1).arg(opc.PopJumpIfFalse, 22).
		arg(opLoadName, 2).arg(opc.PopJumpIfFalse, 22)
	b.line(2).arg(opLoadConst, 0).op(opc.PopTop)
	b.line(3).arg(opLoadConst, 1).op(opc.ReturnValue)
	return b.unit()
}

func TestDetectAndChainMidLineJumps(t *testing.T) {
	result, err := testScanner(t).Tokenize(scenarioAndChain())
	assert.NoError(t, err)

	// only the final jump of the chain opens the if-then
	ifThens := regionsOfKind(result.Regions, RegionIfThen)
	assert.Len(t, ifThens, 1)
	assert.Equal(t, Region{Kind: RegionIfThen, Start: 18, End: 22}, ifThens[0])

	// both leading jumps resolve onto the last sibling at offset 15
	joins := joinSources(t, result, 15)
	assert.Len(t, joins, 2)
	assert.Equal(t, "3", joins[0])
	assert.Equal(t, "9", joins[1])
}

// if a or b: A: the first jump lands right after the second one, chaining
// both into one conditional and opening an and/or region.
func scenarioOrChain() *codeunit.CodeUnit {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadName, 0).arg(opc.PopJumpIfTrue, 12).
		arg(opLoadName, 1).arg(opc.PopJumpIfFalse, 16)
	b.line(2).arg(opLoadConst, 0).op(opc.PopTop)
	b.line(3).arg(opLoadConst, 1).op(opc.ReturnValue)
	return b.unit()
}

func TestDetectOrChain(t *testing.T) {
	result, err := testScanner(t).Tokenize(scenarioOrChain())
	assert.NoError(t, err)

	andOrs := regionsOfKind(result.Regions, RegionAndOr)
	assert.Len(t, andOrs, 1)
	assert.Equal(t, Region{Kind: RegionAndOr, Start: 6, End: 9}, andOrs[0])

	// the jump-if-true was fixed onto the following jump-if-false
	joins := joinSources(t, result, 9)
	assert.Len(t, joins, 1)
	assert.Equal(t, "3", joins[0])
}

// x = a and b using the short-circuit combinator.
func TestDetectShortCircuitCombinator(t *testing.T) {
	opc := opcode.Python27()
	b := &codeBuilder{}
	b.line(1).arg(opLoadName, 0).arg(opc.JumpIfFalseOrPop, 9).
		arg(opLoadName, 1).arg(90, 2). // STORE_NAME c
		arg(opLoadConst, 0).op(opc.ReturnValue)

	result, err := testScanner(t).Tokenize(b.unit())
	assert.NoError(t, err)

	joins := joinSources(t, result, 9)
	assert.Len(t, joins, 1)
	assert.Equal(t, "3", joins[0])
}

// every discovered region must fit inside a region that was already on
// the list when it was appended, starting from the whole-buffer root.
func TestRegionContainment(t *testing.T) {
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
			result, err := testScanner(t).Tokenize(cu)
			assert.NoError(t, err)

			assert.NotEmpty(t, result.Regions)
			assert.Equal(t, RegionRoot, result.Regions[0].Kind)
			assert.Equal(t, 0, result.Regions[0].Start)
			assert.Equal(t, len(cu.Code)-1, result.Regions[0].End)

			for i, region := range result.Regions[1:] {
				contained := false
				for _, outer := range result.Regions[:i+1] {
					if outer.Start <= region.Start && region.End <= outer.End {
						contained = true
						break
					}
				}
				assert.True(t, contained)
			}
		})
	}
}

// joinSources returns the display operands of the join tokens at an offset.
func joinSources(t *testing.T, result *Result, offset int) []string {
	t.Helper()
	var sources []string
	for _, tok := range result.Tokens {
		if tok.Kind == token.ComeFrom && tok.Offset == offset {
			sources = append(sources, tok.Pattr)
		}
	}
	return sources
}
