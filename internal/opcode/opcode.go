// Package opcode provides per-version instruction metadata tables for
// CPython bytecode.
package opcode

import (
	"fmt"

	"github.com/retroenv/retrogolib/set"
)

// Table describes the instruction set of one bytecode version. The scanner
// accesses opcodes only through this table, no opcode value is hard coded
// outside this package.
type Table struct {
	Version string
	Magic   uint32 // .pyc magic word including the \r\n suffix

	names        [256]string
	haveArgument byte

	// operand display categories
	Const       set.Set[byte]
	Name        set.Set[byte]
	JumpRel     set.Set[byte]
	JumpAbs     set.Set[byte]
	Local       set.Set[byte]
	Compare     set.Set[byte]
	Free        set.Set[byte]
	ExtendedArg byte

	// statement boundary categories
	Statement  set.Set[byte] // opcodes that start a recognized statement
	Designator set.Set[byte] // assignment target chain opcodes

	// opcodes the structure detector pattern matches on
	PopJumpIfFalse   byte
	PopJumpIfTrue    byte
	JumpIfFalseOrPop byte
	JumpIfTrueOrPop  byte
	JumpForward      byte
	JumpAbsolute     byte
	SetupLoop        byte
	ForIter          byte
	ReturnValue      byte
	PopBlock         byte
	PopTop           byte
	RotTwo           byte
	ListAppend       byte

	// CompareOps lists the comparison operator names indexed by operand.
	CompareOps []string
}

// Mnemonic returns the instruction name of an opcode, or an empty string
// for opcodes not part of this instruction set.
func (t *Table) Mnemonic(op byte) string {
	return t.names[op]
}

// HasOperand returns whether the opcode carries a 2 byte operand.
func (t *Table) HasOperand(op byte) bool {
	return op >= t.haveArgument
}

// PopJump returns whether the opcode is a conditional jump that consumes
// the tested value.
func (t *Table) PopJump(op byte) bool {
	return op == t.PopJumpIfFalse || op == t.PopJumpIfTrue
}

// UncondJump returns whether the opcode is an unconditional forward or
// absolute jump.
func (t *Table) UncondJump(op byte) bool {
	return op == t.JumpForward || op == t.JumpAbsolute
}

// ForVersion returns the instruction metadata table for a bytecode version.
func ForVersion(version string) (*Table, error) {
	switch version {
	case "2.7":
		return Python27(), nil
	default:
		return nil, fmt.Errorf("unsupported bytecode version '%s'", version)
	}
}
