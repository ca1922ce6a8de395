// Package codeunit defines the in-memory representation of a deserialized
// bytecode unit.
package codeunit

// LineBreak marks the first instruction offset of a source line.
type LineBreak struct {
	Offset int
	Line   int
}

// CodeUnit is one deserialized code object. It is treated as immutable
// input by the scanner, the scanner never mutates it.
type CodeUnit struct {
	Name      string
	Filename  string
	ArgCount  int
	Locals    int
	StackSize int
	Flags     uint32
	FirstLine int

	Code     []byte
	Consts   []Const
	Names    []string
	VarNames []string
	CellVars []string
	FreeVars []string

	// CmpOps is the comparison operator name table of the bytecode version
	// the unit was compiled for.
	CmpOps []string

	// LineBreaks is the sparse offset to line mapping, sorted by offset.
	LineBreaks []LineBreak
}

// CellAndFree returns the concatenation of the cell and free variable name
// tables, the index space used by free variable opcodes.
func (cu *CodeUnit) CellAndFree() []string {
	names := make([]string, 0, len(cu.CellVars)+len(cu.FreeVars))
	names = append(names, cu.CellVars...)
	return append(names, cu.FreeVars...)
}

// ExpandLineTable expands the compact lnotab delta encoding into the sparse
// breakpoint list. Mirrors the reference line number algorithm: a source
// line is reported once at the offset where its first instruction starts.
func ExpandLineTable(lnotab []byte, firstLine int) []LineBreak {
	var breaks []LineBreak
	line := firstLine
	lastLine := -1
	offset := 0

	for i := 0; i+1 < len(lnotab); i += 2 {
		byteIncr := int(lnotab[i])
		lineIncr := int(lnotab[i+1])
		if byteIncr > 0 {
			if line != lastLine {
				breaks = append(breaks, LineBreak{Offset: offset, Line: line})
				lastLine = line
			}
			offset += byteIncr
		}
		line += lineIncr
	}
	if line != lastLine {
		breaks = append(breaks, LineBreak{Offset: offset, Line: line})
	}
	return breaks
}
