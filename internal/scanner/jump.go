package scanner

// Jump target resolution helpers. All helpers operate on validated
// instruction boundaries and are bounded by the range they are given.

// findInstr scans instructions in [start, end) and returns the offsets of
// those matching one of the wanted opcodes, in ascending order.
func (a *analysis) findInstr(start, end int, ops ...byte) []int {
	var result []int
	for i := max(start, 0); i < end && i < len(a.code); i += a.opSize(i) {
		op := a.code[i]
		for _, wanted := range ops {
			if op == wanted {
				result = append(result, i)
				break
			}
		}
	}
	return result
}

// findInstrTarget scans instructions in [start, end) and returns matching
// offsets whose resolved destination equals target, or lies at or beyond
// it when includeBeyond is set.
func (a *analysis) findInstrTarget(start, end int, ops []byte, target int, includeBeyond bool) []int {
	var result []int
	for _, i := range a.findInstr(start, end, ops...) {
		dest := a.target(i)
		if dest == target || (includeBeyond && dest >= target) {
			result = append(result, i)
		}
	}
	return result
}

// lastInstr returns the single matching offset whose destination is
// closest to target, preferring later offsets on equal distance and exact
// matches over approximate ones. Returns -1 if nothing matches.
func (a *analysis) lastInstr(start, end int, op byte, target int) int {
	result := -1
	distance := len(a.code)
	for _, i := range a.findInstr(start, end, op) {
		dest := a.target(i)
		if dest == target {
			distance = 0
			result = i
			continue
		}
		if d := abs(target - dest); d <= distance {
			distance = d
			result = i
		}
	}
	return result
}

// remOr works like findInstrTarget but additionally drops offsets nested
// strictly inside an inner 'or' sub-chain, the span between a
// jump-if-true and the instruction before its destination.
func (a *analysis) remOr(start, end int, ops []byte, target int, includeBeyond bool) []int {
	result := a.findInstrTarget(start, end, ops, target, includeBeyond)

	for _, pjit := range a.findInstr(start, end, a.opc.PopJumpIfTrue) {
		inner := a.target(pjit) - 3
		var filtered []int
		for _, offset := range result {
			if offset <= pjit || offset >= inner {
				filtered = append(filtered, offset)
			}
		}
		result = filtered
	}
	return result
}

// removeMidLineIfs drops conditional jumps that sit mid-line: on the same
// source line as the following instruction, where the last instruction of
// the line is itself a conditional jump. Such a jump is part of the same
// logical line, not a statement level branch.
func (a *analysis) removeMidLineIfs(ifs []int) []int {
	var filtered []int
	for _, i := range ifs {
		if i+3 < len(a.code) && a.lines[i].line == a.lines[i+3].line {
			if a.opc.PopJump(a.opAt(a.before(a.lines[i].next))) {
				continue
			}
		}
		filtered = append(filtered, i)
	}
	return filtered
}

// restrictToParent clamps a destination into the enclosing region: a
// destination not strictly inside (start, end) is replaced by the region
// end.
func restrictToParent(target int, parent Region) int {
	if parent.Start < target && target < parent.End {
		return target
	}
	return parent.End
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
