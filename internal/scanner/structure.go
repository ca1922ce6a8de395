package scanner

import "slices"

// RegionKind classifies a discovered structural region.
type RegionKind string

const (
	RegionRoot   RegionKind = "root"
	RegionIfThen RegionKind = "if-then"
	RegionIfElse RegionKind = "if-else"
	RegionAndOr  RegionKind = "and/or"
)

// Region is one discovered span of the instruction stream classified as a
// structural construct. Regions are only appended during the detection
// pass, never removed or mutated, and every non-root region is contained
// in a region that existed when it was appended.
type Region struct {
	Kind  RegionKind
	Start int
	End   int
}

// findJumpTargets walks the instruction stream once, classifying every
// conditional jump, and returns the table of jump destinations with their
// incoming source offsets. The fixed-jump table and the region list are
// built as byproducts of the same pass.
func (a *analysis) findJumpTargets() map[int][]int {
	n := len(a.code)
	a.structs = []Region{{Kind: RegionRoot, Start: 0, End: n - 1}}
	a.fixedJumps = map[int]int{}
	a.notContinue = map[int]struct{}{}
	a.returnEndIfs = map[int]struct{}{}
	a.buildStmtIndices()

	targets := map[int][]int{}
	for _, i := range a.offsets {
		op := a.code[i]
		a.detectStructure(i, op)

		if !a.opc.HasOperand(op) {
			continue
		}
		arg := a.arg(i)
		label, fixed := a.fixedJumps[i]
		if !fixed {
			switch {
			case a.opc.JumpRel.Contains(op) && op != a.opc.ForIter:
				label, fixed = i+3+arg, true
			case (op == a.opc.JumpIfFalseOrPop || op == a.opc.JumpIfTrueOrPop) && arg > i:
				label, fixed = arg, true
			}
		}
		if fixed && label >= 0 {
			targets[label] = append(targets[label], i)
		}
	}
	return targets
}

// detectStructure classifies the conditional jump at pos. The decision
// order matters: and/or containment first, chained conditionals second,
// sibling searches third, then the trailing-jump and trailing-return
// region rules.
func (a *analysis) detectStructure(pos int, op byte) {
	opc := a.opc

	// innermost already discovered region containing pos
	parent := a.structs[0]
	for _, s := range a.structs {
		if s.Start <= pos && pos < s.End && s.Start >= parent.Start && s.End <= parent.End {
			parent = s
		}
	}

	switch {
	case opc.PopJump(op):
		a.detectPopJump(pos, op, parent)

	case op == opc.JumpIfFalseOrPop || op == opc.JumpIfTrueOrPop:
		// short-circuit combinator: fix to a trailing unconditional forward
		// jump near the destination, unless that lands in unwinding code
		target := a.target(pos)
		if target <= pos {
			return
		}
		unopTarget := a.lastInstr(pos, target, opc.JumpForward, target)
		if unopTarget >= 0 && a.opAt(unopTarget+3) != opc.RotTwo {
			a.fixedJumps[pos] = unopTarget
		} else {
			a.fixedJumps[pos] = restrictToParent(target, parent)
		}
	}
}

// detectPopJump handles the conditional jumps that consume the tested
// value, the opcodes compiling if, if/else, while tests and and/or chains.
func (a *analysis) detectPopJump(pos int, op byte, parent Region) {
	opc, code := a.opc, a.code
	start := pos + 3
	target := a.target(pos)
	rtarget := restrictToParent(target, parent)
	popJumps := []byte{opc.PopJumpIfFalse, opc.PopJumpIfTrue}

	// short-circuit jumps never escape their enclosing boolean expression
	if parent.Kind == RegionAndOr && target != rtarget {
		a.fixedJumps[pos] = rtarget
		return
	}

	// a jump to right after another conditional jump chains both into a
	// larger conditional
	if pre := a.before(target); opc.PopJump(a.opAt(pre)) && target > pos {
		a.fixedJumps[pos] = pre
		a.structs = append(a.structs, Region{Kind: RegionAndOr, Start: start, End: pre})
		return
	}

	if op == opc.PopJumpIfFalse {
		if a.fixPopJumpIfFalse(pos, start, target, rtarget, parent, popJumps) {
			return
		}
	} else {
		if a.fixPopJumpIfTrue(pos, target, rtarget) {
			return
		}
	}

	// skip a trailing unconditional jump that only closes the if-then body,
	// unless it is the tail of an else clause followed by loop teardown
	preR := a.before(rtarget)
	if code[preR] == opc.JumpAbsolute && a.isStmt(preR) &&
		preR != pos && a.before(preR) != pos &&
		!(a.opAt(rtarget) == opc.JumpAbsolute && a.opAt(rtarget+3) == opc.PopBlock &&
			a.opAt(a.before(preR)) != opc.JumpAbsolute) {
		rtarget = preR
		preR = a.before(rtarget)
	}

	switch {
	case opc.UncondJump(code[preR]):
		ifEnd := a.target(preR)

		// a backward jump guarded by a loop setup is a while test, not an
		// if. The abort keys on the back edge landing before the
		// construct's own start, a loop header behind it does not count.
		if ifEnd < preR && a.opAt(a.before(ifEnd)) == opc.SetupLoop {
			if ifEnd < start {
				return
			}
		}

		end := restrictToParent(ifEnd, parent)
		a.structs = append(a.structs, Region{Kind: RegionIfThen, Start: start, End: preR})
		a.notContinue[preR] = struct{}{}

		if rtarget < end {
			a.structs = append(a.structs, Region{Kind: RegionIfElse, Start: preR, End: end})
		}

	case code[preR] == opc.ReturnValue:
		a.structs = append(a.structs, Region{Kind: RegionIfThen, Start: start, End: rtarget})
		a.returnEndIfs[preR] = struct{}{}

	default:
		a.structs = append(a.structs, Region{Kind: RegionIfThen, Start: start, End: rtarget})
	}
}

// fixPopJumpIfFalse searches for sibling jump-if-false jumps targeting the
// same destination within the current statement. It reports whether the
// jump was fully classified as part of a multi-term test.
func (a *analysis) fixPopJumpIfFalse(pos, start, target, rtarget int, parent Region, popJumps []byte) bool {
	opc, code := a.opc, a.code

	match := a.remOr(start, a.nextStmt[pos], []byte{opc.PopJumpIfFalse}, target, false)
	match = a.removeMidLineIfs(match)
	if len(match) == 0 {
		return false
	}

	preR := a.before(rtarget)
	if opc.UncondJump(code[preR]) && !a.isStmt(preR) &&
		restrictToParent(a.target(preR), parent) == rtarget {

		prePreR := a.before(preR)
		if code[prePreR] == opc.JumpAbsolute &&
			len(a.removeMidLineIfs([]int{pos})) > 0 &&
			target == a.target(prePreR) &&
			(!a.isStmt(prePreR) || a.target(prePreR) > prePreR) &&
			len(a.removeMidLineIfs(a.remOr(start, prePreR, popJumps, target, false))) == 1 {
			// single chained test whose join the region rules handle
			return false
		}
		if code[prePreR] == opc.ReturnValue &&
			len(a.removeMidLineIfs([]int{pos})) > 0 &&
			a.uniqueBranch(start, prePreR, preR, target, popJumps) {
			// lone test ending in a return, likewise left to the region rules
			return false
		}

		// independent branch: take the last sibling on its own line, or the
		// last match as fallback
		fix := -1
		lastJumpGood := true
		for _, j := range a.findInstr(start, a.nextStmt[pos], opc.PopJumpIfFalse) {
			if target == a.target(j) {
				if a.lines[j].next == j+3 && lastJumpGood {
					fix = j
					break
				}
			} else {
				lastJumpGood = false
			}
		}
		if fix < 0 {
			fix = match[len(match)-1]
		}
		a.fixedJumps[pos] = fix
		return true
	}

	a.fixedJumps[pos] = match[len(match)-1]
	return true
}

// uniqueBranch reports whether exactly one conditional jump in
// [start, end) either targets dest exactly or jumps at or beyond beyond.
func (a *analysis) uniqueBranch(start, end, beyond, dest int, popJumps []byte) bool {
	union := map[int]struct{}{}
	for _, offset := range a.removeMidLineIfs(a.remOr(start, end, popJumps, dest, false)) {
		union[offset] = struct{}{}
	}
	withJA := append(slices.Clone(popJumps), a.opc.JumpAbsolute)
	for _, offset := range a.removeMidLineIfs(a.remOr(start, end, withJA, beyond, true)) {
		union[offset] = struct{}{}
	}
	return len(union) == 1
}

// fixPopJumpIfTrue resolves a jump-if-true against the following statement
// boundary. It reports whether the jump destination was fixed.
func (a *analysis) fixPopJumpIfTrue(pos, target, rtarget int) bool {
	opc, code := a.opc, a.code

	next := a.nextStmt[pos]
	pre := a.before(next)
	switch {
	case pre == pos:
		// the jump is the whole statement, nothing to fix

	case next < len(code) && opc.UncondJump(code[next]) && target == a.target(next):
		if code[pre] == opc.PopJumpIfFalse {
			prePreR := a.before(a.before(rtarget))
			if code[next] == opc.JumpForward || target != rtarget ||
				(a.opAt(prePreR) != opc.JumpAbsolute && a.opAt(prePreR) != opc.ReturnValue) {
				a.fixedJumps[pos] = pre
				return true
			}
		}

	case next < len(code) && code[next] == opc.JumpAbsolute && opc.UncondJump(a.opAt(target)):
		if a.target(target) == a.target(next) {
			a.fixedJumps[pos] = pre
			return true
		}
	}
	return false
}

func (a *analysis) isStmt(offset int) bool {
	_, ok := a.stmts[offset]
	return ok
}
