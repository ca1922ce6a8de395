package scanner

// Statement boundary detection. A "statement" offset is any instruction of
// the statement opcode category, plus the tails of conditional/unconditional
// jump pairs, minus known false positives: loop continuations, comprehension
// jump chains, for-loop target bindings and unwinding artifacts.

func (a *analysis) buildStmtIndices() {
	opc, code := a.opc, a.code
	n := len(code)

	prelim := a.statementCategory(0, n)
	stmts := make(map[int]struct{}, len(prelim))
	for _, s := range prelim {
		stmts[s] = struct{}{}
	}

	// conditional jump immediately followed by an unconditional one marks a
	// compiler inserted control join that behaves as a statement boundary
	passStmts := map[int]struct{}{}
	seqs := [][]byte{
		{opc.PopJumpIfFalse, opc.JumpForward},
		{opc.PopJumpIfFalse, opc.JumpAbsolute},
		{opc.PopJumpIfTrue, opc.JumpForward},
		{opc.PopJumpIfTrue, opc.JumpAbsolute},
	}
	for _, seq := range seqs {
		for i := 0; i < n-3; i += a.opSize(i) {
			j := i
			match := true
			for _, elem := range seq {
				if j >= n || code[j] != elem {
					match = false
					break
				}
				j += a.opSize(j)
			}
			if match {
				tail := a.before(j)
				stmts[tail] = struct{}{}
				passStmts[tail] = struct{}{}
			}
		}
	}

	stmtList := prelim
	if len(passStmts) > 0 {
		stmtList = sortedKeys(stmts)
	}

	lastStmt := -1
	a.nextStmt = make([]int, 0, n)
	for _, s := range stmtList {
		switch {
		case code[s] == opc.JumpAbsolute:
			if _, pass := passStmts[s]; !pass {
				// backward jump on its own line is a loop continuation, a
				// forward one never starts a statement
				last := lastStmt
				if last < 0 {
					last = n - 1
				}
				if a.target(s) > s || a.lines[last].line == a.lines[s].line {
					delete(stmts, s)
					continue
				}
				// rewinding through the jump chain onto a comprehension
				// append means this is a comprehension internal jump
				j := a.before(s)
				for j > 0 && code[j] == opc.JumpAbsolute {
					j = a.before(j)
				}
				if code[j] == opc.ListAppend {
					delete(stmts, s)
					continue
				}
			}

		case code[s] == opc.PopTop && a.opAt(a.before(s)) == opc.RotTwo:
			// stack rotation artifact of exception/context unwinding
			delete(stmts, s)
			continue

		case opc.Designator.Contains(code[s]):
			j := a.before(s)
			for j > 0 && opc.Designator.Contains(code[j]) {
				j = a.before(j)
			}
			if code[j] == opc.ForIter {
				// loop variable binding, not a standalone statement
				delete(stmts, s)
				continue
			}
		}

		lastStmt = s
		for len(a.nextStmt) < s {
			a.nextStmt = append(a.nextStmt, s)
		}
	}
	for len(a.nextStmt) < n {
		a.nextStmt = append(a.nextStmt, n)
	}

	a.stmts = stmts
}

// statementCategory returns all offsets of instructions belonging to the
// statement opcode category, ascending.
func (a *analysis) statementCategory(start, end int) []int {
	var result []int
	for i := start; i < end && i < len(a.code); i += a.opSize(i) {
		if a.opc.Statement.Contains(a.code[i]) {
			result = append(result, i)
		}
	}
	return result
}
