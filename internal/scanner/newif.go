package scanner

// detectNewIfs identifies conditional jumps whose destination sits on a
// different source line but whose span contains no structural jump-out.
// That is the signature of an implicit and/or chain the downstream grammar
// can only see with an injected placeholder token at the destination.
//
// This is an independent sweep over the instruction stream, not a second
// chance for the structure detector.
func (a *analysis) detectNewIfs() {
	opc, code := a.opc, a.code

	for _, pos := range a.offsets {
		if !opc.PopJump(code[pos]) {
			continue
		}
		target := a.target(pos)
		if target <= pos || target >= len(code) {
			continue
		}
		// a jump within its own line is a plain and/or expression join
		if a.lines[pos].line == a.lines[target].line {
			continue
		}

		simple := true
		for i := pos + 3; i < target; i += a.opSize(i) {
			switch code[i] {
			case opc.JumpForward:
				// an inner forward jump leaving its line is an interleaved
				// if/else arm escaping further
				t := a.target(i)
				if t >= len(code) || a.lines[i].line != a.lines[t].line {
					simple = false
				}
			case opc.JumpAbsolute:
				// a back-edge before the jump marks a while loop
				if a.target(i) < pos {
					simple = false
				}
			}
			if !simple {
				break
			}
		}
		if simple {
			a.newIfs[target] = append(a.newIfs[target], pos)
		}
	}
}
