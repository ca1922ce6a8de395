package scanner

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/retroenv/pydisasm/internal/token"
)

// emitTokens performs the final forward pass: synthetic placeholder and
// join tokens first, then the decoded instruction token at each offset.
func (a *analysis) emitTokens() ([]token.Token, error) {
	opc, code := a.opc, a.code

	tokens := make([]token.Token, 0, len(a.offsets))
	extendedArg := 0

	for _, offset := range a.offsets {
		// a new-if boundary gets a placeholder jump that also counts as an
		// incoming join edge
		if _, ok := a.newIfs[offset]; ok {
			tokens = append(tokens, token.Token{
				Kind:    opc.Mnemonic(opc.JumpForward),
				Offset:  offset,
				Label:   fmt.Sprintf("%d_fake", offset),
				Attr:    offset,
				HasAttr: true,
				Pattr:   strconv.Itoa(offset),
			})
			a.jumpTargets[offset] = append(a.jumpTargets[offset], offset)
		}

		// one join token per incoming jump edge, ordered by source offset
		if sources, ok := a.jumpTargets[offset]; ok {
			slices.Sort(sources)
			for k, source := range sources {
				tokens = append(tokens, token.Token{
					Kind:   token.ComeFrom,
					Offset: offset,
					Label:  fmt.Sprintf("%d_%d", offset, k),
					Pattr:  strconv.Itoa(source),
				})
			}
		}

		op := code[offset]
		_, lineStart := a.lineStarts[offset]
		tok := token.Token{
			Kind:      opc.Mnemonic(op),
			Offset:    offset,
			Label:     strconv.Itoa(offset),
			LineStart: lineStart,
		}

		if opc.HasOperand(op) {
			arg := a.arg(offset) + extendedArg
			extendedArg = 0

			// the prefix instruction carries no operand of its own, its
			// value widens the next instruction's operand
			if op == opc.ExtendedArg {
				extendedArg = arg << 16
				tokens = append(tokens, tok)
				continue
			}

			tok.Attr = arg
			tok.HasAttr = true
			pattr, err := a.displayOperand(op, arg, offset)
			if err != nil {
				return nil, err
			}
			tok.Pattr = pattr
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// displayOperand resolves the human readable form of an operand by its
// opcode category.
func (a *analysis) displayOperand(op byte, arg, offset int) (string, error) {
	opc, cu := a.opc, a.cu

	switch {
	case opc.Const.Contains(op):
		if arg >= len(cu.Consts) {
			return "", fmt.Errorf("constant index %d out of range at offset %d", arg, offset)
		}
		return cu.Consts[arg].String(), nil

	case opc.Name.Contains(op):
		if arg >= len(cu.Names) {
			return "", fmt.Errorf("name index %d out of range at offset %d", arg, offset)
		}
		return cu.Names[arg], nil

	case opc.JumpRel.Contains(op):
		return strconv.Itoa(offset + 3 + arg), nil

	case opc.JumpAbs.Contains(op):
		return strconv.Itoa(arg), nil

	case opc.Local.Contains(op):
		if arg >= len(cu.VarNames) {
			return "", fmt.Errorf("local variable index %d out of range at offset %d", arg, offset)
		}
		return cu.VarNames[arg], nil

	case opc.Compare.Contains(op):
		if arg >= len(cu.CmpOps) {
			return "", fmt.Errorf("comparison operator %d out of range at offset %d", arg, offset)
		}
		return cu.CmpOps[arg], nil

	case opc.Free.Contains(op):
		names := cu.CellAndFree()
		if arg >= len(names) {
			return "", fmt.Errorf("free variable index %d out of range at offset %d", arg, offset)
		}
		return names[arg], nil
	}
	return "", nil
}
