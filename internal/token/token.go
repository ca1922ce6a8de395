// Package token defines the annotated token stream emitted by the scanner.
package token

import (
	"fmt"
	"strconv"
)

// ComeFrom is the reserved mnemonic of synthetic join tokens. It is
// distinct from every real opcode mnemonic so the downstream grammar can
// key on it.
const ComeFrom = "COME_FROM"

// Token is one element of the ordered token stream. Synthetic tokens
// (joins and placeholders) carry a suffixed label and appear immediately
// before the real token at their offset.
type Token struct {
	Kind      string `json:"kind"`                // opcode mnemonic or ComeFrom
	Offset    int    `json:"offset"`              // instruction offset the token belongs to
	Label     string `json:"label"`               // unique positional label, e.g. "30", "30_1", "30_fake"
	Attr      int    `json:"attr,omitempty"`      // decoded raw operand
	HasAttr   bool   `json:"hasAttr,omitempty"`   // whether the instruction takes an operand
	Pattr     string `json:"pattr,omitempty"`     // human readable operand
	LineStart bool   `json:"lineStart,omitempty"` // offset begins a new source line
}

// Synthetic returns whether the token was injected by the scanner instead
// of being decoded from the instruction buffer.
func (t Token) Synthetic() bool {
	return t.Label != strconv.Itoa(t.Offset)
}

// String renders the token as one listing line.
func (t Token) String() string {
	line := " "
	if t.LineStart {
		line = "*"
	}
	if !t.HasAttr && t.Pattr == "" {
		return fmt.Sprintf("%s %8s %s", line, t.Label, t.Kind)
	}
	if t.Pattr == "" {
		return fmt.Sprintf("%s %8s %-24s %d", line, t.Label, t.Kind, t.Attr)
	}
	if !t.HasAttr {
		return fmt.Sprintf("%s %8s %-24s (%s)", line, t.Label, t.Kind, t.Pattr)
	}
	return fmt.Sprintf("%s %8s %-24s %d (%s)", line, t.Label, t.Kind, t.Attr, t.Pattr)
}
