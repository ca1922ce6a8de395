package codeunit

import (
	"fmt"
	"strconv"
	"strings"
)

// ConstKind enumerates the constant value types found in code units.
type ConstKind int

const (
	KindNone ConstKind = iota
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindStr
	KindUnicode
	KindTuple
	KindCode
	KindEllipsis
	KindStopIteration
)

// Const is one constant value of a code unit.
type Const struct {
	Kind    ConstKind
	Int     int64
	Float   float64
	Complex complex128
	Str     string
	Tuple   []Const
	Code    *CodeUnit
}

// String renders the constant the way the source language would, nested
// code objects are rendered as an opaque reference.
func (c Const) String() string {
	switch c.Kind {
	case KindNone:
		return "None"
	case KindBool:
		if c.Int != 0 {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(c.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case KindComplex:
		return fmt.Sprintf("(%g+%gj)", real(c.Complex), imag(c.Complex))
	case KindStr:
		return quote(c.Str)
	case KindUnicode:
		return "u" + quote(c.Str)
	case KindTuple:
		parts := make([]string, len(c.Tuple))
		for i, e := range c.Tuple {
			parts[i] = e.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindCode:
		return "<code_object " + c.Code.Name + ">"
	case KindEllipsis:
		return "Ellipsis"
	case KindStopIteration:
		return "StopIteration"
	default:
		return "?"
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'' || ch == '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\t':
			b.WriteString(`\t`)
		case ch == '\r':
			b.WriteString(`\r`)
		case ch < 0x20 || ch >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, ch)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
