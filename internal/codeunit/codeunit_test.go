package codeunit

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestExpandLineTable(t *testing.T) {
	tests := []struct {
		name      string
		lnotab    []byte
		firstLine int
		expected  []LineBreak
	}{
		{
			name:      "empty table",
			lnotab:    nil,
			firstLine: 1,
			expected:  []LineBreak{{Offset: 0, Line: 1}},
		},
		{
			name:      "simple increments",
			lnotab:    []byte{6, 1, 9, 2},
			firstLine: 1,
			expected:  []LineBreak{{0, 1}, {6, 2}, {15, 4}},
		},
		{
			name:      "zero byte increment merges line deltas",
			lnotab:    []byte{0, 3, 6, 1},
			firstLine: 10,
			expected:  []LineBreak{{0, 13}, {6, 14}},
		},
		{
			name:      "trailing line increment without bytes",
			lnotab:    []byte{3, 1, 0, 5},
			firstLine: 1,
			expected:  []LineBreak{{0, 1}, {3, 7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaks := ExpandLineTable(tt.lnotab, tt.firstLine)
			assert.Len(t, breaks, len(tt.expected))
			for i, br := range tt.expected {
				assert.Equal(t, br, breaks[i])
			}
		})
	}
}

func TestCellAndFree(t *testing.T) {
	cu := &CodeUnit{
		CellVars: []string{"a", "b"},
		FreeVars: []string{"c"},
	}
	names := cu.CellAndFree()
	assert.Len(t, names, 3)
	assert.Equal(t, "a", names[0])
	assert.Equal(t, "b", names[1])
	assert.Equal(t, "c", names[2])
}

func TestConstString(t *testing.T) {
	tests := []struct {
		name     string
		c        Const
		expected string
	}{
		{"none", Const{Kind: KindNone}, "None"},
		{"true", Const{Kind: KindBool, Int: 1}, "True"},
		{"false", Const{Kind: KindBool}, "False"},
		{"int", Const{Kind: KindInt, Int: -42}, "-42"},
		{"float", Const{Kind: KindFloat, Float: 1.5}, "1.5"},
		{"string", Const{Kind: KindStr, Str: "it's"}, `'it\'s'`},
		{"string escapes", Const{Kind: KindStr, Str: "a\nb"}, `'a\nb'`},
		{"unicode", Const{Kind: KindUnicode, Str: "x"}, "u'x'"},
		{
			"tuple",
			Const{Kind: KindTuple, Tuple: []Const{
				{Kind: KindInt, Int: 1}, {Kind: KindNone},
			}},
			"(1, None)",
		},
		{
			"single element tuple",
			Const{Kind: KindTuple, Tuple: []Const{{Kind: KindInt, Int: 1}}},
			"(1,)",
		},
		{
			"code object",
			Const{Kind: KindCode, Code: &CodeUnit{Name: "f"}},
			"<code_object f>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.c.String())
		})
	}
}
