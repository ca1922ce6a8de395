package token

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestTokenString(t *testing.T) {
	tests := []struct {
		name     string
		token    Token
		expected string
	}{
		{
			name:     "no operand",
			token:    Token{Kind: "RETURN_VALUE", Offset: 4, Label: "4"},
			expected: "         4 RETURN_VALUE",
		},
		{
			name: "operand with display value",
			token: Token{
				Kind: "LOAD_CONST", Offset: 0, Label: "0",
				Attr: 1, HasAttr: true, Pattr: "'x'", LineStart: true,
			},
			expected: "*        0 LOAD_CONST               1 ('x')",
		},
		{
			name:     "join token",
			token:    Token{Kind: ComeFrom, Offset: 13, Label: "13_0", Pattr: "3"},
			expected: "      13_0 COME_FROM                (3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.token.String())
		})
	}
}

func TestSynthetic(t *testing.T) {
	assert.False(t, Token{Kind: "POP_TOP", Offset: 3, Label: "3"}.Synthetic())
	assert.True(t, Token{Kind: ComeFrom, Offset: 3, Label: "3_0"}.Synthetic())
	assert.True(t, Token{Kind: "JUMP_FORWARD", Offset: 3, Label: "3_fake"}.Synthetic())
}
