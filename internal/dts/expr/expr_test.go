package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Eval(t *testing.T) {
	testCases := []struct {
		name      string
		src       string
		lookup    MacroLookup
		expect    int64
		expectErr bool
	}{
		{name: "decimal literal", src: "42", expect: 42},
		{name: "hex literal", src: "0x2A", expect: 42},
		{name: "octal literal", src: "010", expect: 8},
		{name: "suffixed literal", src: "1UL", expect: 1},
		{name: "addition", src: "1 + 2", expect: 3},
		{name: "precedence", src: "2 + 3 * 4", expect: 14},
		{name: "parens override precedence", src: "(2 + 3) * 4", expect: 20},
		{name: "shift", src: "1 << 4", expect: 16},
		{name: "bitwise or", src: "0x10 | 0x01", expect: 17},
		{name: "ternary true branch", src: "1 ? 10 : 20", expect: 10},
		{name: "ternary false branch", src: "0 ? 10 : 20", expect: 20},
		{name: "unary minus", src: "-5 + 10", expect: 5},
		{name: "unary not", src: "!0", expect: 1},
		{name: "unary complement", src: "~0", expect: -1},
		{
			name: "macro lookup resolves identifier",
			src:  "FOO + 1",
			lookup: func(name string) (int64, bool) {
				if name == "FOO" {
					return 41, true
				}
				return 0, false
			},
			expect: 42,
		},
		{name: "undefined identifier is an error", src: "BAR", expectErr: true},
		{name: "division by zero is an error", src: "1 / 0", expectErr: true},
		{name: "modulo by zero is an error", src: "1 % 0", expectErr: true},
		{name: "unexpected trailing input is an error", src: "1 2", expectErr: true},
		{name: "unterminated parens is an error", src: "(1 + 2", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Eval(tc.src, tc.lookup)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tc.expect, v)
		})
	}
}
