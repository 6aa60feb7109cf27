package cache

import (
	"testing"

	"github.com/dkrn/dts-ls/internal/dts/token"
	"github.com/stretchr/testify/assert"
)

func Test_Memory_PutGet(t *testing.T) {
	m := NewMemory()

	_, ok := m.GetTokens("abc")
	assert.False(t, ok)

	toks := []token.Token{{Class: token.Identifier, Lexeme: "compatible"}}
	m.PutTokens("abc", toks)

	got, ok := m.GetTokens("abc")
	assert.True(t, ok)
	assert.Equal(t, toks, got)
}

func Test_Memory_Reset(t *testing.T) {
	m := NewMemory()
	m.PutTokens("abc", []token.Token{{Class: token.Identifier, Lexeme: "x"}})
	m.Reset()

	_, ok := m.GetTokens("abc")
	assert.False(t, ok)
}
