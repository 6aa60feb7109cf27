package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Format_S7(t *testing.T) {
	opts := FormatOptions{TabSize: 4, InsertSpaces: false, TrimTrailingWhitespace: true}
	out, ok := Format("f.dts", "/{};", opts)
	assert.True(t, ok)
	assert.Equal(t, "/ { };", out)

	again, ok := Format("f.dts", out, opts)
	assert.True(t, ok)
	assert.Equal(t, out, again)
}

func Test_Format_indentsNestedBody(t *testing.T) {
	opts := FormatOptions{TabSize: 2, InsertSpaces: true, TrimTrailingWhitespace: true}
	out, ok := Format("f.dts", `/{cpus{};};`, opts)
	assert.True(t, ok)
	assert.Equal(t, "/ {\n  cpus { };\n};", out)
}
