package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseCommand_blank(t *testing.T) {
	cmd, err := ParseCommand("   ")
	assert.NoError(t, err)
	assert.Equal(t, Command{}, cmd)
}

func Test_ParseCommand_splitsVerbAndArgs(t *testing.T) {
	cmd, err := ParseCommand("open root /tmp/board.dts")
	assert.NoError(t, err)
	assert.Equal(t, "OPEN", cmd.Verb)
	assert.Equal(t, []string{"root", "/tmp/board.dts"}, cmd.Args)
}

func Test_ParseCommand_expandsAlias(t *testing.T) {
	cmd, err := ParseCommand("q")
	assert.NoError(t, err)
	assert.Equal(t, "QUIT", cmd.Verb)
	assert.Empty(t, cmd.Args)
}

func Test_ParseCommand_preservesArgCase(t *testing.T) {
	cmd, err := ParseCommand("use MyContext")
	assert.NoError(t, err)
	assert.Equal(t, "USE", cmd.Verb)
	assert.Equal(t, []string{"MyContext"}, cmd.Args)
}
