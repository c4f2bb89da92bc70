package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execParse(t *testing.T, rootOpts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewParseCommand(rootOpts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseValidProgram(t *testing.T) {
	path := writeSource(t, tickProgram)

	out, _, err := execParse(t, &RootOptions{Format: "text"}, path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ parsed 1 blocks, genesis present")
}

func TestParseWithoutGenesis(t *testing.T) {
	path := writeSource(t, `emit("a")`+"\n"+`emit("b")`)

	out, _, err := execParse(t, &RootOptions{Format: "text"}, path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ parsed 2 blocks, genesis absent")
}

func TestParseTokenDump(t *testing.T) {
	path := writeSource(t, `emit("hi")`)

	out, _, err := execParse(t, &RootOptions{Format: "text"}, path, "--tokens")
	require.NoError(t, err)

	assert.Contains(t, out, "IDENTIFIER")
	assert.Contains(t, out, "STRING")
}

func TestParseTokenDumpSurvivesParseError(t *testing.T) {
	path := writeSource(t, `emit(,)`)

	out, errOut, err := execParse(t, &RootOptions{Format: "text"}, path, "--tokens")
	require.Error(t, err)
	assert.Equal(t, ExitSyntaxError, GetExitCode(err))

	// Lexing succeeded, so the stream still prints.
	assert.Contains(t, out, "IDENTIFIER")
	assert.Contains(t, errOut, "✗")
}

func TestParseMissingFile(t *testing.T) {
	_, _, err := execParse(t, &RootOptions{Format: "text"}, "/nonexistent/program.sgl")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
