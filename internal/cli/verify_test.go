package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execVerify(t *testing.T, rootOpts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVerifyProvenProgram(t *testing.T) {
	path := writeSource(t, tickProgram)

	out, _, err := execVerify(t, &RootOptions{Format: "text"}, path)
	require.NoError(t, err)

	assert.Contains(t, out, "termination")
	assert.Contains(t, out, "core-immutability")
	assert.Contains(t, out, "genesis-presence")
	assert.Contains(t, out, "overall: PROVEN")
}

func TestVerifyViolationExitsNonZero(t *testing.T) {
	path := writeSource(t, `∀x∋stream⟿ log(x)`)

	out, _, err := execVerify(t, &RootOptions{Format: "text"}, path)
	require.Error(t, err)
	assert.Equal(t, ExitVerifyFailure, GetExitCode(err))

	// The report is still printed before the failure exit.
	assert.Contains(t, out, "loop over unbounded collection")
	assert.Contains(t, out, "overall: VIOLATION")
}

func TestVerifyJSONOutput(t *testing.T) {
	path := writeSource(t, tickProgram)

	out, _, err := execVerify(t, &RootOptions{Format: "json"}, path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	proofs, ok := data["proofs"].([]any)
	require.True(t, ok)
	assert.Len(t, proofs, 3)
}

func TestVerifySyntaxError(t *testing.T) {
	path := writeSource(t, `⊕def:`)

	_, errOut, err := execVerify(t, &RootOptions{Format: "text"}, path)
	require.Error(t, err)
	assert.Equal(t, ExitSyntaxError, GetExitCode(err))
	assert.Contains(t, errOut, "✗")
}
