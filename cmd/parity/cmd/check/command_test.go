package check_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parity/cmd/application"
	"github.com/agentstation/parity/cmd/parity/cmd/check"
	pkgerrors "github.com/agentstation/parity/pkg/errors"
)

const ownersOutput = `{"type": "SCHEMA", "stream": "owners"}
{"type": "RECORD", "stream": "owners", "record": {"ownerId": 1, "email": "a@example.com"}}
{"type": "RECORD", "stream": "owners", "record": {"ownerId": 2, "email": "b@example.com"}}
{"type": "STATE", "value": {"bookmarks": {}}}
`

func fixtures(t *testing.T, expected string) (dir, outputFile string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "owners.json"), []byte(expected), 0o644))
	outputFile = filepath.Join(t.TempDir(), "sync.jsonl")
	require.NoError(t, os.WriteFile(outputFile, []byte(ownersOutput), 0o644))
	return dir, outputFile
}

func execute(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := check.NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckPasses(t *testing.T) {
	dir, outputFile := fixtures(t, `[
		{"ownerId": 1, "email": "a@example.com", "activeSalesforceId": "sf-1"},
		{"ownerId": 2, "email": "b@example.com", "activeSalesforceId": "sf-2"}
	]`)
	app := &application.Mock{OutputFormatFunc: func() string { return "json" }}

	out, err := execute(t, app, "--expected-dir", dir, "--output-file", outputFile, "--stream", "owners")
	require.NoError(t, err)

	var report struct {
		RunID    string `json:"run_id"`
		Verdicts []struct {
			Stream string `json:"stream"`
			Stats  struct {
				MatchedPairs int `json:"matched_pairs"`
			} `json:"stats"`
		} `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Verdicts, 1)
	assert.Equal(t, "owners", report.Verdicts[0].Stream)
	assert.Equal(t, 2, report.Verdicts[0].Stats.MatchedPairs)
	assert.NotEmpty(t, report.RunID)
}

func TestCheckFails(t *testing.T) {
	dir, outputFile := fixtures(t, `[
		{"ownerId": 1, "email": "a@example.com"},
		{"ownerId": 3, "email": "c@example.com"}
	]`)
	app := &application.Mock{SettingsValue: application.Settings{ExpectedDir: dir, OutputFile: outputFile}}

	out, err := execute(t, app, "--stream", "owners")
	require.Error(t, err)
	assert.ErrorIs(t, err, check.ErrFailed)
	assert.Contains(t, err.Error(), "1 of 1 streams failed")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "record (3) was not replicated")
	assert.Contains(t, out, "record (2) was replicated but not expected")
}

func TestCheckRequiresInputs(t *testing.T) {
	_, err := execute(t, &application.Mock{}, "--stream", "owners")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestCheckMissingExpectedFile(t *testing.T) {
	dir := t.TempDir()
	_, outputFile := fixtures(t, `[]`)
	app := &application.Mock{}

	_, err := execute(t, app, "-e", dir, "-f", outputFile, "--stream", "owners")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	out, err := execute(t, app, "-e", dir, "-f", outputFile, "--stream", "owners", "--allow-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, check.ErrFailed)
	assert.Contains(t, out, "was replicated but not expected")
}

func TestCheckStreamGlob(t *testing.T) {
	dir, outputFile := fixtures(t, `[
		{"ownerId": 1, "email": "a@example.com"},
		{"ownerId": 2, "email": "b@example.com"}
	]`)
	app := &application.Mock{OutputFormatFunc: func() string { return "json" }}

	out, err := execute(t, app, "-e", dir, "-f", outputFile, "--stream", "own*")
	require.NoError(t, err)
	assert.Contains(t, out, `"owners"`)

	_, err = execute(t, app, "-e", dir, "-f", outputFile, "--stream", "zz*")
	assert.True(t, pkgerrors.IsNotFound(err))
}
