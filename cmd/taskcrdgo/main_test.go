package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReportsLoadFailure(t *testing.T) {
	invalidHCL := `
		step "a" {
			field "x" {
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{filePath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "application startup failed")
}

func TestRunShouldExitOnHelp(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRunParseError(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRunExecutesASimpleGrid(t *testing.T) {
	grid := `
step "noop" {}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(grid), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{filePath, "-log-format=text", "-threads=1"})
	require.NoError(t, err)
}
