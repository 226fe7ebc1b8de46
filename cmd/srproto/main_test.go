package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPerfectScenarioSucceeds(t *testing.T) {
	dir := t.TempDir()
	msgPath := filepath.Join(dir, "message.txt")
	require.NoError(t, os.WriteFile(msgPath, []byte("ABC"), 0o644))

	logFile, err := os.CreateTemp(dir, "log")
	require.NoError(t, err)
	defer logFile.Close()

	code := run([]string{
		"--scenario", "1",
		"--message-file", msgPath,
		"--scenarios-file", filepath.Join(dir, "missing-scenarios.toml"),
	}, logFile)

	require.Equal(t, 0, code)
}

func TestRunUnknownScenarioExitsOne(t *testing.T) {
	dir := t.TempDir()
	logFile, err := os.CreateTemp(dir, "log")
	require.NoError(t, err)
	defer logFile.Close()

	code := run([]string{"--scenario", "99"}, logFile)
	require.Equal(t, 1, code)
}
