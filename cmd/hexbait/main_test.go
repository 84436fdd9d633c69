package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// newTestApp builds the same cli.App as main(), minus the os.Exit on error,
// so tests can assert on the returned error directly.
func newTestApp() *cli.App {
	return &cli.App{
		Name: "hexbait",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "parser-definition", Aliases: []string{"p"}},
			&cli.StringFlag{Name: "format", Value: "text"},
			&cli.BoolFlag{Name: "show-offsets"},
			&cli.BoolFlag{Name: "stats"},
			&cli.BoolFlag{Name: "batch"},
		},
		Action: run,
	}
}

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func writeTempFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestRunWithGrammarPrintsEvaluatedTree(t *testing.T) {
	dir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(dir))

	grammarPath := writeTempFile(t, dir, "basic.hbg", []byte("magic u8;\n"))
	sourcePath := writeTempFile(t, dir, "sample.bin", []byte{0x42})

	app := newTestApp()
	var output string
	runErr := func() error {
		var callErr error
		output = captureStdout(t, func() {
			callErr = app.Run([]string{"hexbait", "--parser-definition", grammarPath, sourcePath})
		})
		return callErr
	}()

	require.NoError(t, runErr)
	assert.Contains(t, output, "magic")
}

func TestRunWithoutGrammarPrintsHint(t *testing.T) {
	dir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(dir))

	sourcePath := writeTempFile(t, dir, "sample.bin", []byte{0x01, 0x02})

	app := newTestApp()
	var output string
	var callErr error
	output = captureStdout(t, func() {
		callErr = app.Run([]string{"hexbait", sourcePath})
	})

	require.NoError(t, callErr)
	assert.Contains(t, output, "no grammar loaded")
}

func TestRunStatsFlagPrintsBigramAndEntropy(t *testing.T) {
	dir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(dir))

	sourcePath := writeTempFile(t, dir, "sample.bin", bytes.Repeat([]byte{0xAB, 0xCD}, 64))

	app := newTestApp()
	var output string
	var callErr error
	output = captureStdout(t, func() {
		callErr = app.Run([]string{"hexbait", "--stats", sourcePath})
	})

	require.NoError(t, callErr)
	assert.Contains(t, output, "bigram quality")
	assert.Contains(t, output, "entropy")
}

func TestRunMissingGrammarFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(dir))

	sourcePath := writeTempFile(t, dir, "sample.bin", []byte{0x01})

	app := newTestApp()
	_ = captureStdout(t, func() {
		err = app.Run([]string{"hexbait", "--parser-definition", filepath.Join(dir, "missing.hbg"), sourcePath})
	})

	assert.Error(t, err)
}

func TestRunMissingSourceFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(oldDir) }()
	require.NoError(t, os.Chdir(dir))

	app := newTestApp()
	_ = captureStdout(t, func() {
		err = app.Run([]string{"hexbait", filepath.Join(dir, "missing.bin")})
	})

	assert.Error(t, err)
}
