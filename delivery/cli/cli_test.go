package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/shared/common"
)

const testRefTime = "2024-03-01T12:00:00Z"

// run executes the command tree and returns everything written to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	prevOut, prevErr, prevNoColor := color.Output, color.Error, color.NoColor
	color.Output, color.Error, color.NoColor = &out, &out, true
	t.Cleanup(func() {
		color.Output, color.Error, color.NoColor = prevOut, prevErr, prevNoColor
	})

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestListPrintsIdsInOrder(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(entity.AllExercises))
	for i, id := range entity.AllExercises {
		assert.Equal(t, string(id), lines[i])
	}
}

func TestListDetails(t *testing.T) {
	out, err := run(t, "list", "--details")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello, KQL")
	assert.Contains(t, out, "AzureNetworkAnalytics_CL")
	assert.Contains(t, out, "10 exercises, 1225 points")

	white := strings.Index(out, "white belt: 5 exercises")
	yellow := strings.Index(out, "yellow belt: 5 exercises")
	require.True(t, white >= 0 && yellow >= 0, out)
	assert.Less(t, white, strings.Index(out, "hello-kql"))
	assert.Less(t, strings.Index(out, "hello-kql"), yellow)
	assert.Less(t, yellow, strings.Index(out, "the-insider"))
}

func TestListRejectsArguments(t *testing.T) {
	_, err := run(t, "list", "extra")
	assert.Equal(t, common.ExitUsage, common.ExitCodeOf(err))
}

func TestShow(t *testing.T) {
	out, err := run(t, "show", "string-theory")
	require.NoError(t, err)
	assert.Contains(t, out, "String Theory")
	assert.NotContains(t, out, "FLAG{")

	out, err = run(t, "show", "string-theory", "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, "FLAG{kql_kung_fu_str1ng_n1nja}")
}

func TestShowUnknown(t *testing.T) {
	_, err := run(t, "show", "kung-fu-panda")
	assert.True(t, common.HasErrorCode(err, common.ErrCodeUnknownExercise))
	assert.Equal(t, common.ExitUsage, common.ExitCodeOf(err))

	_, err = run(t, "show")
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidInput))
}

func TestGenerateThenVerify(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "metrics.prom")

	out, err := run(t, "generate", "hello-kql", "-e", "counting-101",
		"-o", dir, "--reference-time", testRefTime, "--metrics", "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 2 dataset(s)")
	assert.FileExists(t, filepath.Join(dir, "hello-kql", "SecurityEvent.json"))
	assert.FileExists(t, filepath.Join(dir, "counting-101", "manifest.json"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `ctf_datagen_records_generated_total{exercise="counting-101",table="SigninLogs"} 1337`)

	out, err = run(t, "verify", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 dataset(s) verified")
}

func TestMetricsTextfileNeedsMetricsEnabled(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "metrics.prom")

	_, err := run(t, "generate", "hello-kql", "-o", dir, "--reference-time", testRefTime, "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "hello-kql", "manifest.json"))
	assert.NoFileExists(t, metricsFile)

	cfgFile := filepath.Join(dir, "ctf-datagen.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("metrics:\n  enabled: false\n  textfile_path: "+metricsFile+"\n"), 0o644))
	_, err = run(t, "generate", "hello-kql", "-c", cfgFile, "-o", dir, "--reference-time", testRefTime)
	require.NoError(t, err)
	assert.NoFileExists(t, metricsFile)

	_, err = run(t, "generate", "hello-kql", "-c", cfgFile, "-o", dir, "--reference-time", testRefTime, "--metrics")
	require.NoError(t, err)
	assert.FileExists(t, metricsFile)
}

func TestGenerateUnknownStillWritesKnown(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "generate", "kung-fu-panda", "project-basics", "-o", dir, "--reference-time", testRefTime)
	require.Error(t, err)
	assert.Equal(t, common.ExitUsage, common.ExitCodeOf(err))
	assert.Contains(t, out, "Unknown exercise(s): kung-fu-panda")
	assert.FileExists(t, filepath.Join(dir, "project-basics", "SigninLogs.json"))
}

func TestGenerateRequiresSelection(t *testing.T) {
	_, err := run(t, "generate", "-o", t.TempDir())
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidInput))
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	_, err := run(t, "generate", "hello-kql", "-o", t.TempDir(), "--format", "xml")
	assert.Equal(t, common.ExitUsage, common.ExitCodeOf(err))

	_, err = run(t, "generate", "hello-kql", "--seed", "not-a-number")
	assert.Equal(t, common.ExitUsage, common.ExitCodeOf(err))
}

func TestGenerateIsReproducible(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		_, err := run(t, "generate", "the-insider", "-o", dir, "--seed", "9",
			"--reference-time", testRefTime, "--format", "msgpack", "--compression", "lz4")
		require.NoError(t, err)
	}

	first, err := os.ReadFile(filepath.Join(a, "the-insider", "AzureActivity.msgpack.lz4"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(b, "the-insider", "AzureActivity.msgpack.lz4"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVerifyEmptyDirectory(t *testing.T) {
	_, err := run(t, "verify", t.TempDir())
	assert.True(t, common.HasErrorCode(err, common.ErrCodeNotFound))

	_, err = run(t, "verify")
	assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidInput))
}
