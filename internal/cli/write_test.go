package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyload/internal/config"
)

// newTestKeyArgCommand returns a command bound like get, put and delete,
// with args already parsed.
func newTestKeyArgCommand(t *testing.T, use string, args ...string) (*cobra.Command, *config.Config, string) {
	t.Helper()
	cmd := &cobra.Command{Use: use}
	c := config.New()
	var configPath string
	bindSourceFlags(cmd, c, &configPath)
	bindOutputFlags(cmd, c)
	bindRuntimeFlags(cmd, c)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, c, configPath
}

const testEnvPrefix = "KEYLOAD_CLI_TEST_"

func TestRunPut_EnvSource(t *testing.T) {
	t.Setenv(testEnvPrefix+"MODE", "dev")
	t.Setenv(testEnvPrefix+"URL", "")
	cmd, c, configPath := newTestKeyArgCommand(t, "put", "--source", "env", "--path", testEnvPrefix, "--show-values")

	var stdout, stderr bytes.Buffer
	code := runPut(cmd, c, configPath, &stdout, &stderr, []string{"MODE=prod", "URL=http://x/?a=b"}, true)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "prod", os.Getenv(testEnvPrefix+"MODE"))
	assert.Equal(t, "http://x/?a=b", os.Getenv(testEnvPrefix+"URL"))
	assert.Contains(t, stdout.String(), "[WRITTEN] MODE = prod")
	assert.Contains(t, stdout.String(), "2 keys: 2 written, 0 failed")
}

func TestRunGet_EnvSource(t *testing.T) {
	t.Setenv(testEnvPrefix+"MODE", "prod")
	cmd, c, configPath := newTestKeyArgCommand(t, "get", "--source", "env", "--path", testEnvPrefix)

	var stdout, stderr bytes.Buffer
	code := runGet(cmd, c, configPath, &stdout, &stderr, "MODE")

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "[LOADED] MODE = prod")

	cmd, c, configPath = newTestKeyArgCommand(t, "get", "--source", "env", "--path", testEnvPrefix)
	stdout.Reset()
	assert.Equal(t, 1, runGet(cmd, c, configPath, &stdout, &stderr, "ABSENT"))
	assert.Contains(t, stdout.String(), "[SKIPPED] ABSENT - not found")
}

func TestRunGet_IgnoresConfiguredKeys(t *testing.T) {
	t.Setenv(testEnvPrefix+"MODE", "prod")
	path := writeTestFile(t, "keyload.yaml", `
source:
  name: env
  path: `+testEnvPrefix+`
keys:
  list: [OTHER]
`)
	cmd, c, _ := newTestKeyArgCommand(t, "get")

	var stdout, stderr bytes.Buffer
	code := runGet(cmd, c, path, &stdout, &stderr, "MODE")

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "1 keys: 1 loaded")
	assert.NotContains(t, stdout.String(), "OTHER")
}

func TestRunDelete_EnvSource(t *testing.T) {
	t.Setenv(testEnvPrefix+"MODE", "prod")
	cmd, c, configPath := newTestKeyArgCommand(t, "delete", "--source", "env", "--path", testEnvPrefix)

	var stdout, stderr bytes.Buffer
	code := runDelete(cmd, c, configPath, &stdout, &stderr, []string{"MODE"})

	assert.Equal(t, 0, code, stderr.String())
	_, ok := os.LookupEnv(testEnvPrefix + "MODE")
	assert.False(t, ok)
	assert.Contains(t, stdout.String(), "[DELETED] MODE")
	assert.Contains(t, stdout.String(), "1 keys: 1 deleted, 0 failed")
}

func TestRunPut_ReadOnlySourceExits3(t *testing.T) {
	doc := writeTestFile(t, "doc.json", testDocument)
	cmd, c, configPath := newTestKeyArgCommand(t, "put", "--source", "json", "--path", doc)

	var stdout, stderr bytes.Buffer
	code := runPut(cmd, c, configPath, &stdout, &stderr, []string{"name=other"}, false)

	assert.Equal(t, 3, code)
	assert.Contains(t, stderr.String(), "read-only")
}

func TestRunDelete_ReadOnlySourceExits3(t *testing.T) {
	doc := writeTestFile(t, "doc.json", testDocument)
	cmd, c, configPath := newTestKeyArgCommand(t, "delete", "--source", "json", "--path", doc)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 3, runDelete(cmd, c, configPath, &stdout, &stderr, []string{"name"}))
	assert.Contains(t, stderr.String(), "read-only")
}

func TestRunPut_BadEntriesExit3(t *testing.T) {
	for _, args := range [][]string{{"novalue"}, {"=x"}, {"A=1", "A=2"}} {
		cmd, c, configPath := newTestKeyArgCommand(t, "put", "--source", "env")
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 3, runPut(cmd, c, configPath, &stdout, &stderr, args, false), args)
		assert.Contains(t, stderr.String(), "Error:")
		assert.Empty(t, stdout.String())
	}
}

func TestRunPut_WritesReport(t *testing.T) {
	t.Setenv(testEnvPrefix+"MODE", "dev")
	reportPath := filepath.Join(t.TempDir(), "put.md")
	cmd, c, configPath := newTestKeyArgCommand(t, "put", "--source", "env", "--path", testEnvPrefix, "--no-console", "--report", reportPath)

	var stdout, stderr bytes.Buffer
	code := runPut(cmd, c, configPath, &stdout, &stderr, []string{"MODE=prod"}, false)
	require.Equal(t, 0, code, stderr.String())

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| Operation | put |")
	assert.Contains(t, string(data), "| MODE | prod |")
	assert.Empty(t, stdout.String())
}

func TestParseEntries(t *testing.T) {
	entries, err := parseEntries([]string{"A=1", " B =x=y", "C="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"A": "1", "B": "x=y", "C": ""}, entries)

	_, err = parseEntries([]string{"A"})
	assert.ErrorContains(t, err, "expected KEY=VALUE")
	_, err = parseEntries([]string{"A=1", "A=2"})
	assert.ErrorContains(t, err, `duplicate key "A"`)
}
