package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readReport(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestMarkdownReportContract(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "keyload-report.md")

	s, err := NewReportSink(reportPath)
	require.NoError(t, err)

	require.NoError(t, s.Write(Event{Type: EventRunStarted, RunID: "run-1", Op: OpLoad, Source: "github", Keys: 5}))
	require.NoError(t, s.Write(KeyResult{Key: "octo/b", Status: StatusFailed, Message: "GitHub API request failed (502 Bad Gateway): upstream"}))
	require.NoError(t, s.Write(KeyResult{Key: "octo/a", Status: StatusFailed, Message: "GitHub API request failed (502 Bad Gateway): upstream"}))
	require.NoError(t, s.Write(KeyResult{Key: "octo/c", Status: StatusFailed, Message: "load octo/c: timed out"}))
	require.NoError(t, s.Write(KeyResult{Key: "octo/gone", Status: StatusSkipped, Message: "not found"}))
	require.NoError(t, s.Write(KeyResult{Key: "octo/ok", Status: StatusLoaded, Value: map[string]any{"stars": 3}}))
	require.NoError(t, s.Write(Event{Type: EventRunFinished, RunID: "run-1", Op: OpLoad, Keys: 5, ExitCode: 2}))
	require.NoError(t, s.Close())

	out := readReport(t, reportPath)

	required := []string{
		"# keyload Report",
		"## Summary",
		"## Failure Reasons",
		"## Failed Keys",
		"## Skipped Keys",
		"## Loaded Keys",
	}
	for _, h := range required {
		assert.Contains(t, out, h)
	}

	assert.Contains(t, out, "| Source | github |")
	assert.Contains(t, out, "| Run ID | run-1 |")
	assert.Contains(t, out, "| Keys | 5 |")
	assert.Contains(t, out, "| Loaded | 1 |")
	assert.Contains(t, out, "| Skipped | 1 |")
	assert.Contains(t, out, "| Failed | 3 |")
	assert.Contains(t, out, "| Exit code | 2 |")

	// The shared cause groups first, with its keys sorted.
	assert.Contains(t, out, "| GitHub API request failed (502 Bad Gateway): upstream | 2 keys (octo/a, octo/b) |")
	assert.Contains(t, out, "| timed out | 1 key (octo/c) |")
	assert.Less(t, strings.Index(out, "2 keys (octo/a, octo/b)"), strings.Index(out, "1 key (octo/c)"))

	assert.Contains(t, out, "| octo/c | timed out |")
	assert.Contains(t, out, "- `octo/gone`: not found")
	assert.Contains(t, out, `| octo/ok | {"stars":3} |`)
}

func TestMarkdownReport_EmptySectionsSayNone(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.md")
	s, err := NewReportSink(reportPath)
	require.NoError(t, err)
	require.NoError(t, s.Write(KeyResult{Key: "a", Status: StatusLoaded, Value: "x"}))
	require.NoError(t, s.Close())

	out := readReport(t, reportPath)
	assert.Contains(t, out, "## Failure Reasons\n\n- None\n")
	assert.Contains(t, out, "## Failed Keys\n\n- None\n")
	assert.Contains(t, out, "## Skipped Keys\n\n- None\n")
	assert.Contains(t, out, "| Exit code | unknown |")
}

func TestMarkdownReport_WriteOperations(t *testing.T) {
	t.Run("put", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "report.md")
		s, err := NewReportSink(reportPath)
		require.NoError(t, err)
		require.NoError(t, s.Write(Event{Type: EventRunStarted, Op: OpPut, Source: "env"}))
		require.NoError(t, s.Write(KeyResult{Key: "A", Status: StatusWritten, Value: "1|2"}))
		require.NoError(t, s.Write(KeyResult{Key: "B", Status: StatusFailed, Message: "write B: permission denied"}))
		require.NoError(t, s.Write(Event{Type: EventRunFinished, Op: OpPut, ExitCode: 2}))
		require.NoError(t, s.Close())

		out := readReport(t, reportPath)
		assert.Contains(t, out, "| Operation | put |")
		assert.Contains(t, out, "| Written | 1 |")
		assert.Contains(t, out, "## Written Keys")
		assert.Contains(t, out, `| A | 1\|2 |`)
		assert.Contains(t, out, "| B | permission denied |")
		assert.NotContains(t, out, "## Skipped Keys")
	})

	t.Run("delete", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "report.md")
		s, err := NewReportSink(reportPath)
		require.NoError(t, err)
		require.NoError(t, s.Write(Event{Type: EventRunStarted, Op: OpDelete, Source: "env"}))
		require.NoError(t, s.Write(KeyResult{Key: "A", Status: StatusDeleted}))
		require.NoError(t, s.Write(Event{Type: EventRunFinished, Op: OpDelete, ExitCode: 0}))
		require.NoError(t, s.Close())

		out := readReport(t, reportPath)
		assert.Contains(t, out, "| Deleted | 1 |")
		assert.Contains(t, out, "## Deleted Keys\n\n- `A`\n")
		assert.Contains(t, out, "| Exit code | 0 |")
	})
}

func TestNewReportSink_Errors(t *testing.T) {
	_, err := NewReportSink("")
	assert.EqualError(t, err, "report path required")

	_, err = NewReportSink(filepath.Join(t.TempDir(), "missing", "report.md"))
	assert.Error(t, err)
}

func TestReportHelpers(t *testing.T) {
	assert.Equal(t, "boom", normalizeErrorReason("k", "load k:   boom"))
	assert.Equal(t, "boom", normalizeErrorReason("k", "k: boom"))
	assert.Equal(t, "unknown error", normalizeErrorReason("k", "  "))
	long := normalizeErrorReason("k", strings.Repeat("x", 200))
	assert.Len(t, long, 120)
	assert.True(t, strings.HasSuffix(long, "..."))

	assert.Equal(t, "", formatKeyList(nil, 3))
	assert.Equal(t, "1 key (a)", formatKeyList([]string{"a"}, 3))
	assert.Equal(t, "4 keys (a, b, +2 more)", formatKeyList([]string{"a", "b", "c", "d"}, 2))
}
