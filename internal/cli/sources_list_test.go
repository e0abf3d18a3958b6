package cli

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyload/internal/loader"
)

type stubSource struct {
	name        string
	description string
}

func (s stubSource) Name() string        { return s.name }
func (s stubSource) Description() string { return s.description }
func (s stubSource) Open(context.Context, loader.Options) (loader.Loader[string, any], error) {
	return loader.NewMemory[string, any](nil), nil
}

type stubCapableSource struct {
	stubSource
	bulk, writable bool
}

func (s stubCapableSource) Bulk() bool     { return s.bulk }
func (s stubCapableSource) Writable() bool { return s.writable }

func TestPrintSource(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		source   loader.Source
		expected []string
		absent   []string
	}{
		{
			name:     "plain source",
			source:   stubSource{name: "plain", description: "a plain source"},
			expected: []string{"SOURCE: plain", "a plain source"},
			absent:   []string{"Bulk:"},
		},
		{
			name: "source with capabilities",
			source: stubCapableSource{
				stubSource: stubSource{name: "capable", description: "reports capabilities"},
				bulk:       true,
			},
			expected: []string{"SOURCE: capable", "reports capabilities", "Bulk: yes  Writable: no"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printSource(&buf, tt.source)
			out := buf.String()
			for _, want := range tt.expected {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.absent {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestSourcesListQuiet(t *testing.T) {
	var buf bytes.Buffer
	sourcesListCmd.SetOut(&buf)
	sourcesListQuiet = true
	t.Cleanup(func() {
		sourcesListQuiet = false
		sourcesListCmd.SetOut(nil)
	})

	require.NoError(t, sourcesListCmd.RunE(sourcesListCmd, nil))

	names := strings.Fields(buf.String())
	assert.Subset(t, names, []string{"env", "github", "json"})
	assert.IsIncreasing(t, names)
}

func TestVersionCommand(t *testing.T) {
	SetBuildInfo("1.2.3", "abc123", "2026-01-02")
	t.Cleanup(func() { SetBuildInfo("dev", "unknown", "unknown") })

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "keyload 1.2.3\ncommit:  abc123\nbuilt:   2026-01-02\n"), out)
	assert.Contains(t, out, "go:      "+runtime.Version())
	assert.Contains(t, out, "sources: env, github, json")
}
