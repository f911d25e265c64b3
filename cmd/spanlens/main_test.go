package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spanlens/spanlens/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventJSON = `{
	"event_id": "ev1",
	"start_timestamp": 100,
	"timestamp": 101.5,
	"contexts": {"trace": {"trace_id": "t1", "span_id": "root", "op": "http.server"}},
	"spans": [
		{"span_id": "a", "parent_span_id": "root", "op": "db", "description": "SELECT 1", "start_timestamp": 100.1, "timestamp": 100.4},
		{"span_id": "b", "parent_span_id": "a", "op": "db.query", "start_timestamp": 100.2, "timestamp": 100.3},
		{"span_id": "c", "parent_span_id": "root", "op": "render", "start_timestamp": 101, "timestamp": 100.5}
	]
}`

const profileJSON = `{
	"name": "cpu",
	"unit": "nanoseconds",
	"frames": [
		{"function": "main", "package": "main"},
		{"function": "a", "package": "example.com/a"},
		{"function": "b", "package": "example.com/b"}
	],
	"samples": [[0, 1], [0, 1], [0, 2]],
	"weights": [10, 10, 5]
}`

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

// run executes the root command with args and returns what it wrote to standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{cfg: config.Default(), stdout: &stdout, stderr: &stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestInspectEvent(t *testing.T) {
	path := writeFile(t, "event.json", eventJSON)
	out, err := run(t, "inspect", "--gap-threshold", "0", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "http.server  "))
	assert.True(t, strings.HasPrefix(lines[1], "  db: SELECT 1  "))
	assert.True(t, strings.HasPrefix(lines[2], "    db.query  "))
	assert.True(t, strings.HasPrefix(lines[3], "  render  "))
	assert.Contains(t, lines[3], "[Incorrect start and end times]")
	assert.NotContains(t, lines[1], "[")
}

func TestInspectOps(t *testing.T) {
	path := writeFile(t, "event.json", eventJSON)
	out, err := run(t, "inspect", "--gap-threshold", "0", "--op", "db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "db: SELECT 1")
	assert.NotContains(t, out, "db.query")
	assert.NotContains(t, out, "render")
	assert.Contains(t, out, "2 spans hidden")
}

func TestInspectDuplicateIDs(t *testing.T) {
	dup := strings.Replace(eventJSON, `"span_id": "c"`, `"span_id": "a"`, 1)
	path := writeFile(t, "event.json", dup)
	out, err := run(t, "inspect", "--gap-threshold", "0", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "render")
	assert.Contains(t, out, "1 spans dropped for duplicate IDs")
}

func TestInspectProfile(t *testing.T) {
	path := writeFile(t, "profile.json", profileJSON)
	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "\nmain.main  ")
	assert.Contains(t, out, "\n  example.com/a.a  ")
	assert.Contains(t, out, "\n  example.com/b.b  ")

	out, err = run(t, "inspect", "--depth", "1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "main.main")
	assert.NotContains(t, out, "example.com/a.a")
}

func TestPNG(t *testing.T) {
	for name, data := range map[string]string{"event.json": eventJSON, "profile.json": profileJSON} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, data)
			out := filepath.Join(t.TempDir(), "out.png")
			stdout, err := run(t, "png", "-o", out, "--width", "200", "--height", "100", path)
			require.NoError(t, err)
			assert.Equal(t, out+"\n", stdout)

			f, err := os.Open(out)
			require.NoError(t, err)
			defer f.Close()
			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, 200, img.Bounds().Dx())
			assert.Equal(t, 100, img.Bounds().Dy())
		})
	}
}

func TestPNGRejectsBadSize(t *testing.T) {
	path := writeFile(t, "event.json", eventJSON)
	_, err := run(t, "png", "--width", "0", path)
	assert.ErrorContains(t, err, "image size must be positive")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "spanlens "))
	assert.NotContains(t, out, "Compiled with")

	out, err = run(t, "version", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled with Go version:")
}

func TestLogFile(t *testing.T) {
	path := writeFile(t, "event.json", eventJSON)
	logFile := filepath.Join(t.TempDir(), "spanlens.log")
	_, err := run(t, "--log-level", "debug", "--log-file", logFile, "inspect", path)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "loaded")
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, "inspect")
	assert.Error(t, err)

	_, err = run(t, "--bar-height", "0", "version")
	assert.ErrorContains(t, err, "bar height must be at least 1")

	_, err = run(t, "inspect", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
