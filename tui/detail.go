package tui

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spanlens/spanlens/spantree"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// sourceContext is how many lines are shown around a frame's line.
const sourceContext = 4

// highlight colors src for the terminal, falling back to plain text if the lexer fails.
func highlight(src, lexer, style string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, lexer, "terminal256", style); err != nil {
		return src
	}
	return strings.TrimRight(buf.String(), "\n")
}

// sourceExcerpt returns the lines around line of the file at path, highlighted, with an arrow marking line. It
// returns "" if the file can't be read.
func sourceExcerpt(path string, line int, style string) string {
	if path == "" || line <= 0 {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	if line > len(lines) {
		return ""
	}
	first := max(line-1-sourceContext, 0)
	last := min(line+sourceContext, len(lines))
	hl := strings.Split(highlight(strings.Join(lines[first:last], "\n"), lexerFor(path), style), "\n")

	var sb strings.Builder
	for i, l := range hl {
		n := first + i + 1
		if n == line {
			fmt.Fprintf(&sb, "  -> | %s\n", l)
		} else {
			fmt.Fprintf(&sb, "%5d | %s\n", n, l)
		}
	}
	return sb.String()
}

func lexerFor(path string) string {
	if strings.HasSuffix(path, ".go") {
		return "go"
	}
	// Let chroma guess from the file name.
	return path
}

// spanData returns the tags and data of s as indented, highlighted JSON, or "" if there are none.
func spanData(s spantree.Span, style string) string {
	if len(s.Tags) == 0 && len(s.Data) == 0 {
		return ""
	}
	out := struct {
		Tags map[string]string `json:"tags,omitempty"`
		Data map[string]any    `json:"data,omitempty"`
	}{s.Tags, s.Data}
	b, err := json.Marshal(out, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return err.Error()
	}
	return highlight(string(b), "json", style)
}
