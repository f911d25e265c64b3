// Package flamegraph builds flamegraphs and flamecharts from stack samples and answers questions about them: what's
// under the cursor, where else does a frame occur, which frames match a search.
package flamegraph

import (
	"fmt"
	"strings"
)

type Frame struct {
	Name    string
	Package string
	File    string
	Line    int
	// InApp is set for frames in the application's own code, as opposed to libraries and the runtime.
	InApp bool
}

// FrameKey identifies a function independent of the call site.
type FrameKey struct {
	Name    string
	Package string
}

func (f Frame) Key() FrameKey { return FrameKey{f.Name, f.Package} }

func (f Frame) String() string {
	if f.Package == "" {
		return f.Name
	}
	if strings.HasPrefix(f.Name, f.Package+".") {
		return f.Name
	}
	return f.Package + "." + f.Name
}

// Location formats the frame's source position, or returns the empty string if it's unknown.
func (f Frame) Location() string {
	switch {
	case f.File == "":
		return ""
	case f.Line > 0:
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	default:
		return f.File
	}
}
