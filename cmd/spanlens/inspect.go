package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/geom"
	"github.com/spanlens/spanlens/render"
	"github.com/spanlens/spanlens/source"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/units"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the span tree of a trace, or the call tree of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(args[0])
			if err != nil {
				return err
			}
			p := &printer{w: cmd.OutOrStdout(), width: outputWidth(cmd.OutOrStdout())}
			switch doc.Kind {
			case source.KindEvent:
				t := a.tree(doc)
				p.spanTree(t)
				if t.Hidden > 0 {
					p.line(fmt.Sprintf("%s spans hidden", units.Count(t.Hidden)))
				}
				if t.Duplicates > 0 {
					p.line(fmt.Sprintf("%s spans dropped for duplicate IDs", units.Count(t.Duplicates)))
				}
			default:
				if doc.Flamegraph == nil {
					return fmt.Errorf("%s document has no flamegraph", doc.Kind)
				}
				p.flamegraph(doc.Flamegraph, depth)
			}
			return p.err
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 8, "deepest call tree level to print, 0 for all")
	return cmd
}

// outputWidth returns the width of the terminal w writes to, or 0 if it isn't one.
func outputWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	cols, _, ok := termSize(int(f.Fd()))
	if !ok {
		return 0
	}
	return cols
}

// printer writes lines, truncating them to width cells if width is positive. It stops at the first error.
type printer struct {
	w     io.Writer
	width int
	err   error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	if p.width > 0 {
		s = runewidth.Truncate(s, p.width, "…")
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) spanTree(t *spantree.Tree) {
	if t.Root == nil {
		p.line("No trace")
		return
	}
	gen := spantree.BoundsGenerator(t.Trace.TraceStartTimestamp, t.Trace.TraceEndTimestamp, 0, 1)
	t.Root.Walk(func(n *spantree.Node) bool {
		var b strings.Builder
		b.WriteString(strings.Repeat("  ", n.Depth))
		b.WriteString(n.Span.Op)
		if n.Span.Description != "" {
			b.WriteString(": ")
			b.WriteString(n.Span.Description)
		}
		b.WriteString("  ")
		b.WriteString(units.Duration(n.Span.Duration()))

		bar := spantree.BarGeometry(gen(n.Span.StartTimestamp, n.Span.Timestamp))
		if bar.Placed() {
			fmt.Fprintf(&b, "  @%s +%s", bar.Left, bar.Width)
		}
		if bar.Warning != "" {
			fmt.Fprintf(&b, "  [%s]", bar.Warning)
		}
		if n.Detached {
			b.WriteString("  [detached]")
		}
		p.line(b.String())
		return p.err == nil
	})
}

func (p *printer) flamegraph(fg *flamegraph.Flamegraph, depth int) {
	kind := "flamegraph"
	if fg.Chronological {
		kind = "flamechart"
	}
	p.line(fmt.Sprintf("%s %s, total %s", fg.Name, kind, render.FormatWeight(fg.Unit, fg.TotalWeight)))
	if fg.Empty {
		p.line("No samples")
		return
	}
	var walk func(n *flamegraph.Node)
	walk = func(n *flamegraph.Node) {
		if p.err != nil || (depth > 0 && n.Depth >= depth) {
			return
		}
		p.line(fmt.Sprintf("%s%s  %s (%s)  self %s",
			strings.Repeat("  ", n.Depth),
			n.Frame,
			render.FormatWeight(fg.Unit, n.Weight),
			geom.ToPercent(geom.SafeDiv(n.Weight, fg.TotalWeight)),
			render.FormatWeight(fg.Unit, n.SelfWeight)))
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range fg.Roots {
		walk(r)
	}
}
