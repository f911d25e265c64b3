package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/spanlens/spanlens/canvas"
	mycolor "github.com/spanlens/spanlens/color"
	"github.com/spanlens/spanlens/render"
	"github.com/spanlens/spanlens/scheduler"
	"github.com/spanlens/spanlens/source"
	"github.com/spanlens/spanlens/view"

	"gioui.org/unit"
	"github.com/spf13/cobra"
)

type pngOptions struct {
	out           string
	width, height int
}

func newPNGCmd(a *app) *cobra.Command {
	var opts pngOptions
	cmd := &cobra.Command{
		Use:   "png FILE",
		Short: "Render a trace as a waterfall, or a profile as a flamegraph, to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.width <= 0 || opts.height <= 0 {
				return fmt.Errorf("image size must be positive, got %dx%d", opts.width, opts.height)
			}
			doc, err := a.load(args[0])
			if err != nil {
				return err
			}
			out := opts.out
			if out == "" {
				out = args[0] + ".png"
			}
			if err := a.writePNG(doc, out, opts.width, opts.height); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.out, "output", "o", "", "output file (default FILE.png)")
	cmd.Flags().IntVar(&opts.width, "width", 1200, "image width, in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 800, "image height, in pixels")
	return cmd
}

// writePNG draws a single frame of doc and writes it to path.
func (a *app) writePNG(doc *source.Document, path string, width, height int) (err error) {
	th, err := mycolor.ThemeByName(a.cfg.Theme)
	if err != nil {
		return err
	}
	surface := render.NewRasterSurface(width, height)
	sched := scheduler.New(&scheduler.FrameQueue{}, a.log)
	defer sched.Dispose()

	switch doc.Kind {
	case source.KindEvent:
		r := render.NewWaterfallRenderer(surface, a.tree(doc), th, render.DefaultWaterfallOptions())
		defer r.Attach(sched, render.Managers{})()
	default:
		if doc.Flamegraph == nil {
			return fmt.Errorf("%s document has no flamegraph", doc.Kind)
		}
		c := canvas.New(float64(width), float64(height), unit.Metric{PxPerDp: 1, PxPerSp: 1})
		v := view.New(c, doc.Flamegraph, view.Options{MinWidth: 1, BarHeight: a.cfg.BarHeight, Mode: view.AnchorTop})
		r := render.NewFlamegraphRenderer(surface, v, doc.Flamegraph, th, render.DefaultFlamegraphOptions())
		defer r.Attach(sched)()
	}
	sched.DrawSync()
	a.log.Debug("rendered", "path", path, "width", width, "height", height)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err := surface.WritePNG(w); err != nil {
		return err
	}
	return w.Flush()
}
