package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/source"
	"github.com/spanlens/spanlens/spantree"

	"github.com/briandowns/spinner"
)

// load decodes the document at path, showing a spinner on an interactive standard error.
func (a *app) load(path string) (*source.Document, error) {
	sort, err := flamegraph.ParseSort(a.cfg.Sort)
	if err != nil {
		return nil, err
	}
	d := source.Decoder{Log: a.log, Sort: sort, AppPackages: a.appPackages}

	var s *spinner.Spinner
	if !a.quiet && a.stderr == os.Stderr && isTerminal(int(os.Stderr.Fd())) {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Loading " + filepath.Base(path) + "..."
		s.Start()
	}
	start := time.Now()
	doc, err := d.Load(path)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return nil, err
	}
	a.log.Info("loaded", "path", path, "kind", doc.Kind, "took", time.Since(start))
	return doc, nil
}

// opSet returns the ops selected with --op, or nil to show all spans.
func (a *app) opSet() map[string]bool {
	if len(a.ops) == 0 {
		return nil
	}
	set := make(map[string]bool, len(a.ops))
	for _, op := range a.ops {
		set[op] = true
	}
	return set
}

// tree builds the span tree of an event document.
func (a *app) tree(doc *source.Document) *spantree.Tree {
	return spantree.BuildTree(spantree.ParseTrace(doc.Event), spantree.Options{GapThreshold: a.cfg.GapThreshold, Ops: a.opSet()})
}

func isTerminal(fd int) bool {
	_, _, ok := termSize(fd)
	return ok
}
