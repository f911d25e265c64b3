package source

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spanlens/spanlens/flamegraph"

	"github.com/google/pprof/profile"
)

func (d *Decoder) decodePprof(data []byte) (*Document, error) {
	p, err := profile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse pprof profile: %w", err)
	}
	idx, err := sampleIndex(p)
	if err != nil {
		return nil, err
	}
	st := p.SampleType[idx]

	b := flamegraph.Builder{Unit: st.Unit, Name: st.Type}
	var stack []flamegraph.Frame
	for _, s := range p.Sample {
		stack = stack[:0]
		// Locations are ordered from the leaf to the root, and so are the lines of a location with inlined calls.
		for i := len(s.Location) - 1; i >= 0; i-- {
			loc := s.Location[i]
			for j := len(loc.Line) - 1; j >= 0; j-- {
				stack = append(stack, d.frame(loc.Line[j]))
			}
		}
		b.AddSample(stack, float64(s.Value[idx]))
	}

	doc := &Document{
		Kind:       KindPprof,
		Flamegraph: b.Build(d.Sort),
	}
	if p.DurationNanos > 0 {
		doc.Duration = time.Duration(p.DurationNanos)
	}
	return doc, nil
}

// sampleIndex picks the sample type to build the flamegraph from: the profile's default type if it has one, or
// the last type, which is what pprof itself does.
func sampleIndex(p *profile.Profile) (int, error) {
	if len(p.SampleType) == 0 {
		return 0, fmt.Errorf("profile has no sample types")
	}
	if p.DefaultSampleType != "" {
		for i, st := range p.SampleType {
			if st.Type == p.DefaultSampleType {
				return i, nil
			}
		}
	}
	return len(p.SampleType) - 1, nil
}

func (d *Decoder) frame(l profile.Line) flamegraph.Frame {
	if l.Function == nil {
		return flamegraph.Frame{Name: "<unknown>"}
	}
	pkg := packageOf(l.Function.Name)
	return flamegraph.Frame{
		Name:    l.Function.Name,
		Package: pkg,
		File:    l.Function.Filename,
		Line:    int(l.Line),
		InApp:   d.inApp(pkg),
	}
}

func (d *Decoder) inApp(pkg string) bool {
	if pkg == "main" {
		return true
	}
	for _, prefix := range d.AppPackages {
		if pkg == prefix || strings.HasPrefix(pkg, prefix+"/") {
			return true
		}
	}
	return false
}

// packageOf returns the import path of a Go function name such as "example.com/mod/pkg.(*T).Method". Names that
// don't look like Go functions have no package.
func packageOf(fn string) string {
	slash := strings.LastIndexByte(fn, '/')
	dot := strings.IndexByte(fn[slash+1:], '.')
	if dot <= 0 {
		return ""
	}
	return fn[:slash+1+dot]
}
