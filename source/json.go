package source

import (
	"fmt"
	"time"

	"github.com/spanlens/spanlens/chart"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/spantree"
	"github.com/spanlens/spanlens/units"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

type frameJSON struct {
	Function string `json:"function"`
	Package  string `json:"package"`
	Filename string `json:"filename"`
	Lineno   int    `json:"lineno"`
	InApp    bool   `json:"in_app"`
}

type sampleJSON struct {
	ElapsedSinceStartNs int64   `json:"elapsed_since_start_ns"`
	Value               float64 `json:"value"`
}

type measurementJSON struct {
	Unit   string       `json:"unit"`
	Values []sampleJSON `json:"values"`
}

type profileJSON struct {
	Name   string      `json:"name"`
	Unit   string      `json:"unit"`
	Frames []frameJSON `json:"frames"`
	// Samples are stacks of indices into Frames, root first.
	Samples [][]int   `json:"samples"`
	Weights []float64 `json:"weights"`
	// Timestamps may be given instead of weights. Each sample then lasts until the next one, and the last sample
	// until DurationNs if it is set.
	Timestamps   []int64                    `json:"timestamps_ns"`
	DurationNs   int64                      `json:"duration_ns"`
	Measurements map[string]measurementJSON `json:"measurements"`
}

func (d *Decoder) decodeJSON(data []byte) (*Document, error) {
	var fields map[string]jsontext.Value
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("couldn't parse JSON: %w", err)
	}
	_, hasSpans := fields["spans"]
	_, hasContexts := fields["contexts"]
	_, hasSamples := fields["samples"]
	switch {
	case hasSamples:
		return d.decodeProfileJSON(data)
	case hasSpans || hasContexts:
		return decodeEventJSON(data)
	default:
		return nil, ErrUnknownFormat
	}
}

func decodeEventJSON(data []byte) (*Document, error) {
	var ev spantree.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("couldn't parse event: %w", err)
	}
	if ev.Contexts.Trace.SpanID == "" {
		return nil, fmt.Errorf("event %q has no trace context", ev.EventID)
	}
	return &Document{
		Kind:     KindEvent,
		Event:    &ev,
		Duration: max(units.Seconds(ev.EndTimestamp-ev.StartTimestamp), 0),
	}, nil
}

func (d *Decoder) decodeProfileJSON(data []byte) (*Document, error) {
	var pj profileJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("couldn't parse profile: %w", err)
	}

	p := &flamegraph.SampledProfile{
		Name:    pj.Name,
		Unit:    pj.Unit,
		Samples: pj.Samples,
		Weights: pj.Weights,
	}
	if p.Unit == "" {
		p.Unit = "nanoseconds"
	}
	for _, f := range pj.Frames {
		p.Frames = append(p.Frames, flamegraph.Frame{
			Name:    f.Function,
			Package: f.Package,
			File:    f.Filename,
			Line:    f.Lineno,
			InApp:   f.InApp,
		})
	}
	if len(p.Weights) == 0 && len(pj.Timestamps) > 0 {
		if len(pj.Timestamps) != len(pj.Samples) {
			return nil, fmt.Errorf("profile %q has %d samples but %d timestamps", pj.Name, len(pj.Samples), len(pj.Timestamps))
		}
		p.Weights = weightsFromTimestamps(pj.Timestamps, pj.DurationNs)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	doc := &Document{
		Kind:         KindSampledProfile,
		Profile:      p,
		Flamegraph:   flamegraph.FromSampled(p),
		Measurements: measurements(pj.Measurements),
		Duration:     time.Duration(max(pj.DurationNs, 0)),
	}
	if doc.Duration == 0 && p.Unit == "nanoseconds" && !doc.Flamegraph.Empty {
		doc.Duration = time.Duration(doc.Flamegraph.TotalWeight)
	}
	return doc, nil
}

// weightsFromTimestamps turns sample times into sample durations. Each sample lasts until the next one, and the last
// sample until duration. Out of order timestamps yield zero weights, which drop the affected samples. Without a
// usable duration, the last sample lasts as long as the mean interval, or 1 if it is the only sample.
func weightsFromTimestamps(ts []int64, duration int64) []float64 {
	w := make([]float64, len(ts))
	for i := range ts {
		if i+1 < len(ts) {
			w[i] = float64(max(ts[i+1]-ts[i], 0))
		}
	}
	if len(ts) == 0 {
		return w
	}
	last := len(ts) - 1
	switch {
	case duration > ts[last]:
		w[last] = float64(duration - ts[last])
	case last > 0 && ts[last] > ts[0]:
		w[last] = float64(ts[last]-ts[0]) / float64(last)
	default:
		w[last] = 1
	}
	return w
}

func measurements(in map[string]measurementJSON) chart.Measurements {
	if len(in) == 0 {
		return nil
	}
	out := make(chart.Measurements, len(in))
	for name, m := range in {
		cm := chart.Measurement{Unit: m.Unit, Values: make([]chart.Sample, len(m.Values))}
		for i, v := range m.Values {
			cm.Values[i] = chart.Sample{Elapsed: time.Duration(v.ElapsedSinceStartNs), Value: v.Value}
		}
		out[name] = cm
	}
	return out
}
