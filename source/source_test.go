package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spanlens/spanlens/flamegraph"

	"github.com/golang/snappy"
	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventJSON = `{
	"event_id": "ev1",
	"transaction": "/api/users",
	"start_timestamp": 100,
	"timestamp": 101.5,
	"contexts": {"trace": {"trace_id": "t1", "span_id": "root", "op": "http.server"}},
	"spans": [
		{"span_id": "a", "parent_span_id": "root", "op": "db", "description": "SELECT 1", "start_timestamp": 100.1, "timestamp": 100.4},
		{"span_id": "b", "parent_span_id": "a", "op": "db.query", "start_timestamp": 100.2, "timestamp": 100.3, "data": {"rows": 3}}
	]
}`

const sampledProfileJSON = `{
	"name": "cpu",
	"unit": "nanoseconds",
	"frames": [
		{"function": "main", "package": "main", "filename": "main.go", "lineno": 10, "in_app": true},
		{"function": "a", "package": "example.com/a"},
		{"function": "b", "package": "example.com/b"}
	],
	"samples": [[0, 1], [0, 1], [0, 2]],
	"weights": [10, 10, 5],
	"measurements": {
		"cpu_usage": {"unit": "percent", "values": [
			{"elapsed_since_start_ns": 0, "value": 10},
			{"elapsed_since_start_ns": 20, "value": 30}
		]}
	}
}`

func TestDecodeEvent(t *testing.T) {
	doc, err := Decode(strings.NewReader(eventJSON))
	require.NoError(t, err)
	assert.Equal(t, KindEvent, doc.Kind)
	require.NotNil(t, doc.Event)
	assert.Equal(t, "root", doc.Event.Contexts.Trace.SpanID)
	require.Len(t, doc.Event.Spans, 2)
	assert.Equal(t, "SELECT 1", doc.Event.Spans[0].Description)
	assert.Equal(t, float64(3), doc.Event.Spans[1].Data["rows"])
	assert.Equal(t, 1500*time.Millisecond, doc.Duration)
	assert.False(t, doc.Compressed)
}

func TestDecodeEventWithoutTraceContext(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"spans": []}`))
	assert.ErrorContains(t, err, "no trace context")
}

func TestDecodeSampledProfile(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampledProfileJSON))
	require.NoError(t, err)
	assert.Equal(t, KindSampledProfile, doc.Kind)
	require.NotNil(t, doc.Profile)
	assert.Len(t, doc.Profile.Frames, 3)
	assert.True(t, doc.Profile.Frames[0].InApp)

	fg := doc.Flamegraph
	require.NotNil(t, fg)
	assert.True(t, fg.Chronological)
	assert.Equal(t, float64(25), fg.TotalWeight)
	require.Len(t, fg.Roots, 1)
	main := fg.Roots[0]
	assert.Equal(t, "main", main.Frame.Name)
	require.Len(t, main.Children, 2)
	assert.Equal(t, "a", main.Children[0].Frame.Name)
	assert.Equal(t, float64(20), main.Children[0].Weight)
	assert.Equal(t, float64(20), main.Children[1].Start)

	assert.Equal(t, 25*time.Nanosecond, doc.Duration)

	require.Contains(t, doc.Measurements, "cpu_usage")
	m := doc.Measurements["cpu_usage"]
	assert.Equal(t, "percent", m.Unit)
	require.Len(t, m.Values, 2)
	assert.Equal(t, 20*time.Nanosecond, m.Values[1].Elapsed)
	assert.Equal(t, float64(30), m.Values[1].Value)
}

func TestDecodeSampledProfileTimestamps(t *testing.T) {
	in := `{
		"frames": [{"function": "main"}],
		"samples": [[0], [0], [0]],
		"timestamps_ns": [0, 10, 30],
		"duration_ns": 40
	}`
	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "nanoseconds", doc.Profile.Unit)
	assert.Equal(t, []float64{10, 20, 10}, doc.Profile.Weights)
	assert.Equal(t, 40*time.Nanosecond, doc.Duration)
	assert.Equal(t, float64(40), doc.Flamegraph.TotalWeight)
}

func TestDecodeSampledProfileInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unknown frame", `{"frames": [], "samples": [[0]], "weights": [1]}`, "unknown frame"},
		{"missing weights", `{"frames": [{"function": "f"}], "samples": [[0]]}`, "0 weights"},
		{"timestamp mismatch", `{"frames": [{"function": "f"}], "samples": [[0]], "timestamps_ns": [0, 1]}`, "2 timestamps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestWeightsFromTimestamps(t *testing.T) {
	tests := []struct {
		name     string
		ts       []int64
		duration int64
		want     []float64
	}{
		{"out of order", []int64{0, 10, 5}, 20, []float64{10, 0, 15}},
		{"no duration", []int64{0, 10, 20}, 0, []float64{10, 10, 10}},
		{"duration before last sample", []int64{0, 10, 30}, 20, []float64{10, 20, 15}},
		{"single sample", []int64{5}, 0, []float64{1}},
		{"empty", nil, 10, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, weightsFromTimestamps(tt.ts, tt.duration))
		})
	}
}

func TestDecodeSampledProfileKeepsLastSample(t *testing.T) {
	in := `{
		"frames": [{"function": "main"}, {"function": "leaf"}],
		"samples": [[0], [0], [0, 1]],
		"timestamps_ns": [0, 10, 20]
	}`
	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10}, doc.Profile.Weights)
	assert.Equal(t, float64(30), doc.Flamegraph.TotalWeight)
	assert.Len(t, doc.Flamegraph.Search("leaf"), 1)
}

func TestDecodeSnappy(t *testing.T) {
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	_, err := w.Write([]byte(eventJSON))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	doc, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, KindEvent, doc.Kind)
	assert.True(t, doc.Compressed)
}

func testProfile() *profile.Profile {
	fnMain := &profile.Function{ID: 1, Name: "main.main", Filename: "main.go"}
	fnWork := &profile.Function{ID: 2, Name: "example.com/app/work.(*Pool).Run", Filename: "work.go"}
	fnRead := &profile.Function{ID: 3, Name: "syscall.read", Filename: "syscall.go"}
	locMain := &profile.Location{ID: 1, Line: []profile.Line{{Function: fnMain, Line: 10}}}
	// The inlined call comes first.
	locWork := &profile.Location{ID: 2, Line: []profile.Line{{Function: fnRead, Line: 30}, {Function: fnWork, Line: 20}}}
	return &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		Sample: []*profile.Sample{
			{Location: []*profile.Location{locWork, locMain}, Value: []int64{3, 300}},
			{Location: []*profile.Location{locMain}, Value: []int64{1, 100}},
		},
		Location:      []*profile.Location{locMain, locWork},
		Function:      []*profile.Function{fnMain, fnWork, fnRead},
		DurationNanos: int64(time.Second),
	}
}

func TestDecodePprof(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testProfile().Write(&buf))

	d := Decoder{AppPackages: []string{"example.com/app"}}
	doc, err := d.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, KindPprof, doc.Kind)
	assert.Equal(t, time.Second, doc.Duration)

	fg := doc.Flamegraph
	assert.Equal(t, "nanoseconds", fg.Unit)
	assert.Equal(t, "cpu", fg.Name)
	assert.Equal(t, float64(400), fg.TotalWeight)
	require.Len(t, fg.Roots, 1)

	main := fg.Roots[0]
	assert.Equal(t, "main.main", main.Frame.Name)
	assert.Equal(t, "main", main.Frame.Package)
	assert.True(t, main.Frame.InApp)
	assert.Equal(t, float64(100), main.SelfWeight)

	require.Len(t, main.Children, 1)
	work := main.Children[0]
	assert.Equal(t, "example.com/app/work", work.Frame.Package)
	assert.True(t, work.Frame.InApp)
	require.Len(t, work.Children, 1)
	read := work.Children[0]
	assert.Equal(t, "syscall.read", read.Frame.Name)
	assert.False(t, read.Frame.InApp)
	assert.Equal(t, float64(300), read.Weight)
}

func TestDecodePprofDefaultSampleType(t *testing.T) {
	p := testProfile()
	p.DefaultSampleType = "samples"
	var buf bytes.Buffer
	require.NoError(t, p.WriteUncompressed(&buf))

	doc, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "count", doc.Flamegraph.Unit)
	assert.Equal(t, float64(4), doc.Flamegraph.TotalWeight)
}

func TestPackageOf(t *testing.T) {
	tests := map[string]string{
		"main.main":                       "main",
		"example.com/mod/pkg.(*T).Method": "example.com/mod/pkg",
		"example.com/mod/pkg.func1.2":     "example.com/mod/pkg",
		"runtime.gcBgMarkWorker":          "runtime",
		"[unknown]":                       "",
		"example.com/mod/nodots":          "",
		".hidden":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, packageOf(in), in)
	}
}

func TestDecodeUnknown(t *testing.T) {
	for _, in := range []string{"", "   \n", "hello world", `{"foo": 1}`} {
		_, err := Decode(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrUnknownFormat, "%q", in)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(good, []byte(eventJSON), 0o644))
	doc, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, KindEvent, doc.Kind)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorContains(t, err, bad)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sampled profile", KindSampledProfile.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte(eventJSON))
	f.Add([]byte(sampledProfileJSON))
	var buf bytes.Buffer
	if err := testProfile().Write(&buf); err == nil {
		f.Add(buf.Bytes())
	}
	f.Fuzz(func(t *testing.T, in []byte) {
		d := Decoder{Sort: flamegraph.SortLeftHeavy}
		d.Decode(bytes.NewReader(in))
	})
}
