// Package source loads traces and profiles from disk.
//
// Supported inputs are JSON transaction events with spans, JSON sampled profiles with optional measurements, and
// pprof profiles, either gzipped or not. Any of them may additionally be wrapped in a snappy framed stream.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spanlens/spanlens/chart"
	"github.com/spanlens/spanlens/flamegraph"
	"github.com/spanlens/spanlens/spantree"

	"github.com/golang/snappy"
)

var ErrUnknownFormat = errors.New("unknown input format")

type Kind uint8

const (
	KindEvent Kind = iota + 1
	KindSampledProfile
	KindPprof
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindSampledProfile:
		return "sampled profile"
	case KindPprof:
		return "pprof"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Document is a decoded input. Which fields are set depends on Kind: events set Event, sampled profiles set
// Profile, Flamegraph and possibly Measurements, and pprof profiles set Flamegraph.
type Document struct {
	Kind         Kind
	Event        *spantree.Event
	Profile      *flamegraph.SampledProfile
	Flamegraph   *flamegraph.Flamegraph
	Measurements chart.Measurements
	// Duration is the time covered by the document, or zero if it isn't known.
	Duration   time.Duration
	Compressed bool
}

// snappyMagic starts every snappy framed stream: a stream identifier chunk followed by "sNaPpY".
const snappyMagic = "\xff\x06\x00\x00sNaPpY"

var gzipMagic = []byte{0x1f, 0x8b}

// Decoder decodes documents. The zero value is ready to use.
type Decoder struct {
	Log *slog.Logger
	// Sort is the sibling order of flamegraphs built from aggregated profiles.
	Sort flamegraph.Sort
	// AppPackages are the package path prefixes of application code in pprof profiles. Frames from package main
	// always count as application code.
	AppPackages []string
}

func (d *Decoder) log() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// Load decodes the file at path.
func Load(path string) (*Document, error) {
	var d Decoder
	return d.Load(path)
}

// Decode decodes r.
func Decode(r io.Reader) (*Document, error) {
	var d Decoder
	return d.Decode(r)
}

func (d *Decoder) Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := d.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("couldn't load %s: %w", path, err)
	}
	d.log().Debug("loaded document", "path", path, "kind", doc.Kind, "compressed", doc.Compressed)
	return doc, nil
}

func (d *Decoder) Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	compressed := false
	if bytes.HasPrefix(data, []byte(snappyMagic)) {
		data, err = io.ReadAll(snappy.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("couldn't decompress snappy stream: %w", err)
		}
		compressed = true
	}

	doc, err := d.decode(data)
	if err != nil {
		return nil, err
	}
	doc.Compressed = compressed
	return doc, nil
}

func (d *Decoder) decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case len(trimmed) == 0:
		return nil, ErrUnknownFormat
	case trimmed[0] == '{':
		d.log().Debug("detected JSON input")
		return d.decodeJSON(trimmed)
	case bytes.HasPrefix(data, gzipMagic):
		d.log().Debug("detected gzipped pprof input")
		return d.decodePprof(data)
	default:
		// Uncompressed pprof profiles are bare protocol buffers, which have no magic.
		doc, err := d.decodePprof(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, err)
		}
		d.log().Debug("detected uncompressed pprof input")
		return doc, nil
	}
}
