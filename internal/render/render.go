// Package render writes contribution maps for flame-graph tools and
// reports.
package render

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/surma/wasmphobia/internal/contrib"
)

// ErrUnknownFormat is returned by Write for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Options control what is rendered.
type Options struct {
	// Threshold drops entries smaller than this many bytes.
	Threshold uint64
	// Title names the report in formats that carry metadata.
	Title string
}

type writer func(io.Writer, contrib.Map, Options) error

var writers = map[string]writer{
	"folded": Folded,
	"pprof":  Pprof,
	"json":   JSON,
	"yaml":   YAML,
}

// Formats lists the output formats accepted by Write.
var Formats = []string{"folded", "pprof", "json", "yaml"}

// Write renders m to w in the named format.
func Write(w io.Writer, format string, m contrib.Map, opts Options) error {
	wr, ok := writers[format]
	if !ok {
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	return wr(w, m, opts)
}

// entries returns the keys of m at or above the threshold in lexical
// order.
func entries(m contrib.Map, opts Options) []string {
	keys := m.Keys()
	kept := keys[:0]
	for _, k := range keys {
		if m[k] >= opts.Threshold {
			kept = append(kept, k)
		}
	}
	return kept
}

// Folded writes one "<key> <bytes>" line per entry.
func Folded(w io.Writer, m contrib.Map, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, k := range entries(m, opts) {
		fmt.Fprintf(bw, "%s %d\n", k, m[k])
	}
	return bw.Flush()
}

type reportEntry struct {
	Key      string   `json:"key" yaml:"key"`
	Segments []string `json:"segments" yaml:"segments"`
	Bytes    uint64   `json:"bytes" yaml:"bytes"`
}

type report struct {
	Title   string        `json:"title,omitempty" yaml:"title,omitempty"`
	Total   uint64        `json:"total" yaml:"total"`
	Entries []reportEntry `json:"entries" yaml:"entries"`
}

func newReport(m contrib.Map, opts Options) *report {
	r := &report{Title: opts.Title, Total: m.Total(), Entries: []reportEntry{}}
	for _, k := range entries(m, opts) {
		r.Entries = append(r.Entries, reportEntry{Key: k, Segments: contrib.Segments(k), Bytes: m[k]})
	}
	return r
}

func JSON(w io.Writer, m contrib.Map, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newReport(m, opts))
}

func YAML(w io.Writer, m contrib.Map, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newReport(m, opts)); err != nil {
		return err
	}
	return enc.Close()
}
