package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/surma/wasmphobia/internal/contrib"
)

var sample = contrib.Map{
	"code;/src/a.c;@function: foo": 30,
	"code;<no mapping info>":       70,
	"data;a%3Bb":                   4,
}

var foldedTests = []struct {
	threshold uint64
	want      string
}{
	{0, "code;/src/a.c;@function: foo 30\ncode;<no mapping info> 70\ndata;a%3Bb 4\n"},
	{5, "code;/src/a.c;@function: foo 30\ncode;<no mapping info> 70\n"},
	{100, ""},
}

func TestFolded(t *testing.T) {
	for i, test := range foldedTests {
		var b bytes.Buffer
		assert.NoError(t, Write(&b, "folded", sample, Options{Threshold: test.threshold}), "test #%d", i)
		assert.Equal(t, test.want, b.String(), "test #%d", i)
	}
}

func TestJSON(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, "json", sample, Options{Title: "app.wasm"}))

	var r report
	require.NoError(t, json.Unmarshal(b.Bytes(), &r))
	assert.Equal(t, "app.wasm", r.Title)
	assert.Equal(t, uint64(104), r.Total)
	require.Len(t, r.Entries, 3)
	assert.Equal(t, reportEntry{Key: "data;a%3Bb", Segments: []string{"data", "a;b"}, Bytes: 4}, r.Entries[2])
}

func TestYAML(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, "yaml", sample, Options{Threshold: 50}))

	var r report
	require.NoError(t, yaml.Unmarshal(b.Bytes(), &r))
	assert.Equal(t, uint64(104), r.Total)
	assert.Equal(t, []reportEntry{{Key: "code;<no mapping info>", Segments: []string{"code", "<no mapping info>"}, Bytes: 70}}, r.Entries)
}

func TestPprof(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, "pprof", sample, Options{Title: "app.wasm"}))

	p, err := profile.Parse(&b)
	require.NoError(t, err)
	assert.NoError(t, p.CheckValid())
	assert.Equal(t, []string{"app.wasm"}, p.Comments)
	require.Len(t, p.SampleType, 1)
	assert.Equal(t, "bytes", p.SampleType[0].Unit)

	stacks := make(map[string]int64)
	for _, s := range p.Sample {
		var names []string
		for _, l := range s.Location {
			names = append([]string{l.Line[0].Function.Name}, names...)
		}
		stacks[contrib.Key(names).String()] = s.Value[0]
	}
	assert.Equal(t, map[string]int64{
		"code;/src/a.c;@function: foo": 30,
		"code;<no mapping info>":       70,
		"data;a%3Bb":                   4,
	}, stacks)
	// "code" is shared by two stacks.
	assert.Len(t, p.Function, 6)
}

func TestUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "svg", sample, Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
