package format

import (
	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/sourcemap"
)

// RawSourceMap analyzes a standalone JSON source map.
type RawSourceMap struct{}

func (RawSourceMap) Name() string {
	return "SourceMap"
}

func (RawSourceMap) Recognize(data []byte) bool {
	return sourcemap.IsRaw(data)
}

// Analyze leaves the input size unknown: the generated file the map
// describes is not part of the input.
func (RawSourceMap) Analyze(_ *config.Config, data []byte) (*contrib.Analysis, error) {
	return analyzeSourceMap(data, 0)
}

// EmbeddedSourceMap analyzes JavaScript carrying an inline base64 source
// map. The generated file, not the map, is the size being explained.
type EmbeddedSourceMap struct{}

func (EmbeddedSourceMap) Name() string {
	return "Embedded SourceMap"
}

func (EmbeddedSourceMap) Recognize(data []byte) bool {
	return sourcemap.IsEmbedded(data)
}

func (EmbeddedSourceMap) Analyze(_ *config.Config, data []byte) (*contrib.Analysis, error) {
	raw, err := sourcemap.Unembed(data)
	if err != nil {
		return nil, err
	}
	return analyzeSourceMap(raw, uint64(len(data)))
}

func analyzeSourceMap(data []byte, size uint64) (*contrib.Analysis, error) {
	m, err := sourcemap.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing source map")
	}
	out, err := sourcemap.Attribute(m)
	if err != nil {
		return nil, err
	}
	a := contrib.NewAnalysis(size)
	a.Contributors.Merge(out)
	return a, nil
}
