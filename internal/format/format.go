// Package format recognizes artifact formats and attributes their bytes.
package format

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
)

// ErrUnknownFormat is returned when no format recognizes the input.
var ErrUnknownFormat = errors.New("unrecognized input format")

// Format is one supported artifact format.
type Format interface {
	Name() string
	Recognize(data []byte) bool
	Analyze(cfg *config.Config, data []byte) (*contrib.Analysis, error)
}

// Formats lists the supported formats in the order they are tried.
var Formats = []Format{
	Wasm{},
	MachO{},
	ELF{},
	RawSourceMap{},
	EmbeddedSourceMap{},
}

// Detect returns the first format that recognizes data, or nil.
func Detect(data []byte) Format {
	for _, f := range Formats {
		if f.Recognize(data) {
			return f
		}
	}
	return nil
}

// Analyze attributes the bytes of data using the detected format. Errors
// carry the name of the format that failed.
func Analyze(cfg *config.Config, data []byte) (*contrib.Analysis, error) {
	f := Detect(data)
	if f == nil {
		return nil, ErrUnknownFormat
	}
	slog.Debug("detected format", "format", f.Name(), "size", len(data))

	a, err := f.Analyze(cfg, data)
	if err != nil {
		return nil, errors.Wrap(err, f.Name())
	}
	// A zero size is unknown and bounds nothing.
	if total := a.Contributors.Total(); a.Size > 0 && total > a.Size {
		a.Warn(&contrib.Inconsistency{
			Kind:  contrib.InputOvershoot,
			Where: f.Name() + " input",
			Limit: a.Size,
			Got:   total,
		})
	}
	return a, nil
}
