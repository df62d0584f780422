package format

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/debuginfo"
	"github.com/surma/wasmphobia/internal/section"
	"github.com/surma/wasmphobia/internal/wasm"
)

// Wasm analyzes WebAssembly modules and components with DWARF in custom
// sections.
type Wasm struct{}

func (Wasm) Name() string {
	return "Wasm"
}

func (Wasm) Recognize(data []byte) bool {
	return wasm.IsWasm(data)
}

func (Wasm) Analyze(cfg *config.Config, data []byte) (*contrib.Analysis, error) {
	m, err := wasm.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing module")
	}

	a := contrib.NewAnalysis(uint64(len(data)))
	var t section.Table
	for _, s := range m.Sections {
		t.Add(s.Name, s.Start, s.End, !s.Custom())
	}

	modules := append([]*wasm.Module{m}, m.Modules...)
	for i, mod := range modules {
		d, err := debuginfo.Open(mod.Debug)
		if err != nil {
			return nil, errors.Wrapf(err, "module %d", i)
		}
		if d == nil {
			continue
		}
		slog.Debug("attributing wasm module", "module", i, "code_start", mod.CodeStart)
		if err := attributeDWARF(cfg, a, &t, d, mod.CodeStart); err != nil {
			return nil, errors.Wrapf(err, "module %d", i)
		}
	}

	finish(cfg, a, &t, isDebugName)
	return a, nil
}
