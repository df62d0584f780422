// Package wasm splits WebAssembly modules and components into sections.
package wasm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Magic starts every WebAssembly binary.
const Magic = "\x00asm"

const preambleSize = 8

var (
	coreVersion      = []byte{0x01, 0x00, 0x00, 0x00}
	componentVersion = []byte{0x0d, 0x00, 0x01, 0x00}
)

// FormatError is returned for malformed binaries.
type FormatError struct {
	Off int
	Msg string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wasm: %s at offset %#x", e.Msg, e.Off)
}

// Section is one top level section. Start and End delimit the payload,
// which for custom sections excludes the name.
type Section struct {
	ID    byte
	Name  string
	Start uint64
	End   uint64
}

func (s *Section) Custom() bool {
	return s.ID == 0
}

// Module is a parsed core module or component.
type Module struct {
	Component bool
	Sections  []Section
	// Debug holds the contents of .debug_* custom sections by name.
	Debug map[string][]byte
	// CodeStart is the offset of the code section payload, which DWARF
	// code addresses are relative to.
	CodeStart uint64
	// Modules are the core modules nested in a component.
	Modules []*Module
}

// IsWasm reports whether data starts with the WebAssembly magic.
func IsWasm(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Magic))
}

// Parse splits data into its sections.
func Parse(data []byte) (*Module, error) {
	return parse(data, 0)
}

func parse(data []byte, base int) (*Module, error) {
	if len(data) < preambleSize || !IsWasm(data) {
		return nil, &FormatError{base, "missing magic number"}
	}
	m := &Module{Debug: make(map[string][]byte)}
	switch version := data[4:preambleSize]; {
	case bytes.Equal(version, coreVersion):
	case bytes.Equal(version, componentVersion):
		m.Component = true
	default:
		return nil, &FormatError{base + 4, fmt.Sprintf("unsupported version % x", version)}
	}

	for off := preambleSize; off < len(data); {
		id := data[off]
		size, n := binary.Uvarint(data[off+1:])
		if n <= 0 {
			return nil, &FormatError{base + off + 1, "bad section size"}
		}
		start := off + 1 + n
		if size > uint64(len(data)-start) {
			return nil, &FormatError{base + off, fmt.Sprintf("section %d truncated", id)}
		}
		end := start + int(size)
		payload := data[start:end]

		if err := m.addSection(id, payload, base+start); err != nil {
			return nil, err
		}
		off = end
	}
	return m, nil
}

func (m *Module) addSection(id byte, payload []byte, start int) error {
	if id == 0 {
		name, n, err := readName(payload)
		if err != nil {
			return &FormatError{start, err.Error()}
		}
		data := payload[n:]
		if strings.HasPrefix(name, ".debug") {
			m.Debug[name] = data
		}
		m.Sections = append(m.Sections, Section{
			ID:    id,
			Name:  name,
			Start: uint64(start + n),
			End:   uint64(start + len(payload)),
		})
		return nil
	}

	if m.Component && id == componentCoreModule {
		nested, err := parse(payload, start)
		if err != nil {
			return err
		}
		m.Modules = append(m.Modules, nested)
		m.Sections = append(m.Sections, nested.Sections...)
		return nil
	}

	name, ok := sectionName(id, m.Component)
	if !ok {
		return &FormatError{start, fmt.Sprintf("unknown section id %d", id)}
	}
	if !m.Component && id == coreCode {
		m.CodeStart = uint64(start)
	}
	m.Sections = append(m.Sections, Section{
		ID:    id,
		Name:  name,
		Start: uint64(start),
		End:   uint64(start + len(payload)),
	})
	return nil
}

func readName(b []byte) (string, int, error) {
	size, n := binary.Uvarint(b)
	if n <= 0 {
		return "", 0, errors.New("bad custom section name")
	}
	if size > uint64(len(b)-n) {
		return "", 0, errors.New("custom section name truncated")
	}
	end := n + int(size)
	return string(b[n:end]), end, nil
}
