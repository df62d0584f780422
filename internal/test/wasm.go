package test

import (
	"bytes"
	"encoding/binary"
)

// WasmSection is a section to be written by Wasm.
type WasmSection struct {
	ID      byte
	Payload []byte
}

// Custom returns a custom section with the given name and data.
func Custom(name string, data []byte) WasmSection {
	var b bytes.Buffer
	uleb128(&b, uint64(len(name)))
	b.WriteString(name)
	b.Write(data)
	return WasmSection{ID: 0, Payload: b.Bytes()}
}

// Code returns a code section with a payload of size bytes.
func Code(size int) WasmSection {
	return WasmSection{ID: 10, Payload: make([]byte, size)}
}

// DebugSections returns one custom section per DWARF section.
func DebugSections(secs map[string][]byte) []WasmSection {
	var out []WasmSection
	for _, name := range []string{".debug_abbrev", ".debug_info", ".debug_line", ".debug_ranges", ".debug_str"} {
		if data, ok := secs[name]; ok {
			out = append(out, Custom(name, data))
		}
	}
	return out
}

// Wasm encodes a core module.
func Wasm(sections ...WasmSection) []byte {
	return encodeWasm([]byte{0x01, 0x00, 0x00, 0x00}, sections)
}

// WasmComponent encodes a component.
func WasmComponent(sections ...WasmSection) []byte {
	return encodeWasm([]byte{0x0d, 0x00, 0x01, 0x00}, sections)
}

func encodeWasm(version []byte, sections []WasmSection) []byte {
	var b bytes.Buffer
	b.WriteString("\x00asm")
	b.Write(version)
	for _, s := range sections {
		b.WriteByte(s.ID)
		b.Write(binary.AppendUvarint(nil, uint64(len(s.Payload))))
		b.Write(s.Payload)
	}
	return b.Bytes()
}

// WasmOffset returns the offset of the payload of section i in a module
// produced by Wasm or WasmComponent from the same sections.
func WasmOffset(sections []WasmSection, i int) int {
	off := 8
	for j, s := range sections {
		off += 1 + len(binary.AppendUvarint(nil, uint64(len(s.Payload))))
		if j == i {
			return off
		}
		off += len(s.Payload)
	}
	return -1
}
