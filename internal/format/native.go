package format

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/section"
)

// MachO analyzes thin Mach-O binaries and objects carrying DWARF.
type MachO struct{}

var machoMagics = [][]byte{
	{0xce, 0xfa, 0xed, 0xfe},
	{0xcf, 0xfa, 0xed, 0xfe},
	{0xfe, 0xed, 0xfa, 0xce},
	{0xfe, 0xed, 0xfa, 0xcf},
}

func (MachO) Name() string {
	return "Mach-O"
}

func (MachO) Recognize(data []byte) bool {
	for _, m := range machoMagics {
		if bytes.HasPrefix(data, m) {
			return true
		}
	}
	return false
}

// Section types without file contents.
const (
	machoZerofill            = 0x1
	machoGBZerofill          = 0xc
	machoThreadLocalZerofill = 0x12
	machoSectionTypeMask     = 0xff
)

func (MachO) Analyze(cfg *config.Config, data []byte) (*contrib.Analysis, error) {
	f, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parsing header")
	}
	defer f.Close()
	slog.Debug("analyzing Mach-O", "arch", machoArch(f.Cpu), "type", f.Type.String())

	a := contrib.NewAnalysis(uint64(len(data)))
	var t section.Table
	for _, s := range f.Sections {
		switch s.Flags & machoSectionTypeMask {
		case machoZerofill, machoGBZerofill, machoThreadLocalZerofill:
			continue
		}
		name := s.Seg + "," + s.Name
		if isMachODebug(s) {
			t.Add(name, uint64(s.Offset), uint64(s.Offset)+s.Size, false)
			continue
		}
		t.Add(name, s.Addr, s.Addr+s.Size, true)
	}

	if f.Section("__debug_info") != nil {
		d, err := f.DWARF()
		if err != nil {
			return nil, errors.Wrap(err, "loading DWARF")
		}
		if err := attributeDWARF(cfg, a, &t, d, 0); err != nil {
			return nil, err
		}
	} else {
		slog.Warn("no DWARF debug info in Mach-O input")
	}

	finish(cfg, a, &t, isMachODebugName)
	return a, nil
}

func isMachODebug(s *macho.Section) bool {
	return isMachODebugName(s.Seg + "," + s.Name)
}

func isMachODebugName(name string) bool {
	seg, sect, _ := strings.Cut(name, ",")
	return seg == "__DWARF" || strings.HasPrefix(sect, "__debug_") || strings.HasPrefix(sect, "__zdebug_")
}

// ELF analyzes ELF executables, shared objects and relocatable objects
// carrying DWARF.
type ELF struct{}

func (ELF) Name() string {
	return "ELF"
}

func (ELF) Recognize(data []byte) bool {
	return bytes.HasPrefix(data, []byte(elf.ELFMAG))
}

func (ELF) Analyze(cfg *config.Config, data []byte) (*contrib.Analysis, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parsing header")
	}
	defer f.Close()
	slog.Debug("analyzing ELF", "arch", elfArch(f.Machine), "type", f.Type.String())

	a := contrib.NewAnalysis(uint64(len(data)))
	var t section.Table
	// Allocated sections of relocatable objects all start at address 0,
	// so only code is matched against function addresses there.
	rel := f.Type == elf.ET_REL
	for _, s := range f.Sections {
		if s.Type == elf.SHT_NULL || s.Type == elf.SHT_NOBITS || s.FileSize == 0 {
			continue
		}
		if s.Flags&elf.SHF_ALLOC == 0 || rel && s.Flags&elf.SHF_EXECINSTR == 0 {
			t.Add(s.Name, s.Offset, s.Offset+s.FileSize, false)
			continue
		}
		t.Add(s.Name, s.Addr, s.Addr+s.Size, true)
	}

	if hasELFDebugInfo(f) {
		d, err := f.DWARF()
		if err != nil {
			return nil, errors.Wrap(err, "loading DWARF")
		}
		if err := attributeDWARF(cfg, a, &t, d, 0); err != nil {
			return nil, err
		}
	} else {
		slog.Warn("no DWARF debug info in ELF input")
	}

	finish(cfg, a, &t, isDebugName)
	return a, nil
}

func hasELFDebugInfo(f *elf.File) bool {
	return f.Section(".debug_info") != nil || f.Section(".zdebug_info") != nil
}
