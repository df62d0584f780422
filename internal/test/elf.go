package test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"sort"
)

type elfSection struct {
	name  string
	typ   elf.SectionType
	flags elf.SectionFlag
	link  uint32
	info  uint32
	data  []byte
}

// ELFObject writes a 64-bit x86-64 relocatable object. Like a compiler's
// output, every allocated section sits at address 0: .text holds textSize
// bytes of code and .data holds dataSize bytes. The DWARF sections are
// stored unallocated, next to a .rela.debug_info whose only entry
// relocates nothing.
func ELFObject(textSize, dataSize int, dwarfSecs map[string][]byte) []byte {
	secs := []elfSection{
		{},
		{name: ".text", typ: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, data: make([]byte, textSize)},
		{name: ".data", typ: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC | elf.SHF_WRITE, data: make([]byte, dataSize)},
	}

	names := make([]string, 0, len(dwarfSecs))
	for name := range dwarfSecs {
		names = append(names, name)
	}
	sort.Strings(names)
	info := -1
	for _, name := range names {
		if name == ".debug_info" {
			info = len(secs)
		}
		secs = append(secs, elfSection{name: name, typ: elf.SHT_PROGBITS, data: dwarfSecs[name]})
	}

	symtab := len(secs)
	strtab := symtab + 1
	secs = append(secs,
		elfSection{name: ".symtab", typ: elf.SHT_SYMTAB, link: uint32(strtab), data: make([]byte, elf.Sym64Size)},
		elfSection{name: ".strtab", typ: elf.SHT_STRTAB, data: []byte{0}},
	)
	if info >= 0 {
		secs = append(secs, elfSection{
			name:  ".rela.debug_info",
			typ:   elf.SHT_RELA,
			flags: elf.SHF_INFO_LINK,
			link:  uint32(symtab),
			info:  uint32(info),
			data:  make([]byte, 24),
		})
	}

	var shstr bytes.Buffer
	shstr.WriteByte(0)
	nameOff := make([]uint32, len(secs)+1)
	for i, s := range secs {
		if s.name == "" {
			continue
		}
		nameOff[i] = uint32(shstr.Len())
		shstr.WriteString(s.name)
		shstr.WriteByte(0)
	}
	nameOff[len(secs)] = uint32(shstr.Len())
	shstr.WriteString(".shstrtab")
	shstr.WriteByte(0)
	secs = append(secs, elfSection{name: ".shstrtab", typ: elf.SHT_STRTAB, data: shstr.Bytes()})

	const headerSize = 64
	var body bytes.Buffer
	offsets := make([]uint64, len(secs))
	for i, s := range secs {
		if s.typ == elf.SHT_NULL {
			continue
		}
		offsets[i] = uint64(headerSize + body.Len())
		body.Write(s.data)
	}
	shoff := uint64(headerSize + body.Len())

	hdr := elf.Header64{
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    headerSize,
		Shentsize: 64,
		Shnum:     uint16(len(secs)),
		Shstrndx:  uint16(len(secs) - 1),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, hdr)
	b.Write(body.Bytes())
	for i, s := range secs {
		sh := elf.Section64{
			Name:      nameOff[i],
			Type:      uint32(s.typ),
			Flags:     uint64(s.flags),
			Off:       offsets[i],
			Size:      uint64(len(s.data)),
			Link:      s.link,
			Info:      s.info,
			Addralign: 1,
		}
		switch s.typ {
		case elf.SHT_NULL:
			sh.Addralign = 0
		case elf.SHT_SYMTAB:
			sh.Entsize = elf.Sym64Size
			sh.Info = 1
		case elf.SHT_RELA:
			sh.Entsize = 24
		}
		binary.Write(&b, binary.LittleEndian, sh)
	}
	return b.Bytes()
}
