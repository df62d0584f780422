package test

import (
	"bytes"
	"encoding/binary"
	"sort"
)

const (
	machMagic64      = 0xfeedfacf
	machCPUAMD64     = 0x01000007
	machCPUAMD64All  = 0x00000003
	machObject       = 0x1
	machSegment64    = 0x19
	machHeaderSize   = 32
	machSegmentSize  = 72
	machSectionSize  = 80
	machTextAddr     = 0x1000
	machDWARFSegment = "__DWARF"
)

type machHeader64 struct {
	Magic      uint32
	CpuType    uint32
	CpuSubtype uint32
	FileType   uint32
	NCmds      uint32
	SizeOfCmds uint32
	Flags      uint32
	Reserved   uint32
}

type segmentCommand64 struct {
	Cmd      uint32
	Cmdsize  uint32
	Segname  [16]byte
	Vmaddr   uint64
	Vmsize   uint64
	Fileoff  uint64
	Filesize uint64
	Maxprot  int32
	Initprot int32
	Nsects   uint32
	Flags    uint32
}

type section64 struct {
	Sectname  [16]byte
	Segname   [16]byte
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	Reloff    uint32
	Nreloc    uint32
	Flags     uint32
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32
}

type machSection struct {
	seg, name string
	addr      uint64
	data      []byte
}

// MachOTextAddr is the virtual address of __TEXT,__text in MachO output.
const MachOTextAddr = machTextAddr

// MachO writes a 64-bit Mach-O object with a __TEXT segment holding a
// __text section of textSize bytes at MachOTextAddr and a __DWARF segment
// holding the given DWARF sections.
func MachO(textSize int, dwarfSecs map[string][]byte) []byte {
	text := []machSection{{"__TEXT", "__text", machTextAddr, make([]byte, textSize)}}

	names := make([]string, 0, len(dwarfSecs))
	for name := range dwarfSecs {
		names = append(names, name)
	}
	sort.Strings(names)
	var dbg []machSection
	for _, name := range names {
		// ".debug_info" becomes "__debug_info".
		dbg = append(dbg, machSection{machDWARFSegment, "__" + name[1:], 0, dwarfSecs[name]})
	}

	segs := [][]machSection{text, dbg}
	cmdsize := 0
	for _, s := range segs {
		cmdsize += machSegmentSize + machSectionSize*len(s)
	}

	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, machHeader64{
		Magic:      machMagic64,
		CpuType:    machCPUAMD64,
		CpuSubtype: machCPUAMD64All,
		FileType:   machObject,
		NCmds:      uint32(len(segs)),
		SizeOfCmds: uint32(cmdsize),
	})

	off := uint64(machHeaderSize + cmdsize)
	for i, s := range segs {
		start := off
		var size uint64
		for _, sec := range s {
			size += uint64(len(sec.data))
		}
		seg := segmentCommand64{
			Cmd:      machSegment64,
			Cmdsize:  uint32(machSegmentSize + machSectionSize*len(s)),
			Fileoff:  start,
			Filesize: size,
			Maxprot:  7,
			Initprot: 7,
			Nsects:   uint32(len(s)),
		}
		if i == 0 {
			seg.Vmaddr = machTextAddr
			seg.Vmsize = size
			setPaddedName(&seg.Segname, "__TEXT")
		} else {
			setPaddedName(&seg.Segname, machDWARFSegment)
		}
		binary.Write(&b, binary.LittleEndian, seg)

		for _, sec := range s {
			sh := section64{
				Addr:   sec.addr,
				Size:   uint64(len(sec.data)),
				Offset: uint32(off),
			}
			setPaddedName(&sh.Sectname, sec.name)
			setPaddedName(&sh.Segname, sec.seg)
			binary.Write(&b, binary.LittleEndian, sh)
			off += uint64(len(sec.data))
		}
	}

	for _, s := range segs {
		for _, sec := range s {
			b.Write(sec.data)
		}
	}
	return b.Bytes()
}

func setPaddedName(dst *[16]byte, name string) {
	n := len(name)
	if n > 16 {
		n = 16
	}
	copy(dst[:], []byte(name)[:n])
}
