package test

import (
	"bytes"
	"debug/dwarf"
	"encoding/binary"
	"fmt"
	"strings"
)

// Form is a DWARF attribute encoding supported by the builder.
type Form byte

const (
	FormAddr        Form = 0x01
	FormData4       Form = 0x06
	FormString      Form = 0x08
	FormData1       Form = 0x0b
	FormUdata       Form = 0x0f
	FormRefAddr     Form = 0x10
	FormRef4        Form = 0x13
	FormSecOffset   Form = 0x17
	FormFlagPresent Form = 0x19
)

// Attr is one attribute of a DIE. Val is a uint64, a string or, for
// reference forms, a *DIE.
type Attr struct {
	Attr dwarf.Attr
	Form Form
	Val  any
}

// DIE is a debugging information entry to be encoded.
type DIE struct {
	Tag      dwarf.Tag
	Attrs    []Attr
	Children []*DIE

	off uint32
}

// Offset is the position of d in .debug_info once Sections has run.
func (d *DIE) Offset() dwarf.Offset {
	return dwarf.Offset(d.off)
}

// LineFile is an entry of a unit's line table file list. Dir indexes
// Unit.Dirs starting at 1; 0 is the compilation directory.
type LineFile struct {
	Name string
	Dir  uint64
}

// Unit is one DWARF 4 compilation unit.
type Unit struct {
	Name    string
	CompDir string
	Dirs    []string
	Files   []LineFile
	Entries []*DIE
}

// DWARF assembles DWARF 4 sections from a list of units.
type DWARF struct {
	AddrSize int
	Units    []*Unit

	ranges bytes.Buffer
}

// RangeList adds a range list to .debug_ranges and returns its offset.
func (d *DWARF) RangeList(ranges ...[2]uint64) uint64 {
	off := uint64(d.ranges.Len())
	for _, r := range ranges {
		d.addr(&d.ranges, r[0])
		d.addr(&d.ranges, r[1])
	}
	d.addr(&d.ranges, 0)
	d.addr(&d.ranges, 0)
	return off
}

type fixup struct {
	pos  int
	die  *DIE
	form Form
	base uint32
}

// Sections encodes the units and returns the sections by ELF style name.
func (d *DWARF) Sections() map[string][]byte {
	if d.AddrSize == 0 {
		d.AddrSize = 4
	}
	var info, abbrev, line bytes.Buffer
	codes := make(map[string]uint64)
	var fixups []fixup

	for _, u := range d.Units {
		lineOff := uint64(line.Len())
		d.writeLineProgram(&line, u)

		cu := &DIE{
			Tag: dwarf.TagCompileUnit,
			Attrs: []Attr{
				{dwarf.AttrName, FormString, u.Name},
				{dwarf.AttrCompDir, FormString, u.CompDir},
				{dwarf.AttrStmtList, FormSecOffset, lineOff},
				{dwarf.AttrLowpc, FormAddr, uint64(0)},
			},
			Children: u.Entries,
		}

		base := uint32(info.Len())
		info.Write([]byte{0, 0, 0, 0})
		binary.Write(&info, binary.LittleEndian, uint16(4))
		binary.Write(&info, binary.LittleEndian, uint32(0))
		info.WriteByte(byte(d.AddrSize))

		d.writeDIE(&info, &abbrev, codes, cu, base, &fixups)

		size := uint32(info.Len()) - base - 4
		binary.LittleEndian.PutUint32(info.Bytes()[base:], size)
	}
	abbrev.WriteByte(0)

	buf := info.Bytes()
	for _, f := range fixups {
		switch f.form {
		case FormRef4:
			binary.LittleEndian.PutUint32(buf[f.pos:], f.die.off-f.base)
		case FormRefAddr:
			binary.LittleEndian.PutUint32(buf[f.pos:], f.die.off)
		}
	}

	return map[string][]byte{
		".debug_info":   buf,
		".debug_abbrev": abbrev.Bytes(),
		".debug_line":   line.Bytes(),
		".debug_ranges": d.ranges.Bytes(),
		".debug_str":    {},
	}
}

func (d *DWARF) writeDIE(info, abbrev *bytes.Buffer, codes map[string]uint64, die *DIE, base uint32, fixups *[]fixup) {
	die.off = uint32(info.Len())
	uleb128(info, abbrevCode(abbrev, codes, die))

	for _, a := range die.Attrs {
		switch a.Form {
		case FormAddr:
			d.addr(info, a.Val.(uint64))
		case FormData1:
			info.WriteByte(byte(a.Val.(uint64)))
		case FormData4, FormSecOffset:
			binary.Write(info, binary.LittleEndian, uint32(a.Val.(uint64)))
		case FormUdata:
			uleb128(info, a.Val.(uint64))
		case FormString:
			info.WriteString(a.Val.(string))
			info.WriteByte(0)
		case FormRef4, FormRefAddr:
			*fixups = append(*fixups, fixup{pos: info.Len(), die: a.Val.(*DIE), form: a.Form, base: base})
			info.Write([]byte{0, 0, 0, 0})
		case FormFlagPresent:
		default:
			panic(fmt.Sprintf("unsupported form %#x", a.Form))
		}
	}

	if len(die.Children) > 0 {
		for _, c := range die.Children {
			d.writeDIE(info, abbrev, codes, c, base, fixups)
		}
		info.WriteByte(0)
	}
}

func abbrevCode(abbrev *bytes.Buffer, codes map[string]uint64, die *DIE) uint64 {
	var sig strings.Builder
	fmt.Fprintf(&sig, "%d/%t", die.Tag, len(die.Children) > 0)
	for _, a := range die.Attrs {
		fmt.Fprintf(&sig, "/%d:%d", a.Attr, a.Form)
	}
	if code, ok := codes[sig.String()]; ok {
		return code
	}

	code := uint64(len(codes) + 1)
	codes[sig.String()] = code
	uleb128(abbrev, code)
	uleb128(abbrev, uint64(die.Tag))
	if len(die.Children) > 0 {
		abbrev.WriteByte(1)
	} else {
		abbrev.WriteByte(0)
	}
	for _, a := range die.Attrs {
		uleb128(abbrev, uint64(a.Attr))
		uleb128(abbrev, uint64(a.Form))
	}
	abbrev.Write([]byte{0, 0})
	return code
}

var standardOpcodeLengths = []byte{0, 1, 1, 1, 1, 0, 0, 0, 1, 0, 0, 1}

// writeLineProgram writes a DWARF 4 line program header with the unit's
// directories and files and an empty program.
func (d *DWARF) writeLineProgram(line *bytes.Buffer, u *Unit) {
	var hdr bytes.Buffer
	hdr.WriteByte(1)    // minimum_instruction_length
	hdr.WriteByte(1)    // maximum_operations_per_instruction
	hdr.WriteByte(1)    // default_is_stmt
	hdr.WriteByte(0xfb) // line_base -5
	hdr.WriteByte(14)   // line_range
	hdr.WriteByte(byte(len(standardOpcodeLengths) + 1))
	hdr.Write(standardOpcodeLengths)
	for _, dir := range u.Dirs {
		hdr.WriteString(dir)
		hdr.WriteByte(0)
	}
	hdr.WriteByte(0)
	for _, f := range u.Files {
		hdr.WriteString(f.Name)
		hdr.WriteByte(0)
		uleb128(&hdr, f.Dir)
		uleb128(&hdr, 0)
		uleb128(&hdr, 0)
	}
	hdr.WriteByte(0)

	program := []byte{0x00, 0x01, 0x01} // DW_LNE_end_sequence

	unitLength := 2 + 4 + hdr.Len() + len(program)
	binary.Write(line, binary.LittleEndian, uint32(unitLength))
	binary.Write(line, binary.LittleEndian, uint16(4))
	binary.Write(line, binary.LittleEndian, uint32(hdr.Len()))
	line.Write(hdr.Bytes())
	line.Write(program)
}

func (d *DWARF) addr(b *bytes.Buffer, v uint64) {
	if d.AddrSize == 8 {
		binary.Write(b, binary.LittleEndian, v)
		return
	}
	binary.Write(b, binary.LittleEndian, uint32(v))
}

// uleb128 encodes an unsigned integer in LEB128 format.
func uleb128(b *bytes.Buffer, v uint64) {
	b.Write(binary.AppendUvarint(nil, v))
}

// Func returns a subprogram covering [low, low+size) declared in the
// given file index.
func Func(name string, low, size uint64, file uint64) *DIE {
	return &DIE{
		Tag: dwarf.TagSubprogram,
		Attrs: []Attr{
			Name(name),
			{dwarf.AttrLowpc, FormAddr, low},
			{dwarf.AttrHighpc, FormData4, size},
			DeclFile(file),
		},
	}
}

// Inlined returns an inlined subroutine of origin covering
// [low, low+size).
func Inlined(origin *DIE, low, size uint64) *DIE {
	return &DIE{
		Tag: dwarf.TagInlinedSubroutine,
		Attrs: []Attr{
			Origin(origin),
			{dwarf.AttrLowpc, FormAddr, low},
			{dwarf.AttrHighpc, FormData4, size},
		},
	}
}

func Name(s string) Attr {
	return Attr{dwarf.AttrName, FormString, s}
}

func Linkage(s string) Attr {
	return Attr{dwarf.AttrLinkageName, FormString, s}
}

func DeclFile(i uint64) Attr {
	return Attr{dwarf.AttrDeclFile, FormData1, i}
}

func Origin(d *DIE) Attr {
	return Attr{dwarf.AttrAbstractOrigin, FormRef4, d}
}

// OriginAddr references d by its section offset, which may lie in another
// unit.
func OriginAddr(d *DIE) Attr {
	return Attr{dwarf.AttrAbstractOrigin, FormRefAddr, d}
}

func Ranges(off uint64) Attr {
	return Attr{dwarf.AttrRanges, FormSecOffset, off}
}

func LowPC(v uint64) Attr {
	return Attr{dwarf.AttrLowpc, FormAddr, v}
}

// HighPC encodes an absolute high address.
func HighPC(v uint64) Attr {
	return Attr{dwarf.AttrHighpc, FormAddr, v}
}

func Inline() Attr {
	return Attr{dwarf.AttrInline, FormData1, uint64(1)}
}
