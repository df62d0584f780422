package debuginfo

import (
	"debug/dwarf"
)

// Pre-standard linkage name attribute emitted by older GCC and Clang.
const attrMIPSLinkageName dwarf.Attr = 0x2007

// Entry is the part of a debugging information entry that attribution
// needs. References to other entries are kept as offsets and looked up on
// demand.
type Entry struct {
	Offset dwarf.Offset
	Tag    dwarf.Tag
	Depth  int

	Name     string
	Linkage  string
	DeclFile int64

	Origin dwarf.Offset
	Spec   dwarf.Offset

	Ranges [][2]uint64
	Size   uint64
	// SizeErr is non-nil when no size could be computed.
	SizeErr error
}

// IsFunc reports whether e describes machine code of a function.
func (e *Entry) IsFunc() bool {
	return e.Tag == dwarf.TagSubprogram || e.Tag == dwarf.TagInlinedSubroutine
}

// ref returns the entry e inherits attributes from, 0 if none.
func (e *Entry) ref() dwarf.Offset {
	if e.Origin != 0 {
		return e.Origin
	}
	return e.Spec
}

func newEntry(d *dwarf.Data, e *dwarf.Entry, depth int) Entry {
	ent := Entry{
		Offset:   e.Offset,
		Tag:      e.Tag,
		Depth:    depth,
		DeclFile: -1,
	}
	ent.Name, _ = e.Val(dwarf.AttrName).(string)
	ent.Linkage, _ = e.Val(dwarf.AttrLinkageName).(string)
	if ent.Linkage == "" {
		ent.Linkage, _ = e.Val(attrMIPSLinkageName).(string)
	}
	if f, ok := e.Val(dwarf.AttrDeclFile).(int64); ok {
		ent.DeclFile = f
	}
	ent.Origin, _ = e.Val(dwarf.AttrAbstractOrigin).(dwarf.Offset)
	ent.Spec, _ = e.Val(dwarf.AttrSpecification).(dwarf.Offset)

	if ent.IsFunc() {
		ent.Ranges, ent.Size, ent.SizeErr = funcRanges(d, e)
	}
	return ent
}

// funcRanges computes the code ranges of a function entry. A range list
// takes precedence over a low/high pair on the same entry.
func funcRanges(d *dwarf.Data, e *dwarf.Entry) ([][2]uint64, uint64, error) {
	if e.AttrField(dwarf.AttrRanges) != nil {
		ranges, err := d.Ranges(withoutPC(e))
		if err != nil {
			return nil, 0, ErrNoSize
		}
		size, err := RangesSize(ranges)
		if err != nil {
			return nil, 0, err
		}
		return ranges, size, nil
	}

	low := e.AttrField(dwarf.AttrLowpc)
	size, err := PCSize(low, e.AttrField(dwarf.AttrHighpc))
	if err != nil {
		return nil, 0, err
	}
	lo := low.Val.(uint64)
	return [][2]uint64{{lo, lo + size}}, size, nil
}

func withoutPC(e *dwarf.Entry) *dwarf.Entry {
	stripped := &dwarf.Entry{
		Offset:   e.Offset,
		Tag:      e.Tag,
		Children: e.Children,
		Field:    make([]dwarf.Field, 0, len(e.Field)),
	}
	for _, f := range e.Field {
		if f.Attr == dwarf.AttrLowpc || f.Attr == dwarf.AttrHighpc {
			continue
		}
		stripped.Field = append(stripped.Field, f)
	}
	return stripped
}
