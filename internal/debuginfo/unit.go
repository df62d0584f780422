package debuginfo

import (
	"debug/dwarf"
	"sort"

	"github.com/pkg/errors"
)

// Unit is one compilation unit with its entries stored in document order.
type Unit struct {
	Name    string
	CompDir string

	Files   []*dwarf.LineFile
	Entries []Entry
}

func newUnit(e *dwarf.Entry) *Unit {
	u := &Unit{}
	u.Name, _ = e.Val(dwarf.AttrName).(string)
	u.CompDir, _ = e.Val(dwarf.AttrCompDir).(string)
	return u
}

func (u *Unit) loadLines(d *dwarf.Data, e *dwarf.Entry) error {
	r, err := d.LineReader(e)
	if err != nil {
		return errors.Wrapf(err, "line table of %q", u.Name)
	}
	if r == nil {
		return nil
	}
	u.Files = r.Files()
	return nil
}

func (u *Unit) loadDebugInfo(d *dwarf.Data, r *dwarf.Reader) error {
	depth := 0

	for {
		e, err := r.Next()
		if err != nil {
			return err
		}
		if e == nil {
			break
		}

		if e.Tag == 0 {
			if depth == 0 {
				return nil
			}
			depth--
			continue
		}

		u.Entries = append(u.Entries, newEntry(d, e, depth))
		if e.Children {
			depth++
		}
	}
	return nil
}

// file returns the line table entry for a declared file index, or nil.
// Before DWARF 5 the line reader leaves index 0 empty, which means no file.
func (u *Unit) file(idx int64) *dwarf.LineFile {
	if idx < 0 || idx >= int64(len(u.Files)) {
		return nil
	}
	return u.Files[idx]
}

// entry finds the entry at off in u.
func (u *Unit) entry(off dwarf.Offset) *Entry {
	i := sort.Search(len(u.Entries), func(i int) bool {
		return u.Entries[i].Offset >= off
	})
	if i < len(u.Entries) && u.Entries[i].Offset == off {
		return &u.Entries[i]
	}
	return nil
}

func (u *Unit) contains(off dwarf.Offset) bool {
	if len(u.Entries) == 0 {
		return false
	}
	return off >= u.Entries[0].Offset && off <= u.Entries[len(u.Entries)-1].Offset
}
