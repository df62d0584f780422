package debuginfo

import (
	"debug/dwarf"
	"log/slog"

	"github.com/pkg/errors"
)

// Program holds every compilation unit of one DWARF image.
type Program struct {
	Units []*Unit
}

// Load reads all compilation units from d.
func Load(d *dwarf.Data) (*Program, error) {
	var p Program
	if err := p.LoadImage(d); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadImage loads the debug information from the given DWARF data.
func (p *Program) LoadImage(d *dwarf.Data) error {
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return errors.Wrap(err, "reading debug info")
		}
		if e == nil {
			break
		}
		switch e.Tag {
		case dwarf.TagCompileUnit, dwarf.TagPartialUnit:
			u := newUnit(e)
			p.Units = append(p.Units, u)

			if err := u.loadLines(d, e); err != nil {
				slog.Debug("skipping line table", "unit", u.Name, "err", err)
			}

			if e.Children {
				if err := u.loadDebugInfo(d, r); err != nil {
					return errors.Wrapf(err, "reading entries of %q", u.Name)
				}
			}
		default:
			r.SkipChildren()
		}
	}
	slog.Debug("loaded debug info", "units", len(p.Units))
	return nil
}

// lookup finds the entry at off, first in u and then in every other unit.
func (p *Program) lookup(u *Unit, off dwarf.Offset) (*Unit, *Entry) {
	if u != nil && u.contains(off) {
		if e := u.entry(off); e != nil {
			return u, e
		}
	}
	for _, other := range p.Units {
		if other == u || !other.contains(off) {
			continue
		}
		return other, other.entry(off)
	}
	return nil, nil
}
