// Package section tracks how many bytes of each section of a container
// have been attributed to a source.
package section

import (
	"github.com/surma/wasmphobia/internal/contrib"
)

// Section is a named byte range of a container.
type Section struct {
	Name  string
	Start uint64
	End   uint64
	// Mapped counts the bytes attributed to this section so far.
	Mapped uint64
	// Addressable sections can receive attributed code addresses.
	Addressable bool
}

func (s *Section) Size() uint64 {
	return s.End - s.Start
}

// Contains reports whether [start, start+size) lies within s.
func (s *Section) Contains(start, size uint64) bool {
	end := start + size
	if end < start {
		return false
	}
	if size == 0 {
		return start >= s.Start && start < s.End
	}
	return start >= s.Start && end <= s.End
}

// Table is the ordered list of sections of one container.
type Table struct {
	Sections []*Section
}

// Add appends a section covering [start, end).
func (t *Table) Add(name string, start, end uint64, addressable bool) *Section {
	s := &Section{Name: name, Start: start, End: end, Addressable: addressable}
	t.Sections = append(t.Sections, s)
	return s
}

// Find returns the only addressable section containing [start,
// start+size), or nil when no section or several sections contain it.
func (t *Table) Find(start, size uint64) *Section {
	var found *Section
	for _, s := range t.Sections {
		if !s.Addressable || !s.Contains(start, size) {
			continue
		}
		if found != nil {
			return nil
		}
		found = s
	}
	return found
}

// Attribute records size bytes at start and returns the name of the
// section they belong to, or the unknown section sentinel.
func (t *Table) Attribute(start, size uint64) string {
	return Credit(t.Find(start, size), size)
}

// Credit records size bytes in s and returns its name. A nil s stands for
// the unknown section and records nothing.
func Credit(s *Section, size uint64) string {
	if s == nil {
		return contrib.UnknownSection
	}
	s.Mapped += size
	return s.Name
}

// Retain drops the sections for which keep returns false. It is meant to
// run after attribution so dropped sections still absorb their bytes.
func (t *Table) Retain(keep func(*Section) bool) {
	kept := t.Sections[:0]
	for _, s := range t.Sections {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	t.Sections = kept
}

// Remainders adds the unattributed bytes of every section to a. A section
// with more bytes attributed than it holds is reported instead.
func (t *Table) Remainders(a *contrib.Analysis) {
	for _, s := range t.Sections {
		if s.Mapped > s.Size() {
			a.Warn(&contrib.Inconsistency{
				Kind:  contrib.SectionOvershoot,
				Where: s.Name,
				Limit: s.Size(),
				Got:   s.Mapped,
			})
			continue
		}
		a.Contributors.Add(contrib.Key{s.Name, contrib.NoMappingInfo}, s.Size()-s.Mapped)
	}
}
