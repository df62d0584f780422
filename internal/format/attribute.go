package format

import (
	"debug/dwarf"
	"strings"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/debuginfo"
	"github.com/surma/wasmphobia/internal/section"
)

// attributeDWARF walks d and attributes every function to the section of
// t holding its code. Code addresses are shifted by rebase first.
func attributeDWARF(cfg *config.Config, a *contrib.Analysis, t *section.Table, d *dwarf.Data, rebase uint64) error {
	p, err := debuginfo.Load(d)
	if err != nil {
		return err
	}
	res := debuginfo.Walk(cfg, p)
	for _, w := range res.Warnings {
		a.Warn(w)
	}
	for i := range res.Contributions {
		attributeContribution(cfg, a, t, &res.Contributions[i], rebase)
	}
	return nil
}

func attributeContribution(cfg *config.Config, a *contrib.Analysis, t *section.Table, c *debuginfo.Contribution, rebase uint64) {
	key := c.Key(cfg)
	if len(c.Ranges) == 0 {
		a.Contributors.Add(contrib.Key{contrib.UnknownSection}.Append(key...), c.Size)
		return
	}

	var sec *section.Section
	same := true
	for i, r := range c.Ranges {
		s := t.Find(r[0]+rebase, r[1]-r[0])
		if i == 0 {
			sec = s
		} else if s != sec {
			same = false
		}
	}
	if same {
		a.Contributors.Add(contrib.Key{section.Credit(sec, c.Size)}.Append(key...), c.Size)
		return
	}

	// The ranges span several sections. Exclusive sizes can be smaller
	// than the ranges, so never hand out more than c.Size.
	remaining := c.Size
	for _, r := range c.Ranges {
		n := min(r[1]-r[0], remaining)
		remaining -= n
		s := t.Find(r[0]+rebase, r[1]-r[0])
		a.Contributors.Add(contrib.Key{section.Credit(s, n)}.Append(key...), n)
	}
}

// finish drops debug sections unless retained and emits the unattributed
// remainder of every section.
func finish(cfg *config.Config, a *contrib.Analysis, t *section.Table, isDebug func(string) bool) {
	if !cfg.RetainDebugSections {
		t.Retain(func(s *section.Section) bool { return !isDebug(s.Name) })
	}
	t.Remainders(a)
}

// isDebugName reports whether name is a DWARF section or the relocations
// applying to one.
func isDebugName(name string) bool {
	if rest, ok := strings.CutPrefix(name, ".rela"); ok {
		name = rest
	} else if rest, ok := strings.CutPrefix(name, ".rel"); ok {
		name = rest
	}
	return strings.HasPrefix(name, ".debug") || strings.HasPrefix(name, ".zdebug")
}
