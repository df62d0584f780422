package debuginfo

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/demangle"
)

const functionPrefix = "@function: "

// Contribution is the code of one function attributed to its source.
type Contribution struct {
	Unit string
	Dir  string
	File string
	Name string

	// Ranges are the code ranges of the function, Size their total unless
	// exclusive sizes are enabled. Start is the lowest address of the first
	// range.
	Ranges [][2]uint64
	Start  uint64
	Size   uint64
	// Parent indexes the contribution of the nearest enclosing function,
	// -1 at the top level.
	Parent int
}

// Key builds the source part of the contributor key for c.
func (c *Contribution) Key(cfg *config.Config) contrib.Key {
	var k contrib.Key
	if cfg.CompilationUnits {
		k = append(k, c.Unit)
	}
	if cfg.SplitPaths {
		k = append(k, contrib.SplitPath(c.Dir)...)
		k = append(k, c.File)
	} else {
		k = append(k, joinPath(c.Dir, c.File))
	}
	if !cfg.FilesOnly {
		k = append(k, functionPrefix+c.Name)
	}
	return k
}

func joinPath(dir, file string) string {
	switch {
	case dir == "":
		return file
	case strings.HasSuffix(dir, "/"):
		return dir + file
	}
	return dir + "/" + file
}

// Stats counts the function entries that could not be attributed.
type Stats struct {
	Functions int
	NoSize    int
	NoName    int
	NoFile    int
}

func (s *Stats) add(o Stats) {
	s.Functions += o.Functions
	s.NoSize += o.NoSize
	s.NoName += o.NoName
	s.NoFile += o.NoFile
}

// Result is the outcome of walking a Program.
type Result struct {
	Contributions []Contribution
	Warnings      []*contrib.Inconsistency
	Stats         Stats
}

// Walk emits one contribution for every sized and named function entry in
// p. Units are walked concurrently up to cfg.Jobs; the result is in unit
// order regardless.
func Walk(cfg *config.Config, p *Program) *Result {
	res := NewResolver(p)
	parts := make([]*Result, len(p.Units))

	var g errgroup.Group
	g.SetLimit(cfg.Workers())
	for i, u := range p.Units {
		i, u := i, u
		g.Go(func() error {
			parts[i] = walkUnit(cfg, res, u)
			return nil
		})
	}
	_ = g.Wait()

	out := &Result{}
	for _, part := range parts {
		base := len(out.Contributions)
		for _, c := range part.Contributions {
			if c.Parent >= 0 {
				c.Parent += base
			}
			out.Contributions = append(out.Contributions, c)
		}
		out.Warnings = append(out.Warnings, part.Warnings...)
		out.Stats.add(part.Stats)
	}
	if out.Stats.NoSize+out.Stats.NoName > 0 {
		slog.Debug("skipped function entries",
			"functions", out.Stats.Functions,
			"no_size", out.Stats.NoSize,
			"no_name", out.Stats.NoName,
			"no_file", out.Stats.NoFile)
	}
	return out
}

type frame struct {
	depth    int
	idx      int
	children uint64
}

func walkUnit(cfg *config.Config, res *Resolver, u *Unit) *Result {
	out := &Result{}
	unitName := u.Name
	if unitName == "" {
		unitName = contrib.UnknownUnit
	}

	// Open ancestors that emitted a contribution, innermost last.
	var stack []frame
	pop := func() {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cfg.ExclusiveSizes {
			out.exclude(f)
		}
	}

	for i := range u.Entries {
		e := &u.Entries[i]
		for len(stack) > 0 && stack[len(stack)-1].depth >= e.Depth {
			pop()
		}
		if !e.IsFunc() {
			continue
		}
		out.Stats.Functions++

		name, linkage := res.Names(u, e)
		name, named := demangle.Display(name, linkage, cfg.RawSymbols)
		if e.SizeErr != nil {
			out.Stats.NoSize++
			var uerr *UnderflowError
			if errors.As(e.SizeErr, &uerr) {
				where := fmt.Sprintf("entry %#x", e.Offset)
				if named {
					where = functionPrefix + name
				}
				out.Warnings = append(out.Warnings, &contrib.Inconsistency{
					Kind:  contrib.SizeUnderflow,
					Where: where,
					Limit: uerr.Low,
					Got:   uerr.High,
				})
			}
			continue
		}
		if !named {
			out.Stats.NoName++
			continue
		}
		loc, ok := res.Location(u, e)
		if !ok {
			out.Stats.NoFile++
		}

		c := Contribution{
			Unit:   unitName,
			Dir:    loc.Dir,
			File:   loc.File,
			Name:   name,
			Ranges: e.Ranges,
			Size:   e.Size,
			Parent: -1,
		}
		if len(e.Ranges) > 0 {
			c.Start = e.Ranges[0][0]
		}
		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			top.children += e.Size
			c.Parent = top.idx
		}
		out.Contributions = append(out.Contributions, c)
		stack = append(stack, frame{depth: e.Depth, idx: len(out.Contributions) - 1})
	}
	for len(stack) > 0 {
		pop()
	}
	return out
}

// exclude removes the bytes of nested functions from the function that
// contains them.
func (r *Result) exclude(f frame) {
	c := &r.Contributions[f.idx]
	if f.children > c.Size {
		r.Warnings = append(r.Warnings, &contrib.Inconsistency{
			Kind:  contrib.ChildOvershoot,
			Where: functionPrefix + c.Name,
			Limit: c.Size,
			Got:   f.children,
		})
		c.Size = 0
		return
	}
	c.Size -= f.children
}
