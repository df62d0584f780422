package debuginfo

import (
	"debug/dwarf"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/surma/wasmphobia/internal/contrib"
)

// maxRefHops bounds abstract origin and specification chains so cyclic
// references terminate.
const maxRefHops = 16

const cacheSize = 4096

// Location is the directory and file an entry was declared in.
type Location struct {
	Dir  string
	File string
}

var unknownLocation = Location{Dir: contrib.UnknownDir, File: contrib.UnknownFile}

// Resolver maps entries to their declaring file and display names. It is
// safe for concurrent use.
type Resolver struct {
	prog *Program
	// refs memoizes the location of referenced entries, which are shared
	// by every inlined copy and out-of-line definition of a function.
	refs *lru.Cache[dwarf.Offset, resolved]
}

type resolved struct {
	loc Location
	ok  bool
}

func NewResolver(p *Program) *Resolver {
	refs, err := lru.New[dwarf.Offset, resolved](cacheSize)
	if err != nil {
		panic(err)
	}
	return &Resolver{prog: p, refs: refs}
}

// Location returns the declaring file of e in u. ok is false when nothing
// could be resolved, in which case the unknown sentinels are returned.
func (r *Resolver) Location(u *Unit, e *Entry) (loc Location, ok bool) {
	loc, ok = r.location(u, e, 0)
	if !ok {
		return unknownLocation, false
	}
	return loc, true
}

func (r *Resolver) location(u *Unit, e *Entry, hops int) (Location, bool) {
	if ref := e.ref(); ref != 0 && hops < maxRefHops {
		if loc, ok := r.refLocation(u, ref, hops+1); ok {
			return loc, true
		}
	}

	f := u.file(e.DeclFile)
	if f == nil {
		return Location{}, false
	}
	dir, file := path.Split(f.Name)
	if dir != "/" {
		dir = strings.TrimSuffix(dir, "/")
	}
	return Location{Dir: NormalizeDir(dir, u.CompDir), File: file}, true
}

func (r *Resolver) refLocation(u *Unit, ref dwarf.Offset, hops int) (Location, bool) {
	if res, hit := r.refs.Get(ref); hit {
		return res.loc, res.ok
	}
	ru, re := r.prog.lookup(u, ref)
	if re == nil {
		r.refs.Add(ref, resolved{})
		return Location{}, false
	}
	loc, ok := r.location(ru, re, hops)
	r.refs.Add(ref, resolved{loc, ok})
	return loc, ok
}

// NormalizeDir places a relative directory under the compilation
// directory. Absolute directories and sentinels are returned unchanged, as
// are directories already below compDir.
func NormalizeDir(dir, compDir string) string {
	if strings.HasPrefix(dir, "/") || strings.HasPrefix(dir, "<") {
		return dir
	}
	if compDir == "" {
		return dir
	}
	if dir == compDir || strings.HasPrefix(dir, strings.TrimSuffix(compDir, "/")+"/") {
		return dir
	}
	return path.Join(compDir, dir)
}

// Names returns the name and linkage name of e, following abstract origin
// and specification references for whichever is missing.
func (r *Resolver) Names(u *Unit, e *Entry) (name, linkage string) {
	name, linkage = e.Name, e.Linkage
	for hops := 0; hops < maxRefHops && (name == "" || linkage == ""); hops++ {
		ref := e.ref()
		if ref == 0 {
			break
		}
		u, e = r.prog.lookup(u, ref)
		if e == nil {
			break
		}
		if name == "" {
			name = e.Name
		}
		if linkage == "" {
			linkage = e.Linkage
		}
	}
	return name, linkage
}
