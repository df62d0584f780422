package render

import (
	"io"

	"github.com/google/pprof/profile"

	"github.com/surma/wasmphobia/internal/contrib"
)

// Profile builds a pprof profile with one sample per entry of m. Key
// segments become the stack, outermost segment at the root.
func Profile(m contrib.Map, opts Options) *profile.Profile {
	p := &profile.Profile{
		SampleType:        []*profile.ValueType{{Type: "space", Unit: "bytes"}},
		DefaultSampleType: "space",
	}
	if opts.Title != "" {
		p.Comments = []string{opts.Title}
	}

	locs := make(map[string]*profile.Location)
	location := func(name string) *profile.Location {
		if l, ok := locs[name]; ok {
			return l
		}
		fn := &profile.Function{ID: uint64(len(p.Function) + 1), Name: name, SystemName: name}
		p.Function = append(p.Function, fn)
		l := &profile.Location{ID: uint64(len(p.Location) + 1), Line: []profile.Line{{Function: fn}}}
		p.Location = append(p.Location, l)
		locs[name] = l
		return l
	}

	for _, k := range entries(m, opts) {
		segs := contrib.Segments(k)
		// pprof stacks are leaf first.
		stack := make([]*profile.Location, 0, len(segs))
		for i := len(segs) - 1; i >= 0; i-- {
			stack = append(stack, location(segs[i]))
		}
		p.Sample = append(p.Sample, &profile.Sample{
			Location: stack,
			Value:    []int64{int64(m[k])},
		})
	}
	return p
}

// Pprof writes m as a gzipped pprof profile.
func Pprof(w io.Writer, m contrib.Map, opts Options) error {
	return Profile(m, opts).Write(w)
}
