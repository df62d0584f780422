package sourcemap

import (
	"github.com/surma/wasmphobia/internal/contrib"
)

// Sizes returns the byte span of each token: the distance to the previous
// token on the same line, or the column itself on a new line. The last
// token of a line is credited with no bytes of its own extent.
func Sizes(tokens []Token) []uint64 {
	sizes := make([]uint64, len(tokens))
	var prevLine, prevCol uint32
	for i, t := range tokens {
		if t.Line == prevLine && t.Column >= prevCol {
			sizes[i] = uint64(t.Column - prevCol)
		} else {
			sizes[i] = uint64(t.Column)
		}
		prevLine, prevCol = t.Line, t.Column
	}
	return sizes
}

// Attribute sizes every token of m and accumulates the sizes per source
// path, one key segment per path component.
func Attribute(m *SourceMap) (contrib.Map, error) {
	tokens, err := m.Tokens()
	if err != nil {
		return nil, err
	}
	out := make(contrib.Map)
	for i, size := range Sizes(tokens) {
		out.Add(sourceKey(m, tokens[i].Source), size)
	}
	return out, nil
}

func sourceKey(m *SourceMap, i int) contrib.Key {
	src, ok := m.Source(i)
	if !ok {
		return contrib.Key{contrib.UnknownFile}
	}
	segs := contrib.SplitPath(src)
	if len(segs) == 0 {
		return contrib.Key{contrib.UnknownFile}
	}
	return contrib.Key(segs)
}
