// Package sourcemap decodes version 3 source maps and sizes their tokens.
package sourcemap

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// SourceMap is a decoded version 3 source map.
type SourceMap struct {
	Version    int               `json:"version"`
	File       string            `json:"file"`
	SourceRoot string            `json:"sourceRoot"`
	Sources    []*string         `json:"sources"`
	Names      []string          `json:"names"`
	Mappings   string            `json:"mappings"`
	Sections   []json.RawMessage `json:"sections"`
}

// Token is one mapping of a generated position. Source is -1 when the
// token does not reference a source.
type Token struct {
	Line   uint32
	Column uint32
	Source int
}

// Parse decodes a source map.
func Parse(data []byte) (*SourceMap, error) {
	var m SourceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decoding source map")
	}
	if len(m.Sections) > 0 {
		return nil, errors.New("indexed source maps are not supported")
	}
	if m.Version != 3 {
		return nil, errors.Errorf("unsupported source map version %d", m.Version)
	}
	return &m, nil
}

// Source returns the path of source i with the source root applied, or
// false when i does not name a source.
func (m *SourceMap) Source(i int) (string, bool) {
	if i < 0 || i >= len(m.Sources) || m.Sources[i] == nil {
		return "", false
	}
	src := *m.Sources[i]
	if m.SourceRoot == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "/") {
		return src, true
	}
	return strings.TrimSuffix(m.SourceRoot, "/") + "/" + src, true
}

// Tokens decodes the mappings and returns the tokens sorted by generated
// line and column.
func (m *SourceMap) Tokens() ([]Token, error) {
	var (
		tokens []Token
		source int64
		fields [5]int64
	)
	for line, group := range strings.Split(m.Mappings, ";") {
		var col int64
		for _, seg := range strings.Split(group, ",") {
			if seg == "" {
				continue
			}
			n, err := decodeSegment(seg, fields[:])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			col += fields[0]
			if col < 0 || col > 1<<32-1 {
				return nil, errors.Errorf("line %d: column %d out of range", line, col)
			}
			tok := Token{Line: uint32(line), Column: uint32(col), Source: -1}
			switch n {
			case 1:
			case 4, 5:
				source += fields[1]
				tok.Source = int(source)
			default:
				return nil, errors.Errorf("line %d: segment %q has %d fields", line, seg, n)
			}
			tokens = append(tokens, tok)
		}
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].Column < tokens[j].Column
	})
	return tokens, nil
}

// IsRaw reports whether data looks like a JSON source map.
func IsRaw(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	return len(data) > 0 && data[0] == '{' && bytes.Contains(data, []byte(`"mappings"`))
}
