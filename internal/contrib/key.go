package contrib

import (
	"strings"
)

// Sentinels used in place of missing debug information.
const (
	UnknownDir     = "<unknown dir>"
	UnknownFile    = "<unknown file>"
	UnknownSection = "<unknown section>"
	UnknownUnit    = "<unknown compilation unit>"
	NoMappingInfo  = "<no mapping info>"
)

const sep = ";"

var escaper = strings.NewReplacer("%", "%25", ";", "%3B", "\n", "%0A")

// Key is an ordered list of path segments identifying one attribution
// bucket.
type Key []string

// String joins the escaped segments with the folded-stack delimiter.
func (k Key) String() string {
	var b strings.Builder
	for i, s := range k {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(escaper.Replace(s))
	}
	return b.String()
}

// Append returns a new key with segs added after the receiver's segments.
func (k Key) Append(segs ...string) Key {
	out := make(Key, 0, len(k)+len(segs))
	out = append(out, k...)
	return append(out, segs...)
}

// SplitPath breaks a slash separated path into key segments. Empty and "."
// components are dropped, so absolute and relative spellings of the same
// path produce the same segments.
func SplitPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// Segments splits a rendered key back into its unescaped segments.
func Segments(key string) []string {
	parts := strings.Split(key, sep)
	for i, p := range parts {
		if strings.Contains(p, "%") {
			parts[i] = unescape(p)
		}
	}
	return parts
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			switch s[i+1 : i+3] {
			case "25":
				b.WriteByte('%')
				i += 2
				continue
			case "3B":
				b.WriteByte(';')
				i += 2
				continue
			case "0A":
				b.WriteByte('\n')
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
