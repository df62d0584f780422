// Package demangle turns C++ and Rust linkage names into readable names.
package demangle

import (
	"github.com/ianlancetaylor/demangle"
)

// Symbol returns the demangled form of name. When name is not a mangled
// symbol, or demangling fails, name is returned unchanged and ok is false.
func Symbol(name string) (s string, ok bool) {
	s, err := demangle.ToString(name, demangle.NoClones)
	if err != nil {
		return name, false
	}
	return s, true
}

// Display picks the name shown for a function. Linkage names are
// demangled unless raw is set; the plain name is the fallback. ok is false
// when the function has no name at all.
func Display(name, linkage string, raw bool) (string, bool) {
	switch {
	case linkage != "" && raw:
		return linkage, true
	case linkage != "":
		if s, ok := Symbol(linkage); ok {
			return s, true
		}
		if name != "" {
			return name, true
		}
		return linkage, true
	case name != "":
		return name, true
	}
	return "", false
}
