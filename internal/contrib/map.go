package contrib

import (
	"sort"
)

// Map accumulates byte counts per rendered contributor key.
type Map map[string]uint64

// Add accumulates size under k.
func (m Map) Add(k Key, size uint64) {
	m[k.String()] += size
}

// Merge sums every entry of o into m.
func (m Map) Merge(o Map) {
	for k, v := range o {
		m[k] += v
	}
}

func (m Map) Total() uint64 {
	var t uint64
	for _, v := range m {
		t += v
	}
	return t
}

// Keys returns the keys of m in lexical order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Analysis is the result of analyzing one or more artifacts.
type Analysis struct {
	Contributors Map
	Warnings     []*Inconsistency
	// Size is the byte length of the analyzed input, 0 if unknown.
	Size uint64
}

func NewAnalysis(size uint64) *Analysis {
	return &Analysis{Contributors: make(Map), Size: size}
}

// Warn records an integrity inconsistency.
func (a *Analysis) Warn(i *Inconsistency) {
	a.Warnings = append(a.Warnings, i)
}

// Suspect reports whether the numbers in a may be wrong.
func (a *Analysis) Suspect() bool {
	return len(a.Warnings) > 0
}

// Merge folds o into a. Keys that appear in both are summed.
func (a *Analysis) Merge(o *Analysis) {
	a.Contributors.Merge(o.Contributors)
	a.Warnings = append(a.Warnings, o.Warnings...)
	a.Size += o.Size
}
