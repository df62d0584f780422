package contrib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var keyTests = []struct {
	key  Key
	want string
}{
	{Key{"code", "/src/a.c", "@function: foo"}, "code;/src/a.c;@function: foo"},
	{Key{"code", NoMappingInfo}, "code;<no mapping info>"},
	{Key{"a;b", "100%"}, "a%3Bb;100%25"},
	{Key{"line\nbreak"}, "line%0Abreak"},
	{Key{}, ""},
}

func TestKeyString(t *testing.T) {
	for i, test := range keyTests {
		assert.Equal(t, test.want, test.key.String(), "test #%d", i)
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	for i, test := range keyTests {
		if len(test.key) == 0 {
			continue
		}
		assert.Equal(t, []string(test.key), Segments(test.key.String()), "test #%d", i)
	}
}

var splitTests = []struct {
	path string
	want []string
}{
	{"/src/a.c", []string{"src", "a.c"}},
	{"src//lib/./x.rs", []string{"src", "lib", "x.rs"}},
	{"webpack:///./index.js", []string{"webpack:", "index.js"}},
	{"", nil},
}

func TestSplitPath(t *testing.T) {
	for i, test := range splitTests {
		assert.Equal(t, test.want, SplitPath(test.path), "test #%d", i)
	}
}

func TestKeyAppendDoesNotAlias(t *testing.T) {
	base := make(Key, 1, 4)
	base[0] = "code"
	a := base.Append("a")
	b := base.Append("b")
	assert.Equal(t, Key{"code", "a"}, a)
	assert.Equal(t, Key{"code", "b"}, b)
}

func TestMapMergeSums(t *testing.T) {
	m := make(Map)
	m.Add(Key{"x", "shared.h"}, 10)

	o := make(Map)
	o.Add(Key{"x", "shared.h"}, 5)
	o.Add(Key{"y"}, 1)

	m.Merge(o)
	assert.Equal(t, Map{"x;shared.h": 15, "y": 1}, m)
	assert.Equal(t, uint64(16), m.Total())
	assert.Equal(t, []string{"x;shared.h", "y"}, m.Keys())
}

func TestAnalysisMerge(t *testing.T) {
	a := NewAnalysis(10)
	a.Contributors.Add(Key{"f"}, 4)
	assert.False(t, a.Suspect())

	b := NewAnalysis(20)
	b.Contributors.Add(Key{"f"}, 6)
	b.Warn(&Inconsistency{Kind: SectionOvershoot, Where: "code", Limit: 1, Got: 2})

	a.Merge(b)
	assert.Equal(t, uint64(30), a.Size)
	assert.Equal(t, uint64(10), a.Contributors["f"])
	assert.True(t, a.Suspect())
	assert.Equal(t, "Section overshoot: code has 2 bytes attributed but only holds 1", a.Warnings[0].Error())
}

var inconsistencyTests = []struct {
	err  *Inconsistency
	want string
}{
	{&Inconsistency{Kind: InputOvershoot, Where: "Wasm input", Limit: 8, Got: 9}, "Input overshoot: Wasm input has 9 bytes attributed but only holds 8"},
	{&Inconsistency{Kind: SizeUnderflow, Where: "@function: f", Limit: 0x40, Got: 0x20}, "Size underflow: @function: f ends at 0x20 before it starts at 0x40"},
}

func TestInconsistencyMessages(t *testing.T) {
	for i, test := range inconsistencyTests {
		assert.Equal(t, test.want, test.err.Error(), "test #%d", i)
	}
}
