package format

import (
	"debug/dwarf"
	"encoding/base64"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/test"
)

func TestMain(m *testing.M) {
	os.Exit(test.Run(m))
}

func flatConfig() *config.Config {
	return &config.Config{Jobs: 1}
}

func wasmWithDWARF(codeSize int, d *test.DWARF) []byte {
	secs := append([]test.WasmSection{test.Code(codeSize)}, test.DebugSections(d.Sections())...)
	return test.Wasm(secs...)
}

func srcUnit(entries ...*test.DIE) *test.Unit {
	return &test.Unit{
		Name:    "a.c",
		CompDir: "/build",
		Dirs:    []string{"/src"},
		Files:   []test.LineFile{{Name: "a.c", Dir: 1}, {Name: "b.h", Dir: 1}},
		Entries: entries,
	}
}

func TestWasmAttribution(t *testing.T) {
	d := &test.DWARF{Units: []*test.Unit{srcUnit(test.Func("foo", 10, 30, 1))}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{
		"code;/src/a.c;@function: foo": 30,
		"code;<no mapping info>":       70,
	}, a.Contributors)
	assert.Empty(t, a.Warnings)
}

var wasmKeyTests = []struct {
	cfg  config.Config
	want string
}{
	{config.Config{SplitPaths: true}, "code;src;a.c;@function: foo"},
	{config.Config{FilesOnly: true}, "code;/src/a.c"},
	{config.Config{CompilationUnits: true}, "code;a.c;/src/a.c;@function: foo"},
	{config.Config{CompilationUnits: true, SplitPaths: true, FilesOnly: true}, "code;a.c;src;a.c"},
}

func TestWasmKeyLayout(t *testing.T) {
	for i, tc := range wasmKeyTests {
		d := &test.DWARF{Units: []*test.Unit{srcUnit(test.Func("foo", 10, 30, 1))}}
		a, err := Analyze(&tc.cfg, wasmWithDWARF(100, d))
		require.NoError(t, err, "test #%d", i)
		assert.Equal(t, uint64(30), a.Contributors[tc.want], "test #%d", i)
	}
}

func TestWasmRetainDebugSections(t *testing.T) {
	d := &test.DWARF{Units: []*test.Unit{srcUnit(test.Func("foo", 10, 30, 1))}}
	secs := d.Sections()

	cfg := flatConfig()
	cfg.RetainDebugSections = true
	a, err := Analyze(cfg, wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(secs[".debug_info"])), a.Contributors[".debug_info;<no mapping info>"])
}

func inlineProgram() *test.DWARF {
	abstract := &test.DIE{
		Tag:   dwarf.TagSubprogram,
		Attrs: []test.Attr{test.Name("inl"), test.DeclFile(2), test.Inline()},
	}
	outer := test.Func("outer", 0, 40, 1)
	outer.Children = []*test.DIE{test.Inlined(abstract, 10, 8)}
	return &test.DWARF{Units: []*test.Unit{srcUnit(abstract, outer)}}
}

func TestAbstractOriginFile(t *testing.T) {
	a, err := Analyze(flatConfig(), wasmWithDWARF(100, inlineProgram()))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{
		"code;/src/a.c;@function: outer": 40,
		"code;/src/b.h;@function: inl":   8,
		"code;<no mapping info>":         52,
	}, a.Contributors)
}

func TestExclusiveSizes(t *testing.T) {
	cfg := flatConfig()
	cfg.ExclusiveSizes = true
	a, err := Analyze(cfg, wasmWithDWARF(100, inlineProgram()))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{
		"code;/src/a.c;@function: outer": 32,
		"code;/src/b.h;@function: inl":   8,
		"code;<no mapping info>":         60,
	}, a.Contributors)
}

func TestUnitsShareHeader(t *testing.T) {
	unit := func(name string, low uint64) *test.Unit {
		return &test.Unit{
			Name:    name,
			CompDir: "/build",
			Dirs:    []string{"/src"},
			Files:   []test.LineFile{{Name: "util.h", Dir: 1}},
			Entries: []*test.DIE{test.Func("helper", low, 10, 1)},
		}
	}
	d := &test.DWARF{Units: []*test.Unit{unit("a.c", 0), unit("b.c", 20)}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), a.Contributors["code;/src/util.h;@function: helper"])
	assert.Equal(t, uint64(80), a.Contributors["code;<no mapping info>"])
}

func TestCrossUnitOrigin(t *testing.T) {
	abstract := &test.DIE{
		Tag:   dwarf.TagSubprogram,
		Attrs: []test.Attr{test.Name("shared"), test.DeclFile(2), test.Inline()},
	}
	inl := &test.DIE{
		Tag: dwarf.TagInlinedSubroutine,
		Attrs: []test.Attr{
			test.OriginAddr(abstract),
			test.LowPC(50),
			{Attr: dwarf.AttrHighpc, Form: test.FormData4, Val: uint64(6)},
		},
	}
	caller := test.Func("caller", 40, 20, 1)
	caller.Children = []*test.DIE{inl}
	d := &test.DWARF{Units: []*test.Unit{srcUnit(abstract), srcUnit(caller)}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(6), a.Contributors["code;/src/b.h;@function: shared"])
}

func TestCyclicOriginTerminates(t *testing.T) {
	loop := test.Func("loop", 0, 10, 0)
	loop.Attrs = append(loop.Attrs, test.Origin(loop))
	d := &test.DWARF{Units: []*test.Unit{srcUnit(loop)}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), a.Contributors["code;<unknown dir>/<unknown file>;@function: loop"])
}

func TestRangesTakePrecedence(t *testing.T) {
	d := &test.DWARF{}
	rl := d.RangeList([2]uint64{10, 20}, [2]uint64{30, 35})
	f := &test.DIE{
		Tag: dwarf.TagSubprogram,
		Attrs: []test.Attr{
			test.Name("f"),
			test.LowPC(0),
			{Attr: dwarf.AttrHighpc, Form: test.FormData4, Val: uint64(90)},
			test.Ranges(rl),
			test.DeclFile(1),
		},
	}
	d.Units = []*test.Unit{srcUnit(f)}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(15), a.Contributors["code;/src/a.c;@function: f"])
	assert.Equal(t, uint64(85), a.Contributors["code;<no mapping info>"])
}

func TestAbsoluteHighPC(t *testing.T) {
	f := &test.DIE{
		Tag:   dwarf.TagSubprogram,
		Attrs: []test.Attr{test.Name("f"), test.LowPC(20), test.HighPC(44), test.DeclFile(1)},
	}
	d := &test.DWARF{Units: []*test.Unit{srcUnit(f)}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(24), a.Contributors["code;/src/a.c;@function: f"])
}

func TestOutOfSectionFunction(t *testing.T) {
	d := &test.DWARF{Units: []*test.Unit{srcUnit(test.Func("far", 1000, 4, 1))}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), a.Contributors["<unknown section>;/src/a.c;@function: far"])
	assert.Equal(t, uint64(100), a.Contributors["code;<no mapping info>"])
}

func TestSectionOvershootWarns(t *testing.T) {
	d := &test.DWARF{Units: []*test.Unit{srcUnit(
		test.Func("a", 0, 8, 1),
		test.Func("b", 0, 8, 1),
	)}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(10, d))
	require.NoError(t, err)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, contrib.SectionOvershoot, a.Warnings[0].Kind)
	assert.Equal(t, "code", a.Warnings[0].Where)
	_, ok := a.Contributors["code;<no mapping info>"]
	assert.False(t, ok)
}

func TestComponentNestedModule(t *testing.T) {
	d := &test.DWARF{Units: []*test.Unit{srcUnit(test.Func("foo", 10, 30, 1))}}
	core := wasmWithDWARF(100, d)
	data := test.WasmComponent(test.WasmSection{ID: 1, Payload: core})

	a, err := Analyze(flatConfig(), data)
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{
		"code;/src/a.c;@function: foo": 30,
		"code;<no mapping info>":       70,
	}, a.Contributors)
}

func TestSizeUnderflowWarns(t *testing.T) {
	f := &test.DIE{
		Tag:   dwarf.TagSubprogram,
		Attrs: []test.Attr{test.Name("f"), test.LowPC(40), test.HighPC(20), test.DeclFile(1)},
	}
	d := &test.DWARF{Units: []*test.Unit{srcUnit(f)}}

	a, err := Analyze(flatConfig(), wasmWithDWARF(100, d))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{"code;<no mapping info>": 100}, a.Contributors)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, contrib.SizeUnderflow, a.Warnings[0].Kind)
	assert.Equal(t, "@function: f", a.Warnings[0].Where)
	assert.True(t, a.Suspect())
}

func TestELFRelocatableObject(t *testing.T) {
	d := &test.DWARF{
		AddrSize: 8,
		Units:    []*test.Unit{srcUnit(test.Func("foo", 10, 30, 1))},
	}

	a, err := Analyze(flatConfig(), test.ELFObject(100, 64, d.Sections()))
	require.NoError(t, err)
	assert.Equal(t, uint64(30), a.Contributors[".text;/src/a.c;@function: foo"])
	assert.Equal(t, uint64(70), a.Contributors[".text;<no mapping info>"])
	assert.Equal(t, uint64(64), a.Contributors[".data;<no mapping info>"])
	for k := range a.Contributors {
		assert.False(t, strings.HasPrefix(k, contrib.UnknownSection), k)
		assert.False(t, strings.HasPrefix(k, ".debug") || strings.HasPrefix(k, ".rela"), k)
	}
	assert.Empty(t, a.Warnings)
}

func TestWasmWithoutDebugInfo(t *testing.T) {
	data := test.Wasm(test.Code(16), test.Custom("name", []byte{1, 2, 3}))

	a, err := Analyze(flatConfig(), data)
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{
		"code;<no mapping info>": 16,
		"name;<no mapping info>": 3,
	}, a.Contributors)
}

func TestMachOAttribution(t *testing.T) {
	d := &test.DWARF{
		AddrSize: 8,
		Units:    []*test.Unit{srcUnit(test.Func("foo", test.MachOTextAddr+10, 30, 1))},
	}

	a, err := Analyze(flatConfig(), test.MachO(100, d.Sections()))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{
		"__TEXT,__text;/src/a.c;@function: foo": 30,
		"__TEXT,__text;<no mapping info>":       70,
	}, a.Contributors)
}

func TestNativeBinary(t *testing.T) {
	data, err := os.ReadFile(test.Build("sizes"))
	require.NoError(t, err)

	cfg := flatConfig()
	cfg.SplitPaths = true
	a, err := Analyze(cfg, data)
	require.NoError(t, err)

	var found bool
	for k, v := range a.Contributors {
		if strings.HasSuffix(k, ";@function: main.large") {
			found = true
			assert.NotZero(t, v)
			assert.True(t, strings.HasPrefix(k, ".text;") || strings.HasPrefix(k, "__TEXT,__text;"), k)
		}
	}
	assert.True(t, found)
}

const testMap = `{"version":3,"sources":["s0","s1"],"names":[],"mappings":"AAAA,KAAA;ACAA"}`

func TestSourceMapFormats(t *testing.T) {
	a, err := Analyze(flatConfig(), []byte(testMap))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{"s0": 5, "s1": 0}, a.Contributors)
	assert.Zero(t, a.Size)

	js := "console.log(1);\n//# sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(testMap)) + "\n"
	a, err = Analyze(flatConfig(), []byte(js))
	require.NoError(t, err)
	assert.Equal(t, contrib.Map{"s0": 5, "s1": 0}, a.Contributors)
	assert.Equal(t, uint64(len(js)), a.Size)
}

func TestRawSourceMapSizeUnknown(t *testing.T) {
	raw := `{"version":3,"sources":["s0"],"names":[],"mappings":"AAAA,ggIAAA"}`

	a, err := Analyze(flatConfig(), []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), a.Contributors.Total())
	assert.Empty(t, a.Warnings)

	js := "x;\n//# sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(raw)) + "\n"
	a, err = Analyze(flatConfig(), []byte(js))
	require.NoError(t, err)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, contrib.InputOvershoot, a.Warnings[0].Kind)
	assert.Equal(t, uint64(len(js)), a.Warnings[0].Limit)
}

var detectTests = []struct {
	data string
	want string
}{
	{"\x00asm\x01\x00\x00\x00", "Wasm"},
	{"\xcf\xfa\xed\xfe", "Mach-O"},
	{"\x7fELF", "ELF"},
	{testMap, "SourceMap"},
	{"  \n" + testMap, "SourceMap"},
	{"x;\n//# sourceMappingURL=data:application/json;base64,eyJ9", "Embedded SourceMap"},
	{"hello", ""},
	{"", ""},
}

func TestDetect(t *testing.T) {
	for i, test := range detectTests {
		f := Detect([]byte(test.data))
		if test.want == "" {
			assert.Nil(t, f, "test #%d", i)
			continue
		}
		require.NotNil(t, f, "test #%d", i)
		assert.Equal(t, test.want, f.Name(), "test #%d", i)
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := Analyze(flatConfig(), []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestErrorsCarryFormatName(t *testing.T) {
	_, err := Analyze(flatConfig(), []byte("\x00asm\x01\x00\x00\x00\x0a\x05"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Wasm: "), err.Error())
}

var debugNameTests = []struct {
	name string
	want bool
}{
	{".debug_info", true},
	{".zdebug_line", true},
	{".rela.debug_info", true},
	{".rel.debug_line", true},
	{".text", false},
	{".rela.text", false},
	{".relro", false},
}

func TestIsDebugName(t *testing.T) {
	for i, test := range debugNameTests {
		assert.Equal(t, test.want, isDebugName(test.name), "test #%d", i)
	}
}
