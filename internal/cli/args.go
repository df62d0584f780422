package cli

import (
	"flag"
	"strconv"
	"strings"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/render"
)

const (
	envFormat        = "WASMPHOBIA_FORMAT"
	envSizeThreshold = "WASMPHOBIA_SIZE_THRESHOLD"
)

type Args struct {
	Config *config.Config

	Inputs    []string
	Output    string
	Format    string
	Threshold uint64
	Title     string
	Strict    bool
	Verbose   bool
}

func CreateArgs(f *flag.FlagSet) *Args {
	cfg := config.Load()
	a := &Args{Config: cfg}

	threshold, err := strconv.ParseUint(config.Env(envSizeThreshold, "0"), 10, 64)
	if err != nil {
		threshold = 0
	}

	f.StringVar(&a.Output, "o", "-", "output path, - for stdout")
	f.StringVar(&a.Format, "format", config.Env(envFormat, "folded"), "output format ("+strings.Join(render.Formats, ", ")+")")
	f.Uint64Var(&a.Threshold, "size-threshold", threshold, "omit entries smaller than this many bytes")
	f.StringVar(&a.Title, "title", "", "report title, defaults to the input names")
	f.BoolVar(&a.Strict, "strict", false, "exit with status 2 when the numbers are inconsistent")
	f.BoolVar(&a.Verbose, "v", false, "log debug details")

	f.BoolVar(&cfg.RawSymbols, "raw-symbols", cfg.RawSymbols, "show linkage names instead of demangled names")
	f.BoolVar(&cfg.FilesOnly, "files-only", cfg.FilesOnly, "attribute to files, not functions")
	f.BoolVar(&cfg.RetainDebugSections, "show-debug-sections", cfg.RetainDebugSections, "keep debug sections in the output")
	f.BoolVar(&cfg.CompilationUnits, "compilation-units", cfg.CompilationUnits, "group by compilation unit")
	f.BoolVar(&cfg.SplitPaths, "split-paths", cfg.SplitPaths, "split file paths into one level per directory")
	f.BoolVar(&cfg.ExclusiveSizes, "exclusive-sizes", cfg.ExclusiveSizes, "subtract inlined code from the enclosing function")
	f.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "compilation units analyzed in parallel")
	return a
}

// Parse parses args into a new Args. Positional arguments are the inputs;
// none means stdin.
func Parse(f *flag.FlagSet, args []string) (*Args, error) {
	a := CreateArgs(f)
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	a.Inputs = f.Args()
	if len(a.Inputs) == 0 {
		a.Inputs = []string{"-"}
	}
	return a, nil
}

func (a *Args) title() string {
	if a.Title != "" {
		return a.Title
	}
	return strings.Join(a.Inputs, ", ")
}
