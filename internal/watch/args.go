package watch

import (
	"flag"
	"time"

	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/cli"
)

type Args struct {
	cliArgs *cli.Args

	debounce time.Duration
}

func CreateArgs(f *flag.FlagSet) *Args {
	a := &Args{cliArgs: cli.CreateArgs(f)}
	f.DurationVar(&a.debounce, "debounce", 200*time.Millisecond, "wait this long after a change before analyzing")
	return a
}

// Parse parses args into a new Args. At least one input file is required
// and stdin cannot be watched.
func Parse(f *flag.FlagSet, args []string) (*Args, error) {
	a := CreateArgs(f)
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	a.cliArgs.Inputs = f.Args()
	if len(a.cliArgs.Inputs) == 0 {
		return nil, errors.New("no files to watch")
	}
	for _, in := range a.cliArgs.Inputs {
		if in == "-" {
			return nil, errors.New("cannot watch stdin")
		}
	}
	return a, nil
}
