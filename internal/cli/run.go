// Package cli implements the analyze command.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/config"
	"github.com/surma/wasmphobia/internal/contrib"
	"github.com/surma/wasmphobia/internal/format"
	"github.com/surma/wasmphobia/internal/render"
)

// ExitSuspect is the exit status of a strict run with inconsistent
// numbers.
const ExitSuspect = 2

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

func Run(args []string) {
	f := flag.NewFlagSet("analyze", flag.ExitOnError)
	a, err := Parse(f, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	SetupLogging(a.Verbose)

	code, err := Execute(a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(code)
}

// SetupLogging installs the process wide logger on stderr.
func SetupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Execute analyzes and renders the inputs of a and returns the exit
// status.
func Execute(a *Args) (int, error) {
	an, err := Analyze(a.Config, a.Inputs)
	if err != nil {
		return 1, err
	}
	if err := Emit(a, an); err != nil {
		return 1, err
	}
	if a.Strict && an.Suspect() {
		return ExitSuspect, nil
	}
	return 0, nil
}

// Analyze attributes every input and merges the results.
func Analyze(cfg *config.Config, inputs []string) (*contrib.Analysis, error) {
	out := contrib.NewAnalysis(0)
	for _, in := range inputs {
		data, err := ReadInput(in)
		if err != nil {
			return nil, err
		}
		a, err := format.Analyze(cfg, data)
		if err != nil {
			return nil, errors.Wrap(err, in)
		}
		slog.Debug("analyzed input", "input", in, "size", a.Size, "entries", len(a.Contributors))
		out.Merge(a)
	}
	return out, nil
}

// ReadInput reads the named file, or stdin for "-".
func ReadInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "reading stdin")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrap(err, "reading input")
}

// Emit logs the warnings of an and renders its contributors to the output
// of a.
func Emit(a *Args, an *contrib.Analysis) error {
	for _, w := range an.Warnings {
		slog.Warn("size attribution is inconsistent",
			"kind", w.Kind.String(),
			"where", w.Where,
			"limit", w.Limit,
			"got", w.Got)
	}

	opts := render.Options{Threshold: a.Threshold, Title: a.title()}
	if a.Output == "-" || a.Output == "" {
		return render.Write(stdout, a.Format, an.Contributors, opts)
	}

	f, err := os.Create(a.Output)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	if err := render.Write(f, a.Format, an.Contributors, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
