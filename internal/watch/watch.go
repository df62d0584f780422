// Package watch re-runs the analysis whenever an input changes.
package watch

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/surma/wasmphobia/internal/cli"
)

func Run(args []string) {
	f := flag.NewFlagSet("watch", flag.ExitOnError)
	a, err := Parse(f, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cli.SetupLogging(a.cliArgs.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Serve analyzes the inputs once and again after every change until ctx
// is done. Failed analyses are logged and do not stop watching.
func Serve(ctx context.Context, a *Args) error {
	w, err := NewWatcher(a.cliArgs.Inputs)
	if err != nil {
		return err
	}
	defer w.Close()

	analyze := func() {
		code, err := cli.Execute(a.cliArgs)
		if err != nil {
			slog.Error("analysis failed", "err", err)
			return
		}
		slog.Info("analysis updated", "output", a.cliArgs.Output, "suspect", code == cli.ExitSuspect)
	}
	analyze()
	return w.Run(ctx, a.debounce, analyze)
}

// Watcher reports changes to a fixed set of files. The parent directories
// are watched so files replaced by rename are still seen.
type Watcher struct {
	w       *fsnotify.Watcher
	targets map[string]bool
}

func NewWatcher(paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating watcher")
	}
	w := &Watcher{w: fw, targets: make(map[string]bool)}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "resolving %s", p)
		}
		w.targets[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "watching %s", dir)
		}
	}
	return w, nil
}

func (w *Watcher) Close() error {
	return w.w.Close()
}

// Run calls onChange once per burst of writes to the watched files,
// debounce after the last one, until ctx is done.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onChange func()) error {
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if !w.targets[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			slog.Debug("input changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}
		case <-fire:
			onChange()
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		}
	}
}
