// Package test builds native and synthetic artifacts for package tests.
package test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

var tmpDir string

// Build compiles fixtures/<name>.go into a native binary carrying DWARF
// and returns its path. Run must wrap the test binary.
func Build(name string) string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		fmt.Fprintln(os.Stderr, "cannot find source file")
		os.Exit(1)
	}

	fixt := filepath.Join(filepath.Dir(filename), "fixtures", name+".go")
	binary := filepath.Join(tmpDir, name)

	flags := []string{"build", "-gcflags=all=-N -l", "-ldflags=-compressdwarf=false", "-o", binary, fixt}

	cmd := exec.Command("go", flags...)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to build test binary: ", err)
		fmt.Fprintln(os.Stderr, string(out))
		os.Exit(1)
	}
	return binary
}

func Run(m *testing.M) int {
	var err error
	tmpDir, err = os.MkdirTemp("", "wasmphobia-")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)
	return code
}

// Dir returns the temporary directory shared by the tests of a package.
func Dir() string {
	return tmpDir
}
