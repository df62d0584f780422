package main

import (
	"fmt"
	"os"

	"github.com/surma/wasmphobia/internal/cli"
	"github.com/surma/wasmphobia/internal/watch"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: wasmphobia <analyze|watch> [flags] <input>...")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		cli.Run(os.Args[2:])
	case "watch":
		watch.Run(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", os.Args[1])
		os.Exit(1)
	}
}
