// Command hybrid-rag answers questions from a vector and a graph knowledge
// base, either once from the command line or as an HTTP service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
// Panics are reported with their stack trace instead of crashing, and
// returned errors with their chain of wrapped causes.
func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "Error: %v\n%s", r, debug.Stack())
			code = 1
		}
	}()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// printError writes err followed by each error it wraps, outermost first
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\nTrace:\n", err)
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(w, "  %d: %T: %v\n", depth, err, err)
		err = errors.Unwrap(err)
	}
}
