// Command quickjump is a terminal palette for jumping to project files,
// lines, text and symbols, and for running commands.
//
// Usage:
//
//	quickjump [flags] [files...]         open the interactive palette
//	quickjump query [flags] QUERY        evaluate one query and print the results
//	quickjump version                    print version information
package main

import (
	"fmt"
	"io"
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, newStyles(stderr).err.Render("Error: "+err.Error()))
		return 1
	}
	return 0
}
