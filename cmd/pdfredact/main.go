// Command pdfredact runs one or more job files through the redaction
// pipeline: pdfredact <jobs.yaml> [<jobs.yaml>...]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/graylayer/pdfredact/logging"
	"github.com/graylayer/pdfredact/pipeline"
)

const version = "pdfredact 0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	switch args[0] {
	case "--help", "-h":
		printUsage(os.Stdout)
		return
	case "--version":
		fmt.Println(version)
		return
	}

	if err := logging.Init(os.Getenv("RUST_LOG")); err != nil {
		fmt.Fprintf(os.Stderr, "pdfredact: %v\n", err)
		os.Exit(2)
	}

	os.Exit(pipeline.RunAll(context.Background(), args))
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "usage: pdfredact <jobs.yaml> [<jobs.yaml>...]")
	fmt.Fprintln(w, "       pdfredact --help")
	fmt.Fprintln(w, "       pdfredact --version")
}
