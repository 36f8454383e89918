package main

import (
	"fmt"
	"os"

	"github.com/zeu5/hedge-rl/benchmarks"
)

// main entry point to training, evaluation and serving
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
