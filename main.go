package main

import (
	"fmt"
	"os"

	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
