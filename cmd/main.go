package main

import (
	"fmt"
	"os"
)

// Version is overwritten at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
