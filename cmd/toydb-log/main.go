package main

import (
	"fmt"
	"os"

	"github.com/jacksonyoudi/toydb/internal/cmd/logtool"
)

func main() {
	if err := logtool.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
