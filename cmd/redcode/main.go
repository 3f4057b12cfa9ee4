package main

import (
	"fmt"
	"os"

	"github.com/redcode-editor/redcode/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
