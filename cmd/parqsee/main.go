package main

import (
	"fmt"
	"os"
)

var version = "0.1.0"

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	if closeErr := a.teardown(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
