// Command tablecast converts flat survey-export tables into
// hierarchical XML submissions and optionally uploads them to a
// KoboToolbox server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
