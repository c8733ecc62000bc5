// Command analyzer runs parliamentary speech analytics: topic assignment,
// the pluggable analysis units and per-source JSON export.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
