package main

import (
	"fmt"
	"os"

	"dotconf/cmd/dotconf"
)

func main() {
	rootCmd := dotconf.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, dotconf.FormatError(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
