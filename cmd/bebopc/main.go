// Command bebopc compiles Bebop schema files and drives code generators.
//
// Usage:
//
//	bebopc build --schema <path> --generator <name> --out-dir <path>
//	bebopc check <schema-file>...
//	bebopc fmt [-w] <schema-file>...
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
