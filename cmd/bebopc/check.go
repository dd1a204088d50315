package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bebopkit/bebopc/pkg/compiler"
)

var checkCmd = &cobra.Command{
	Use:   "check <schema-file>...",
	Short: "Validate schema files without generating code",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringSlice("import-dir", nil, "directory to search for imported schemas (can be repeated)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	importDirs, _ := cmd.Flags().GetStringSlice("import-dir")

	sources, ok := loadSources(args, importDirs)
	if !ok {
		return fmt.Errorf("check failed")
	}

	compiled, diags := compiler.Compile(sources)
	printDiagnostics(sources, diags)
	if compiled == nil {
		return fmt.Errorf("check failed")
	}

	for _, path := range args {
		fmt.Printf("Valid: %s\n", path)
	}
	return nil
}
