package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bebopkit/bebopc/pkg/schema"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [-w] <schema-file>...",
	Short: "Format schema files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFmt,
}

func init() {
	fmtCmd.Flags().BoolP("write", "w", false, "write result to (source) file instead of stdout")
}

func runFmt(cmd *cobra.Command, args []string) error {
	write, _ := cmd.Flags().GetBool("write")

	hadErrors := false
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
			hadErrors = true
			continue
		}
		text := string(content)

		sm := schema.NewSourceMap()
		id := sm.AddFile(path, text)
		var diags schema.Diagnostics
		file := schema.Parse(sm, id, &diags)
		if diags.HasErrors() {
			for _, d := range diags.All() {
				fmt.Fprintln(os.Stderr, d.Format(sm))
			}
			hadErrors = true
			continue
		}

		formatted := schema.Format(file)
		if write {
			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "error writing %s: %v\n", path, err)
				hadErrors = true
				continue
			}
			fmt.Printf("Formatted: %s\n", path)
		} else {
			fmt.Print(formatted)
		}
	}

	if hadErrors {
		return fmt.Errorf("fmt failed")
	}
	return nil
}
