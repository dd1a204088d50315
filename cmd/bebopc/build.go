package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bebopkit/bebopc/pkg/codegen"
	"github.com/bebopkit/bebopc/pkg/compiler"
	"github.com/bebopkit/bebopc/pkg/schema"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile schemas and run a code generator",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringSlice("schema", nil, "schema file to compile (can be repeated)")
	buildCmd.Flags().String("generator", "", "code generator to run")
	buildCmd.Flags().String("out-dir", ".", "output directory")
	buildCmd.Flags().StringSlice("import-dir", nil, "directory to search for imported schemas (can be repeated)")
	_ = buildCmd.MarkFlagRequired("schema")
	_ = buildCmd.MarkFlagRequired("generator")
}

func runBuild(cmd *cobra.Command, args []string) error {
	schemaPaths, _ := cmd.Flags().GetStringSlice("schema")
	generatorName, _ := cmd.Flags().GetString("generator")
	outDir, _ := cmd.Flags().GetString("out-dir")
	importDirs, _ := cmd.Flags().GetStringSlice("import-dir")

	gen, ok := codegen.Get(generatorName)
	if !ok {
		return fmt.Errorf("unknown generator %q (available: %s)",
			generatorName, strings.Join(codegen.Names(), ", "))
	}

	sources, ok := loadSources(schemaPaths, importDirs)
	if !ok {
		return fmt.Errorf("build failed")
	}

	compiled, diags := compiler.Compile(sources)
	printDiagnostics(sources, diags)
	if compiled == nil {
		return fmt.Errorf("build failed")
	}
	log.Debugf("compiled %d definitions from %d sources", len(compiled.Definitions()), len(sources))

	output, err := gen.Emit(compiled)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	base := filepath.Base(schemaPaths[0])
	base = strings.TrimSuffix(base, filepath.Ext(base))
	outputFile := filepath.Join(outDir, base+"."+gen.Name())
	if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := gen.WriteAuxiliaryFiles(outDir); err != nil {
		return fmt.Errorf("writing auxiliary files: %w", err)
	}

	log.Debugf("wrote %s", outputFile)
	fmt.Printf("Generated: %s\n", outputFile)
	return nil
}

// loadSources gathers schema sources and their imports from disk.
func loadSources(paths, importDirs []string) ([]schema.Source, bool) {
	loader := schema.NewLoader(importDirs...)
	sources, errs := loader.Load(paths...)
	for _, err := range errs {
		fmt.Fprintln(os.Stderr, err)
	}
	return sources, len(errs) == 0
}

// printDiagnostics renders diagnostics to stderr in
// file:line:col: kind: message form.
func printDiagnostics(sources []schema.Source, diags []schema.Diagnostic) {
	for _, line := range schema.RenderDiagnostics(sources, diags) {
		fmt.Fprintln(os.Stderr, line)
	}
}
