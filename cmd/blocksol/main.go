package main

import (
	"fmt"
	"io"
	"os"

	"github.com/xplshn/blocksol/pkg/block"
	"github.com/xplshn/blocksol/pkg/cli"
	"github.com/xplshn/blocksol/pkg/codegen"
	"github.com/xplshn/blocksol/pkg/config"
	"github.com/xplshn/blocksol/pkg/loader"
	"github.com/xplshn/blocksol/pkg/scope"
	"github.com/xplshn/blocksol/pkg/util"
)

func main() {
	app := cli.NewApp("blocksol")
	app.Synopsis = "[options] <workspace.json>"
	app.Description = "Generates Solidity contract source from a saved block workspace."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/blocksol>"
	app.Since = 2025
	app.MinArgs, app.MaxArgs = 1, 1

	var (
		outFile     string
		pragma      string
		wrap        int
		indent      int
		pedantic    bool
		dumpSymbols bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Write the contract to <file> instead of standard output.", "file")
	fs.String(&pragma, "pragma", "", "^0.4.2", "Compiler version constraint for the pragma line.", "version")
	fs.Int(&wrap, "wrap", "", 60, "Wrap block comments at <width> columns.", "width")
	fs.Int(&indent, "indent", "", 2, "Indent nested code by <n> spaces.", "n")
	fs.Bool(&dumpSymbols, "dump-symbols", "d", false, "Print the symbol table after loading and exit.")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue every warning.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		if pedantic {
			cfg.ApplyFlag("-pedantic")
		}
		if err := cfg.SetPragma(pragma); err != nil {
			util.Error(nil, "%v", err)
		}
		if err := cfg.SetCommentWrap(wrap); err != nil {
			util.Error(nil, "%v", err)
		}
		if err := cfg.SetIndent(indent); err != nil {
			util.Error(nil, "%v", err)
		}

		verbose := outFile != ""
		progress := func(format string, args ...interface{}) {
			if verbose {
				fmt.Printf(format, args...)
			}
		}

		progress("----------------------\n")
		progress("Reading workspace '%s'...\n", inputFiles[0])
		doc, err := loader.ReadFile(inputFiles[0])
		if err != nil {
			util.Error(nil, "could not read workspace: %v", err)
		}
		if err := doc.Configure(cfg); err != nil {
			util.Error(nil, "%v", err)
		}

		progress("Building %d top-level block(s)...\n", len(doc.Blocks))
		ws := block.NewWorkspace()
		scope.New(ws, cfg)
		if err := doc.Build(ws); err != nil {
			util.Error(nil, "could not build workspace: %v", err)
		}

		if dumpSymbols {
			dumpSymbolTable(os.Stdout, ws)
			return nil
		}

		progress("Generating contract source...\n")
		g, err := codegen.New(cfg, codegen.Builtins())
		if err != nil {
			util.Error(nil, "%v", err)
		}
		code, err := g.Generate(ws)
		if err != nil {
			util.Error(nil, "code generation failed: %v", err)
		}

		if outFile == "" || outFile == "-" {
			fmt.Print(code)
			return nil
		}
		progress("Writing '%s'...\n", outFile)
		if err := os.WriteFile(outFile, []byte(code), 0644); err != nil {
			util.Error(nil, "could not write '%s': %v", outFile, err)
		}
		progress("----------------------\n")
		progress("Done!\n")
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func dumpSymbolTable(w io.Writer, ws *block.Workspace) {
	for _, sym := range ws.Symbols().All() {
		fmt.Fprintf(w, "%-12s %-6s %-24s %s\n", sym.ID, sym.Type, sym.DisplayName(), sym.Prefix)
	}
}
