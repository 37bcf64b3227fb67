package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quillc/internal/compiler"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/pass"
	"github.com/quill-lang/quillc/internal/source"
)

func newParseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "parse a source file and run the sugar and scope-building passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c := newCompiler(flags)
			_, diags := c.CompileProgram(source.New(args[0], data), compiler.Options{
				Limit:            pass.Scope,
				Verbosity:        verbosityFromFlag(flags.verbosity),
				Release:          flags.release,
				CheckTree:        flags.checkTree,
				AllowTestSymbols: flags.allowTestSymbols,
			})
			printDiagnostics(cmd.ErrOrStderr(), diags, flags.noColor)
			if hasErrors(diags) {
				return fmt.Errorf("parsing failed")
			}
			return nil
		},
	}
}

func hasErrors(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}
