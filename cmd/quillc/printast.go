package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quillc/internal/astprint"
	"github.com/quill-lang/quillc/internal/compiler"
	"github.com/quill-lang/quillc/internal/pass"
	"github.com/quill-lang/quillc/internal/source"
)

func newPrintASTCmd(flags *globalFlags) *cobra.Command {
	var limitName string
	cmd := &cobra.Command{
		Use:   "print-ast <file>",
		Short: "run the pass pipeline and dump the resulting tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := pass.All
			if limitName != "" {
				id, ok := pass.ByName(limitName)
				if !ok {
					return fmt.Errorf("unknown pass %q", limitName)
				}
				limit = id
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c := newCompiler(flags)
			prog, diags := c.CompileProgram(source.New(args[0], data), compiler.Options{
				Limit:            limit,
				Verbosity:        verbosityFromFlag(flags.verbosity),
				Release:          flags.release,
				ASTPrintWidth:    flags.astPrintWidth,
				CheckTree:        flags.checkTree,
				AllowTestSymbols: flags.allowTestSymbols,
			})
			if prog != nil {
				if err := astprint.Print(cmd.OutOrStdout(), prog, flags.astPrintWidth); err != nil {
					return err
				}
			}
			printDiagnostics(cmd.ErrOrStderr(), diags, flags.noColor)
			if hasErrors(diags) {
				return fmt.Errorf("compilation failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&limitName, "pass", "", "stop after this pass (default: run all)")
	return cmd
}
