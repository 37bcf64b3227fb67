package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quillc/internal/compiler"
	"github.com/quill-lang/quillc/internal/pass"
	"github.com/quill-lang/quillc/internal/source"
)

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "run the full pass pipeline over a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c := newCompiler(flags)
			_, diags := c.CompileProgram(source.New(args[0], data), compiler.Options{
				Limit:            pass.All,
				Verbosity:        verbosityFromFlag(flags.verbosity),
				Release:          flags.release,
				CheckTree:        flags.checkTree,
				AllowTestSymbols: flags.allowTestSymbols,
			})
			printDiagnostics(cmd.ErrOrStderr(), diags, flags.noColor)
			if hasErrors(diags) {
				return fmt.Errorf("check failed")
			}
			return nil
		},
	}
}
