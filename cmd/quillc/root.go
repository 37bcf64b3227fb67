package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quill-lang/quillc/internal/compiler"
)

// globalFlags holds the flags shared by every subcommand, parsed once on
// the root command and read from there by each subcommand's RunE.
type globalFlags struct {
	verbosity        string
	release          bool
	astPrintWidth    int
	checkTree        bool
	allowTestSymbols bool
	noColor          bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "quillc",
		Short:         "quillc compiles Quill source through the front-end pass pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flags.verbosity, "verbosity", "minimal", "logging volume: minimal, tool-info, or info")
	root.PersistentFlags().BoolVar(&flags.release, "release", false, "enable release-mode platform conditionals")
	root.PersistentFlags().IntVar(&flags.astPrintWidth, "ast-print-width", 80, "column width for AST dumps")
	root.PersistentFlags().BoolVar(&flags.checkTree, "check-tree", false, "run the tree-invariant checker after every pass")
	root.PersistentFlags().BoolVar(&flags.allowTestSymbols, "allow-test-symbols", false, "enable test-only token ids")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colorized diagnostic output")

	root.AddCommand(
		newLexCmd(flags),
		newParseCmd(flags),
		newCheckCmd(flags),
		newPrintASTCmd(flags),
	)
	return root
}

func verbosityFromFlag(s string) compiler.Verbosity {
	switch s {
	case "info":
		return compiler.Info
	case "tool-info":
		return compiler.ToolInfo
	default:
		return compiler.Minimal
	}
}

// newCompiler builds a Compiler whose logger is configured for the
// requested verbosity: silent at Minimal, otherwise logrus's normal text
// output on stderr so it never interleaves with --print-ast's stdout.
func newCompiler(flags *globalFlags) *compiler.Compiler {
	c := compiler.New()
	if verbosityFromFlag(flags.verbosity) == compiler.Minimal {
		c.Log.SetLevel(logrus.WarnLevel)
	} else {
		c.Log.SetLevel(logrus.InfoLevel)
	}
	return c
}

