package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/lexer"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func newLexCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lex <file>",
		Short: "tokenize a source file and print each token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sink := diag.NewSink()
			lx := lexer.Open(source.New(args[0], data), sink)
			defer lx.Close()
			for {
				tok := lx.Next()
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tok.Pos, tok.Kind)
				if tok.Kind == token.EOF {
					break
				}
			}
			printDiagnostics(cmd.ErrOrStderr(), sink.All(), flags.noColor)
			if sink.HasErrors() {
				return fmt.Errorf("lexing failed")
			}
			return nil
		},
	}
}
