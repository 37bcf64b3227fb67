// Command quillc drives the compiler core from the shell: one subcommand
// per pass-manager stop point (lex, parse, check, print-ast), backed by a
// single cobra root command.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
