// Package declgrammar parses the `#pragma requires <semver>` directive
// line. Unlike the rest of quillc's front end, this one
// line of grammar is naturally a tiny independent grammar rather than
// part of the main recursive-descent parser, so it's built with
// participle/v2 the way tadl's own small standalone grammars are,
// instead of another hand-rolled recursive-descent function.
package declgrammar

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Pragma is the parsed form of one `#pragma requires <semver>` line.
type Pragma struct {
	Version string `parser:"Hash Pragma Requires @Version"`
}

var pragmaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Hash", Pattern: `#`},
	{Name: "Pragma", Pattern: `pragma`},
	{Name: "Requires", Pattern: `requires`},
	{Name: "Version", Pattern: `v?[0-9]+\.[0-9]+\.[0-9]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[Pragma](
	participle.Lexer(pragmaLexer),
	participle.Elide("Whitespace"),
)

// Parse parses one source line already known to start with "#pragma" into
// its directive form. The caller (internal/lexer) is responsible for
// recognizing that a line is a pragma candidate in the first place;
// Parse only reports whether that candidate is well-formed.
func Parse(line string) (*Pragma, error) {
	p, err := parser.ParseString("", line)
	if err != nil {
		return nil, fmt.Errorf("declgrammar: malformed pragma directive: %w", err)
	}
	return p, nil
}
