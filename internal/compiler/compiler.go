// Package compiler drives one compilation end to end: lex/parse, run the
// pass pipeline up to a configured limit, and hand back the resulting
// tree plus whatever diagnostics were collected along the way. It owns
// the per-compilation string interner and node pool so that no package
// anywhere in this repository keeps process-global mutable state; two
// concurrent Compiler values never share or contend over either.
package compiler

import (
	"github.com/sirupsen/logrus"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/interner"
	"github.com/quill-lang/quillc/internal/parser"
	"github.com/quill-lang/quillc/internal/pass"
	"github.com/quill-lang/quillc/internal/passes/completeness"
	"github.com/quill-lang/quillc/internal/passes/flatten"
	"github.com/quill-lang/quillc/internal/passes/resolve"
	"github.com/quill-lang/quillc/internal/passes/scope"
	"github.com/quill-lang/quillc/internal/passes/sugar"
	"github.com/quill-lang/quillc/internal/passes/traits"
	"github.com/quill-lang/quillc/internal/passes/typer"
	"github.com/quill-lang/quillc/internal/poolalloc"
	"github.com/quill-lang/quillc/internal/prelude"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/status"
)

// Verbosity selects how much progress logging CompileProgram emits
// through the caller's logger; it never affects diagnostics, which
// always go through the returned Sink regardless of this setting.
type Verbosity int

const (
	// Minimal logs nothing but fatal driver errors.
	Minimal Verbosity = iota
	// ToolInfo logs one line per pass entered.
	ToolInfo
	// Info logs the same one line per pass as ToolInfo; no per-entity
	// progress is logged at any level.
	Info
)

// Options configures one compilation.
type Options struct {
	// Limit is the last pass to run; the zero value (pass.Parse) stops
	// right after parsing, and pass.All runs every pass.
	Limit pass.ID
	// Verbosity controls progress logging volume; see Verbosity.
	Verbosity Verbosity
	// Release selects release-mode platform conditionals; carried
	// through to any pass that needs to tell a debug build from a
	// release one.
	Release bool
	// ASTPrintWidth is the column width used when a caller dumps the
	// tree for debugging; it has no effect on compilation itself.
	ASTPrintWidth int
	// CheckTree runs the tree-invariant checker after every pass and
	// reports any violation as a TreeInvariant diagnostic; the remaining
	// passes still run afterwards.
	CheckTree bool
	// AllowTestSymbols enables test-only token ids that the lexer
	// otherwise rejects outside test harnesses.
	AllowTestSymbols bool
}

// DefaultOptions runs the full pipeline at minimal verbosity.
func DefaultOptions() Options {
	return Options{Limit: pass.All}
}

// Compiler owns the shared resources of one compilation: the string
// interner, the node pool, and a logger for tool-info progress output.
// None of the three is a package-level singleton; all three are created
// fresh by New and discarded with the Compiler.
type Compiler struct {
	Interner *interner.Table
	Pool     *poolalloc.Pool
	Log      *logrus.Logger
}

// New returns a Compiler with an empty interner, an empty pool, and a
// logger a caller (typically cmd/quillc) can reconfigure for level,
// formatter, and output before the first CompileProgram call.
func New() *Compiler {
	return &Compiler{Interner: interner.New(), Pool: poolalloc.New(), Log: logrus.New()}
}

// CompileProgram lexes and parses src, splices the builtin prelude into
// the package, then drives the pass manager through opts.Limit, returning
// the resulting tree and every diagnostic collected along the way. Every
// pass up to opts.Limit runs whatever was reported before it; no
// diagnostic, fatal or not, stops the pipeline early.
func (c *Compiler) CompileProgram(src source.Source, opts Options) (*ast.Node, []diag.Diagnostic) {
	sink := diag.NewSink()
	popts := pass.Options{Limit: opts.Limit, StopOnError: false}

	c.logPass(opts, pass.Parse)
	prog := parser.Parse(src, sink)
	checkTreeIfEnabled(prog, opts, sink, pass.Parse)
	if !popts.ShouldRun(pass.Sugar) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Sugar)
	prog = sugar.Run(prog)
	checkTreeIfEnabled(prog, opts, sink, pass.Sugar)
	if !popts.ShouldRun(pass.Scope) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Scope)
	if pkg := prog.Child(0); pkg != nil {
		prelude.Merge(pkg)
	}
	scope.Run(prog, sink)
	checkTreeIfEnabled(prog, opts, sink, pass.Scope)
	if !popts.ShouldRun(pass.Resolve) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Resolve)
	resolve.Run(prog, sink)
	checkTreeIfEnabled(prog, opts, sink, pass.Resolve)
	if !popts.ShouldRun(pass.Flatten) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Flatten)
	find := entityLookup(prog)
	flatten.Run(prog, flatten.EntityLookup(find))
	checkTreeIfEnabled(prog, opts, sink, pass.Flatten)
	if !popts.ShouldRun(pass.Traits) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Traits)
	traits.Run(prog, traits.EntityLookup(find), sink)
	checkTreeIfEnabled(prog, opts, sink, pass.Traits)
	if !popts.ShouldRun(pass.Typer) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Typer)
	typer.New(typer.EntityLookup(find), sink).Run(prog)
	checkTreeIfEnabled(prog, opts, sink, pass.Typer)
	if !popts.ShouldRun(pass.Completeness) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Completeness)
	completeness.Run(prog, sink)
	checkTreeIfEnabled(prog, opts, sink, pass.Completeness)
	if !popts.ShouldRun(pass.Verify) {
		return prog, sink.All()
	}

	c.logPass(opts, pass.Verify)
	status.Run(prog, sink)
	checkTreeIfEnabled(prog, opts, sink, pass.Verify)

	return prog, sink.All()
}

// logPass emits a tool-info line naming the pass about to run, at ToolInfo
// verbosity or above; Minimal stays silent so a scripted invocation's
// stdout carries only what --print-ast or the diagnostic renderer write.
func (c *Compiler) logPass(opts Options, id pass.ID) {
	if opts.Verbosity < ToolInfo || c.Log == nil {
		return
	}
	c.Log.WithField("pass", id.String()).Info("entering pass")
}

// entityLookup builds the name → entity-node closure shared by flatten,
// traits, and the typer: a single linear index over the package's direct
// members, rebuilt once per compilation rather than threaded as mutable
// state through three separate passes.
func entityLookup(prog *ast.Node) func(name string) (*ast.Node, bool) {
	pkg := prog.Child(0)
	index := make(map[string]*ast.Node)
	if pkg != nil {
		for _, m := range pkg.Children {
			if m.Kind().IsEntity() {
				index[m.Child(0).Tok.Ident()] = m
			}
		}
	}
	return func(name string) (*ast.Node, bool) {
		n, ok := index[name]
		return n, ok
	}
}

func checkTreeIfEnabled(prog *ast.Node, opts Options, sink *diag.Sink, id pass.ID) {
	if !opts.CheckTree {
		return
	}
	for _, msg := range CheckTree(prog) {
		sink.Errorf(diag.TreeInvariant, prog.Tok.Pos, "after %s: %s", id, msg)
	}
}
