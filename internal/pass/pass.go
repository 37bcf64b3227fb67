// Package pass implements the pass manager: a fixed, monotonically
// increasing sequence of tree-rewriting passes driven through a single
// entry point, each one gated by a limit. No pass marks the nodes it
// visits in ast.Node.ReachedMask. Quill has no codegen-only passes
// (reach/paint/ir/bitcode/asm/obj) since code generation is out of scope
// for this front end.
package pass

import "fmt"

// ID identifies one pass in the fixed pipeline order.
type ID int

const (
	Parse ID = iota
	Sugar
	Scope
	Resolve
	Flatten
	Traits
	Typer
	Completeness
	Verify
	All // sentinel meaning "run everything"
)

var names = [...]string{
	Parse: "parse", Sugar: "sugar", Scope: "scope", Resolve: "resolve",
	Flatten: "flatten", Traits: "traits", Typer: "expr",
	Completeness: "completeness", Verify: "verify", All: "all",
}

func (id ID) String() string {
	if int(id) >= 0 && int(id) < len(names) {
		return names[id]
	}
	return fmt.Sprintf("pass(%d)", int(id))
}

// Next returns the pass after id, or All if id is already All or Verify.
func Next(id ID) ID {
	if id >= Verify {
		return All
	}
	return id + 1
}

// Prev returns the pass before id, clamped at Parse.
func Prev(id ID) ID {
	if id <= Parse {
		return Parse
	}
	return id - 1
}

// ByName looks up a pass by its lowercase name, for CLI flags like
// "--pass scope".
func ByName(name string) (ID, bool) {
	for i, n := range names {
		if n == name {
			return ID(i), true
		}
	}
	return 0, false
}

// Options bundles per-compilation settings: how far to run, and a
// StopOnError flag that ShouldRun does not consult.
type Options struct {
	Limit        ID
	StopOnError  bool
}

// DefaultOptions runs every pass.
func DefaultOptions() Options {
	return Options{Limit: All}
}

// ShouldRun reports whether pass should execute given the configured
// limit; no per-node progress is recorded.
func (o Options) ShouldRun(id ID) bool {
	if o.Limit == All {
		return true
	}
	return id <= o.Limit
}
