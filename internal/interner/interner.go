// Package interner implements a per-compilation string table: one
// canonical string per distinct identifier/literal text. The lexer and
// parser do not route names through it; only callers that call Intern
// get the canonical copy. This one is a value owned by the Compiler — two compilations never share or
// contend over one interner.
package interner

// Table interns strings for the lifetime of one compilation.
type Table struct {
	entries map[string]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: make(map[string]string)}
}

// Intern returns the canonical copy of s: the first Intern call for a
// given text wins and every later call with an equal string returns that
// same Go string value.
func (t *Table) Intern(s string) string {
	if canon, ok := t.entries[s]; ok {
		return canon
	}
	t.entries[s] = s
	return s
}

// Len reports how many distinct strings have been interned, for metrics
// or test assertions.
func (t *Table) Len() int { return len(t.entries) }
