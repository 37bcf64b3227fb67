// Package pkgver gates source files that declare a minimum compiler
// version via `#pragma requires <semver>` against the
// version quillc reports itself as, using golang.org/x/mod/semver for
// comparison the same way tadl's ast/mod.go checks a module's declared
// language version against the toolchain's.
package pkgver

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// CompilerVersion is the semver quillc reports itself as.
const CompilerVersion = "v0.1.0"

// Satisfies reports whether CompilerVersion is at least the required
// version. required may be spelled with or without a leading "v", as
// `#pragma requires` directives are written either way in source.
func Satisfies(required string) (bool, error) {
	canon := canonicalize(required)
	if !semver.IsValid(canon) {
		return false, fmt.Errorf("pkgver: %q is not a valid semver", required)
	}
	return semver.Compare(CompilerVersion, canon) >= 0, nil
}

func canonicalize(v string) string {
	if len(v) == 0 || v[0] != 'v' {
		return "v" + v
	}
	return v
}
