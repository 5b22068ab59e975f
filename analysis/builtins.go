// Copyright © 2024 The nxt authors

package analysis

import (
	"slices"
	"strings"
)

// builtinNames are the names Nix makes available in every file without an
// import. Everything else lives under `builtins`, or is reachable with a
// `__` prefix.
var builtinNames = []string{
	"abort",
	"baseNameOf",
	"break",
	"builtins",
	"derivation",
	"derivationStrict",
	"dirOf",
	"false",
	"fetchGit",
	"fetchMercurial",
	"fetchTarball",
	"fetchTree",
	"fromTOML",
	"import",
	"isNull",
	"map",
	"null",
	"placeholder",
	"removeAttrs",
	"scopedImport",
	"throw",
	"toString",
	"true",
}

// Builtins returns the names of the global builtins.
func Builtins() []string {
	return append([]string(nil), builtinNames...)
}

// IsBuiltinName reports whether name is always bound in the prelude.
func IsBuiltinName(name string) bool {
	return slices.Contains(builtinNames, name) || isHiddenBuiltin(name)
}

// isHiddenBuiltin reports whether name uses the `__` prefix under which
// every member of `builtins` is also bound globally.
func isHiddenBuiltin(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "__")
}
