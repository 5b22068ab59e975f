// Copyright © 2024 The nxt authors

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExcludes_ByName(t *testing.T) {
	paths := []string{
		"src/default.nix",
		"src/generated.nix",
		"lib/utils.nix",
	}
	result := filterExcludes(paths, []string{"generated.nix"})
	assert.Equal(t, []string{"src/default.nix", "lib/utils.nix"}, result)
}

func TestFilterExcludes_ByDirectory(t *testing.T) {
	paths := []string{
		"src/default.nix",
		"vendor/output.nix",
		"vendor/sub/deep.nix",
		"lib/utils.nix",
	}
	result := filterExcludes(paths, []string{"vendor"})
	assert.Equal(t, []string{"src/default.nix", "lib/utils.nix"}, result)
}

func TestFilterExcludes_GlobPattern(t *testing.T) {
	paths := []string{
		"src/default.nix",
		"src/generated_foo.nix",
		"src/generated_bar.nix",
		"lib/utils.nix",
	}
	result := filterExcludes(paths, []string{"generated_*"})
	assert.Equal(t, []string{"src/default.nix", "lib/utils.nix"}, result)
}

func TestFilterExcludes_MultiplePatterns(t *testing.T) {
	paths := []string{
		"src/default.nix",
		"vendor/output.nix",
		"src/generated.nix",
		"lib/utils.nix",
	}
	result := filterExcludes(paths, []string{"vendor", "generated.nix"})
	assert.Equal(t, []string{"src/default.nix", "lib/utils.nix"}, result)
}

func TestFilterExcludes_NoMatches(t *testing.T) {
	paths := []string{
		"src/default.nix",
		"lib/utils.nix",
	}
	result := filterExcludes(paths, []string{"nonexistent"})
	assert.Equal(t, []string{"src/default.nix", "lib/utils.nix"}, result)
}

func TestFilterExcludes_EmptyExcludes(t *testing.T) {
	paths := []string{"src/default.nix"}
	result := filterExcludes(paths, nil)
	assert.Equal(t, []string{"src/default.nix"}, result)
}

func TestMatchesAny_FullPath(t *testing.T) {
	assert.True(t, matchesAny("src/default.nix", []string{"src/*.nix"}))
	assert.False(t, matchesAny("lib/default.nix", []string{"src/*.nix"}))
}

func TestMatchesAny_BaseName(t *testing.T) {
	assert.True(t, matchesAny("deep/nested/flake.nix", []string{"flake.nix"}))
}

func TestMatchesAny_Component(t *testing.T) {
	assert.True(t, matchesAny("project/vendor/output.nix", []string{"vendor"}))
	assert.False(t, matchesAny("project/src/output.nix", []string{"vendor"}))
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"c.nix", "b", "a"}, splitPath("a/b/c.nix"))
	assert.Equal(t, []string{"c.nix"}, splitPath("c.nix"))
}

func TestExpandArgs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) string {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("null\n"), 0o600))
		return path
	}
	top := write("default.nix")
	nested := write("pkgs/hello.nix")
	write("pkgs/README.md")
	write("vendor/lib.nix")

	t.Run("recursive pattern", func(t *testing.T) {
		got, err := expandArgs([]string{dir + "/..."}, []string{"vendor"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{top, nested}, got)
	})

	t.Run("directory", func(t *testing.T) {
		got, err := expandArgs([]string{filepath.Join(dir, "pkgs")}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{nested}, got)
	})

	t.Run("files pass through", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.nix")
		got, err := expandArgs([]string{top, missing}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{top, missing}, got)
	})

	t.Run("explicit file excluded", func(t *testing.T) {
		got, err := expandArgs([]string{top, nested}, []string{"hello.nix"})
		require.NoError(t, err)
		assert.Equal(t, []string{top}, got)
	})
}
