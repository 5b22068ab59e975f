// Copyright © 2024 The nxt authors

package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// expandArgs expands arguments, resolving patterns ending with "/..." and
// plain directories to all .nix files found recursively below them. Other
// arguments pass through unchanged. Files matching any of excludes are
// dropped from directory expansions and from the explicit arguments.
func expandArgs(args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if recursive && dir == "" {
			dir = "."
		}
		if !recursive {
			info, err := os.Stat(arg)
			if err != nil || !info.IsDir() {
				out = append(out, arg)
				continue
			}
			dir = arg
		}
		files, err := findNixFiles(dir, excludes)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		out = append(out, files...)
	}
	return filterExcludes(out, excludes), nil
}

func findNixFiles(root string, excludes []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && matchesAny(path, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".nix" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes removes the paths that match any of the patterns.
func filterExcludes(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if !matchesAny(path, excludes) {
			out = append(out, path)
		}
	}
	return out
}

// matchesAny reports whether a pattern matches the full path, its base
// name, or any one of its components.
func matchesAny(path string, patterns []string) bool {
	path = filepath.Clean(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		for _, part := range splitPath(path) {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

// splitPath returns the components of path, last first.
func splitPath(path string) []string {
	var parts []string
	for {
		dir, file := filepath.Split(path)
		if file != "" {
			parts = append(parts, file)
		}
		dir = strings.TrimSuffix(dir, string(filepath.Separator))
		if dir == "" || dir == path {
			return parts
		}
		path = dir
	}
}
