// Copyright © 2024 The nxt authors

// Package parser is the entry point for turning Nix source text into a
// lossless syntax tree.
package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/nxt/parser/rdparser"
	"github.com/luthersystems/nxt/syntax"
)

// Parse parses src as the contents of the named file. It always returns a
// tree; syntax errors are recorded in Root.Errors.
func Parse(filename string, src []byte) *syntax.Root {
	return rdparser.New(filename, src).Parse()
}

// ParseReader reads all of r and parses it.
func ParseReader(filename string, r io.Reader) (*syntax.Root, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return Parse(filename, src), nil
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*syntax.Root, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, src), nil
}
