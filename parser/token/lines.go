// Copyright © 2024 The nxt authors

package token

import (
	"sort"
	"unicode/utf8"
)

// LineIndex converts byte offsets of one source buffer into line/column
// locations.
type LineIndex struct {
	file  string
	src   []byte
	lines []int // byte offset of the first byte of each line
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(file string, src []byte) *LineIndex {
	idx := &LineIndex{file: file, src: src, lines: []int{0}}
	for i, b := range src {
		if b == '\n' {
			idx.lines = append(idx.lines, i+1)
		}
	}
	return idx
}

// File returns the name the index was created with.
func (idx *LineIndex) File() string {
	return idx.file
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lines)
}

// Location returns the 1-based line and rune column of offset. Offsets past
// the end of the source are clamped to the end.
func (idx *LineIndex) Location(offset int) Location {
	offset = max(0, min(offset, len(idx.src)))
	line := sort.Search(len(idx.lines), func(i int) bool { return idx.lines[i] > offset }) - 1
	start := idx.lines[line]
	col := utf8.RuneCount(idx.src[start:offset]) + 1
	return Location{File: idx.file, Pos: offset, Line: line + 1, Col: col}
}

// LineText returns the text of the 1-based line without its terminator.
func (idx *LineIndex) LineText(line int) string {
	if line < 1 || line > len(idx.lines) {
		return ""
	}
	start := idx.lines[line-1]
	end := len(idx.src)
	if line < len(idx.lines) {
		end = idx.lines[line] - 1
	}
	if end > start && idx.src[end-1] == '\r' {
		end--
	}
	return string(idx.src[start:end])
}

// Offset returns the byte offset of the 1-based line and the 0-based
// UTF-16 character offset within it, the unit used by editor protocols.
func (idx *LineIndex) Offset(line, utf16Col int) int {
	if line < 1 {
		return 0
	}
	if line > len(idx.lines) {
		return len(idx.src)
	}
	pos := idx.lines[line-1]
	for units := 0; units < utf16Col && pos < len(idx.src); {
		r, n := utf8.DecodeRune(idx.src[pos:])
		if r == '\n' {
			break
		}
		pos += n
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return pos
}

// UTF16Col returns the 0-based UTF-16 column of offset within its line.
func (idx *LineIndex) UTF16Col(offset int) int {
	loc := idx.Location(offset)
	start := idx.lines[loc.Line-1]
	var units int
	for _, r := range string(idx.src[start:loc.Pos]) {
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return units
}
