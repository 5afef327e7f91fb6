package parser

import "sort"

// LineIndex maps byte offsets to 1-based line and column numbers.
type LineIndex struct {
	starts []int
	size   int
}

func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(src)}
}

func (li *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > li.size {
		offset = li.size
	}
	line := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	}) - 1
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: offset - li.starts[line] + 1,
	}
}

// Offset converts a 1-based line and column back to a byte offset. Columns
// past the end of a line are clamped to the line's end.
func (li *LineIndex) Offset(line, column int) int {
	if line < 1 {
		return 0
	}
	if line > len(li.starts) {
		return li.size
	}
	start := li.starts[line-1]
	end := li.size
	if line < len(li.starts) {
		end = li.starts[line] - 1
	}
	off := start + column - 1
	if off > end {
		off = end
	}
	if off < start {
		off = start
	}
	return off
}

func (li *LineIndex) LineCount() int {
	return len(li.starts)
}
