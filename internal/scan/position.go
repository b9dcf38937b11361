package scan

import "sort"

// lineIndex maps rune offsets to 1-based line and column numbers.
type lineIndex []int

func newLineIndex(text string) lineIndex {
	starts := lineIndex{0}
	i := 0
	for _, r := range text {
		i++
		if r == '\n' {
			starts = append(starts, i)
		}
	}
	return starts
}

func (idx lineIndex) position(offset int) (line, column int) {
	n := sort.Search(len(idx), func(i int) bool { return idx[i] > offset })
	return n, offset - idx[n-1] + 1
}
