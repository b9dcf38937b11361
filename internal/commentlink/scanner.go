package commentlink

import (
	"iter"
	"strings"
)

// ScanLinks yields every "[label](target)" occurrence in text from left to right.
//
// At each '[' the first complete match wins and scanning resumes after its ')',
// so occurrences never overlap. Labels must be non-empty; "\]" is kept as part of
// the label and "\[" never opens one. Neither label nor target may cross a
// newline. Incomplete constructs are skipped.
func ScanLinks(text string) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		runes := []rune(text)
		for i := 0; i < len(runes); {
			if runes[i] != '[' || escaped(runes, i) {
				i++
				continue
			}
			occ, ok := matchLink(runes, i)
			if !ok {
				i++
				continue
			}
			if !yield(occ) {
				return
			}
			i = occ.End
		}
	}
}

// FindLinks collects ScanLinks into a slice.
func FindLinks(text string) []Occurrence {
	var out []Occurrence
	for occ := range ScanLinks(text) {
		out = append(out, occ)
	}
	return out
}

// matchLink tries to read a link whose '[' sits at start.
func matchLink(runes []rune, start int) (Occurrence, bool) {
	labelEnd, ok := closingBracket(runes, start+1)
	if !ok || labelEnd == start+1 {
		return Occurrence{}, false
	}
	if labelEnd+1 >= len(runes) || runes[labelEnd+1] != '(' {
		return Occurrence{}, false
	}

	targetStart := labelEnd + 2
	for k := targetStart; k < len(runes); k++ {
		switch runes[k] {
		case '\n':
			return Occurrence{}, false
		case ')':
			return Occurrence{
				Label:      unescapeLabel(string(runes[start+1 : labelEnd])),
				RawTarget:  string(runes[targetStart:k]),
				Start:      start,
				End:        k + 1,
				LabelStart: start + 1,
				LabelEnd:   labelEnd,
			}, true
		}
	}
	return Occurrence{}, false
}

// closingBracket finds the first unescaped ']' at or after from on the same line.
func closingBracket(runes []rune, from int) (int, bool) {
	for j := from; j < len(runes); j++ {
		switch runes[j] {
		case '\\':
			if j+1 < len(runes) && runes[j+1] == ']' {
				j++
			}
		case '\n':
			return 0, false
		case ']':
			return j, true
		}
	}
	return 0, false
}

// escaped reports whether the rune at i is preceded by an odd run of backslashes.
func escaped(runes []rune, i int) bool {
	n := 0
	for k := i - 1; k >= 0 && runes[k] == '\\'; k-- {
		n++
	}
	return n%2 == 1
}

func unescapeLabel(label string) string {
	return strings.ReplaceAll(label, `\]`, "]")
}
