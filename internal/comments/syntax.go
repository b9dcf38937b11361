// Package comments provides reference comment extractors for common source
// languages. They find comment text and its rune offset in the file; they do
// not parse the language beyond string literals.
package comments

import (
	"strings"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// Delimiters mark a block comment.
type Delimiters struct {
	Open  string
	Close string
}

// SyntaxExtractor finds line and block comments with a small state machine.
// Comment markers inside string literals delimited by Quotes are ignored;
// string literals end at a newline.
type SyntaxExtractor struct {
	Line   []string
	Block  []Delimiters
	Quotes string
}

// LineExtractor recognises single-line comments starting with any of prefixes.
func LineExtractor(prefixes ...string) SyntaxExtractor {
	return SyntaxExtractor{Line: prefixes, Quotes: `"'`}
}

// BlockExtractor recognises block comments between open and close.
func BlockExtractor(open, close string) SyntaxExtractor {
	return SyntaxExtractor{Block: []Delimiters{{Open: open, Close: close}}, Quotes: `"'`}
}

// CStyle covers "//" and "/* */" with double-quoted and backtick strings.
func CStyle() SyntaxExtractor {
	return SyntaxExtractor{
		Line:   []string{"//"},
		Block:  []Delimiters{{Open: "/*", Close: "*/"}},
		Quotes: "\"`",
	}
}

func (s SyntaxExtractor) ExtractComments(text string) []commentlink.CommentSpan {
	runes := []rune(text)
	var spans []commentlink.CommentSpan
	var quote rune

	for i := 0; i < len(runes); {
		c := runes[i]
		if quote != 0 {
			switch c {
			case '\\':
				i += 2
				continue
			case quote, '\n':
				quote = 0
			}
			i++
			continue
		}
		if strings.ContainsRune(s.Quotes, c) {
			quote = c
			i++
			continue
		}

		if d, ok := s.blockAt(runes, i); ok {
			end := indexFrom(runes, i+len([]rune(d.Open)), d.Close)
			if end < 0 {
				end = len(runes)
			} else {
				end += len([]rune(d.Close))
			}
			spans = append(spans, commentlink.CommentSpan{Text: string(runes[i:end]), FileOffset: i})
			i = end
			continue
		}

		if s.lineAt(runes, i) {
			end := i
			for end < len(runes) && runes[end] != '\n' {
				end++
			}
			spans = append(spans, commentlink.CommentSpan{
				Text:       strings.TrimRight(string(runes[i:end]), "\r"),
				FileOffset: i,
			})
			i = end
			continue
		}
		i++
	}
	return spans
}

func (s SyntaxExtractor) blockAt(runes []rune, i int) (Delimiters, bool) {
	for _, d := range s.Block {
		if hasPrefixAt(runes, i, d.Open) {
			return d, true
		}
	}
	return Delimiters{}, false
}

func (s SyntaxExtractor) lineAt(runes []rune, i int) bool {
	for _, p := range s.Line {
		if hasPrefixAt(runes, i, p) {
			return true
		}
	}
	return false
}

func hasPrefixAt(runes []rune, i int, prefix string) bool {
	for _, r := range prefix {
		if i >= len(runes) || runes[i] != r {
			return false
		}
		i++
	}
	return prefix != ""
}

func indexFrom(runes []rune, from int, needle string) int {
	for i := from; i < len(runes); i++ {
		if hasPrefixAt(runes, i, needle) {
			return i
		}
	}
	return -1
}
