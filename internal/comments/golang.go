package comments

import (
	"bytes"
	"go/scanner"
	"go/token"
	"unicode/utf8"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// GoExtractor uses the Go tokenizer, so comment markers in raw strings and
// rune literals are never mistaken for comments.
type GoExtractor struct{}

// ExtractComments returns each comment exactly as it appears in text. The
// tokenizer drops carriage returns from comment literals, so span text is
// sliced from the source instead.
func (GoExtractor) ExtractComments(text string) []commentlink.CommentSpan {
	src := []byte(text)
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	// Syntax errors are irrelevant here; the scanner keeps going.
	s.Init(file, src, func(token.Position, string) {}, scanner.ScanComments)

	var spans []commentlink.CommentSpan
	byteOff, runeOff := 0, 0
	for {
		pos, tok, _ := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok != token.COMMENT {
			continue
		}
		off := file.Offset(pos)
		runeOff += utf8.RuneCount(src[byteOff:off])
		byteOff = off
		spans = append(spans, commentlink.CommentSpan{Text: text[off:commentEnd(src, off)], FileOffset: runeOff})
	}
	return spans
}

// commentEnd returns the byte offset just past the comment starting at off.
// A line comment ends before its line terminator, "\r\n" included.
func commentEnd(src []byte, off int) int {
	rest := src[off:]
	if bytes.HasPrefix(rest, []byte("/*")) {
		if i := bytes.Index(rest[2:], []byte("*/")); i >= 0 {
			return off + 2 + i + 2
		}
		return len(src)
	}
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		return len(src)
	}
	end := off + i
	if end > off && src[end-1] == '\r' {
		end--
	}
	return end
}
