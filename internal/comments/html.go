package comments

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
)

// HTMLExtractor returns "<!-- ... -->" comments from HTML, XML and Markdown.
// Span text is the raw comment including its markers.
type HTMLExtractor struct{}

func (HTMLExtractor) ExtractComments(text string) []commentlink.CommentSpan {
	z := html.NewTokenizer(bytes.NewReader([]byte(text)))
	var spans []commentlink.CommentSpan
	runeOff := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return spans
		}
		raw := z.Raw()
		if tt == html.CommentToken {
			spans = append(spans, commentlink.CommentSpan{Text: string(raw), FileOffset: runeOff})
		}
		runeOff += utf8.RuneCount(raw)
	}
}
