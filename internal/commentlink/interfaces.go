package commentlink

import "context"

// CommentSpan is one comment's text and the rune offset where it begins in the file.
type CommentSpan struct {
	Text       string
	FileOffset int
}

// CommentExtractor finds comment spans in a source file, in file order.
type CommentExtractor interface {
	ExtractComments(fileText string) []CommentSpan
}

// CommentExtractorFunc adapts a function to CommentExtractor.
type CommentExtractorFunc func(fileText string) []CommentSpan

func (f CommentExtractorFunc) ExtractComments(fileText string) []CommentSpan {
	return f(fileText)
}

// WholeText treats the entire input as a single comment.
var WholeText CommentExtractor = CommentExtractorFunc(func(fileText string) []CommentSpan {
	return []CommentSpan{{Text: fileText}}
})

// FileSystem answers the only two questions the validator asks.
// Implementations must not modify the filesystem. Permission and I/O failures
// are reported as errors rather than panics.
type FileSystem interface {
	FileExists(ctx context.Context, path string) (bool, error)
	LineCount(ctx context.Context, path string) (int, error)
}
