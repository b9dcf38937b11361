// Package commentlink extracts markdown-style links ("[label](path:line)") from
// source-code comment text and resolves them to validated file targets.
//
// The pipeline runs strictly forward:
//
//	ScanLinks -> ParseTarget -> Candidates -> Validate
//
// and Resolver ties the stages together for all comments of one file. Every
// stage except Validate is pure; Validate reads the filesystem through the
// FileSystem collaborator only.
package commentlink
