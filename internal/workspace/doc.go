// Package workspace locates the workspace root that relative comment links
// resolve against and answers which paths a scan should skip.
//
// The root is, in order: an explicitly configured directory, the top level of
// the enclosing git work tree, or the starting directory. Inside a git work
// tree the repository's .gitignore files are honoured.
package workspace
