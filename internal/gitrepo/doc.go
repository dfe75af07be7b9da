// Package gitrepo drives the git working tree of an exported project through
// the git binary: preparing the tree from its remote, staging paths,
// committing, and pushing.
//
// Every command is synchronous. A non-zero exit surfaces the captured output
// as an ErrExternalTool error, except for commit's exit 1 ("nothing to
// commit"), which is reported as a no-op.
package gitrepo
