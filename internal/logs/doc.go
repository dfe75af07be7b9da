// Package logs reads rcjk log files for the CLI: the last N lines of a file,
// and follow mode that polls for appended lines until the context ends.
package logs
