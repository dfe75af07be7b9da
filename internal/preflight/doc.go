// Package preflight checks that the directories and programs rcjk depends on
// are usable before the daemon schedules work or the CLI reports status.
package preflight
