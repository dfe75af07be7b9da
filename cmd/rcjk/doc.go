// Command rcjk administers an rcjk font-source server: users, projects,
// fonts, glifs and their locks, exports to git, archive imports, and the
// scheduling daemon.
//
// Every command loads configuration from --config, the default
// ~/.config/rcjk/config.toml, or ./rcjk.toml. Mutating glif commands act as
// the user named by --user (or RCJK_USER).
package main
