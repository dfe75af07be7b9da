// Package daemon hosts the scheduled background work of an rcjk server.
//
// A Daemon holds a flock-based lock so only one instance schedules jobs
// against a data directory. On start it clears export flags left behind by a
// crashed process, prunes old log files, logs preflight failures, and then
// runs three cron jobs: the incremental export, the nightly full export, and
// the stale-lock sweep. Each job is skipped while its previous run is still
// going. Status reports the schedule and the outcome of the last run of each
// job.
package daemon
