// Package store persists the rcjk object graph in SQLite.
//
// Users, projects, fonts, the three glif kinds with their layers, the
// composition relations between glifs, deletion tombstones, and font import
// jobs all live in one database opened with WAL journaling and foreign keys.
// Glif saves derive every indexed field from the stored XML, update workflow
// status, and rebuild composition relations inside a single transaction.
// Locking is implemented as conditional updates so two callers can never both
// believe they hold the same lock.
package store
