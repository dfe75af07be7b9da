// Package config loads, normalizes, and validates rcjk configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours GIT_AUTHOR_NAME / GIT_AUTHOR_EMAIL as fallbacks for
// the export commit identity. Always obtain settings through this package so
// downstream code receives absolute paths and validated schedules.
package config
