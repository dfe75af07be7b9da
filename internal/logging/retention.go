package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// PruneResult reports what a retention pass removed.
type PruneResult struct {
	Removed []string
	Failed  []string
}

// CleanupOldLogs removes files matching targets whose modification time is
// older than retentionDays. A retentionDays value of 0 disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) PruneResult {
	return cleanupBefore(logger, time.Now().AddDate(0, 0, -retentionDays), retentionDays > 0, targets)
}

func cleanupBefore(logger *slog.Logger, cutoff time.Time, enabled bool, targets []RetentionTarget) PruneResult {
	var result PruneResult
	if !enabled {
		return result
	}
	if logger == nil {
		logger = NewNop()
	}

	excluded := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if abs := absPath(path); abs != "" {
				excluded[abs] = struct{}{}
			}
		}
	}

	for _, target := range targets {
		for _, path := range candidates(target) {
			if _, skip := excluded[path]; skip {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				result.Failed = append(result.Failed, path)
				WarnWithContext(logger, "log retention remove failed", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check permissions on the log directory"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			result.Removed = append(result.Removed, path)
			logger.Info("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return result
}

func candidates(target RetentionTarget) []string {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return nil
	}
	pattern := strings.TrimSpace(target.Pattern)
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if abs := absPath(match); abs != "" {
			out = append(out, abs)
		}
	}
	return out
}

func absPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return trimmed
	}
	return abs
}
