package preflight

import "rcjk/internal/config"

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the data, repository, and log directories plus the git binary.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Repositories directory", cfg.Paths.ReposDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			r.Detail = status.Path
		}
		results = append(results, r)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
