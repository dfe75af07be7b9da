package export

import "time"

// Report summarizes one export run.
type Report struct {
	RunID      string
	Full       bool
	StartedAt  time.Time
	FinishedAt time.Time
	Projects   []ProjectResult
}

// FailedProjects counts projects that failed or were refused.
func (r *Report) FailedProjects() int {
	n := 0
	for _, p := range r.Projects {
		if !p.OK() {
			n++
		}
	}
	return n
}

// ProjectResult is the outcome for one project.
type ProjectResult struct {
	ID   int64
	Slug string
	// Skipped explains why the project was not exported, if it was not.
	Skipped string
	Fonts   []FontResult
	// Committed is true when the final project-wide commit recorded changes.
	Committed bool
	Err       error
}

// OK reports whether the project and all its fonts exported cleanly.
func (r ProjectResult) OK() bool {
	if r.Err != nil {
		return false
	}
	for _, f := range r.Fonts {
		if f.Err != nil {
			return false
		}
	}
	return true
}

// FontResult is the outcome for one font.
type FontResult struct {
	ID   int64
	Name string
	Dir  string
	// Skipped explains why nothing was written, if nothing was.
	Skipped   string
	Written   int
	Removed   int
	Committed bool
	Message   string
	Verify    Verification
	Err       error
}

// Saved reports whether the font reached the file system without error.
func (r FontResult) Saved() bool {
	return r.Skipped == "" && r.Err == nil
}
