package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// BuildReport summarizes one engine run for the caller. TableResults
// maps every introspected table to nil (success) or its extraction
// error, so the caller can show per table what succeeded and what to
// fix. Warnings list explicitly requested tables missing from the
// catalog.
type BuildReport struct {
	RunID      uuid.UUID
	Dialect    string
	StartedAt  time.Time
	FinishedAt time.Time

	Warnings     []string
	TableResults map[string]error

	Tables        int
	Columns       int
	Relationships int
	Enums         int
	Collapsed     int
}

// NewBuildReport starts a report for a run against the given dialect.
func NewBuildReport(dialect string) *BuildReport {
	return &BuildReport{
		RunID:        uuid.New(),
		Dialect:      dialect,
		StartedAt:    time.Now(),
		TableResults: make(map[string]error),
	}
}

// FailedTables returns the tables whose metadata extraction failed,
// sorted by name.
func (r *BuildReport) FailedTables() []string {
	var failed []string
	for name, err := range r.TableResults {
		if err != nil {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}

// Finish stamps the completion time and returns the report.
func (r *BuildReport) Finish() *BuildReport {
	r.FinishedAt = time.Now()
	return r
}

// Duration is the wall time of the run.
func (r *BuildReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
