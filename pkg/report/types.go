// Package report writes the JSON run report.
//
// report.json is a single index file rewritten after every case, so a
// watcher always sees a complete document. Each case entry carries its
// steps, assertions and navigator result.
package report

import (
	"time"

	"github.com/magnolia-collective/wellness-e2e/pkg/core"
	"github.com/magnolia-collective/wellness-e2e/pkg/flows"
	"github.com/magnolia-collective/wellness-e2e/pkg/navigator"
)

// Version is the report schema version.
const Version = "1.0.0"

// FileName is the report file written into the output directory.
const FileName = "report.json"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusWarned  Status = "warned"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusWarned, StatusFailed, StatusErrored, StatusSkipped:
		return true
	}
	return false
}

// IsFailure reports whether the status fails the run.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusErrored
}

// FromStep converts a step status.
func FromStep(s core.StepStatus) Status {
	return Status(s.String())
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the report file.
type Index struct {
	Version     string      `json:"version"`
	RunID       string      `json:"runId"`
	UpdateSeq   uint64      `json:"updateSeq"`
	Status      Status      `json:"status"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Device      Device      `json:"device"`
	App         App         `json:"app"`
	Appium      string      `json:"appium"`
	Summary     Summary     `json:"summary"`
	Cases       []CaseEntry `json:"cases"`
}

// Device contains device information.
type Device struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Platform    string `json:"platform"` // ios, android
	OSVersion   string `json:"osVersion,omitempty"`
	IsSimulator bool   `json:"isSimulator"`
}

// App contains application information.
type App struct {
	ID string `json:"id"` // Bundle ID or package name
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
}

// CaseEntry is one test case of the run.
type CaseEntry struct {
	Index      int               `json:"index"`
	Name       string            `json:"name"`
	Status     Status            `json:"status"`
	StartTime  *time.Time        `json:"startTime,omitempty"`
	EndTime    *time.Time        `json:"endTime,omitempty"`
	Duration   *int64            `json:"duration,omitempty"` // milliseconds
	Steps      []Step            `json:"steps,omitempty"`
	Assertions []Assertion       `json:"assertions,omitempty"`
	Navigation *navigator.Result `json:"navigation,omitempty"`
	Error      *Error            `json:"error,omitempty"`
}

// Step is one flow step of a case.
type Step struct {
	Flow     string `json:"flow"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Duration int64  `json:"duration"` // milliseconds
	Error    string `json:"error,omitempty"`
}

// StepsFrom flattens a flow result into report steps.
func StepsFrom(r *flows.Result) []Step {
	if r == nil {
		return nil
	}
	out := make([]Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, Step{
			Flow:     r.Name,
			Name:     s.Name,
			Status:   FromStep(s.Status),
			Duration: s.Duration.Milliseconds(),
			Error:    s.Error,
		})
	}
	return out
}

// Assertion is one post-condition check of a case.
type Assertion struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Error contains error details.
type Error struct {
	Type    string `json:"type"` // assertion, connection, config, lookup, unknown
	Message string `json:"message"`
}

// ErrorFrom classifies err by its ExecutionError category.
func ErrorFrom(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: core.CategoryOf(err).String(), Message: err.Error()}
}

// ============================================================================
// UPDATE TYPES
// ============================================================================

// CaseUpdate contains the fields to update in the index for a case.
type CaseUpdate struct {
	Status     Status
	StartTime  *time.Time
	EndTime    *time.Time
	Steps      []Step
	Assertions []Assertion
	Navigation *navigator.Result
	Error      *Error
}
