package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magnolia-collective/wellness-e2e/pkg/logger"
)

// NewIndex returns a pending index with one entry per case name.
func NewIndex(device Device, app App, appiumURL string, cases []string) *Index {
	idx := &Index{
		Version: Version,
		RunID:   uuid.NewString(),
		Status:  StatusPending,
		Device:  device,
		App:     app,
		Appium:  appiumURL,
		Cases:   make([]CaseEntry, len(cases)),
	}
	for i, name := range cases {
		idx.Cases[i] = CaseEntry{Index: i, Name: name, Status: StatusPending}
	}
	idx.Summary = summarize(idx.Cases)
	return idx
}

// IndexWriter provides thread-safe updates to the report index.
// Every update rewrites report.json when an output directory is set.
type IndexWriter struct {
	mu        sync.Mutex
	outputDir string
	path      string
	index     *Index
}

// NewIndexWriter creates a new IndexWriter. An empty outputDir keeps the
// index in memory only.
func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	w := &IndexWriter{outputDir: outputDir, index: index}
	if outputDir != "" {
		w.path = filepath.Join(outputDir, FileName)
	}
	return w
}

// Path returns the report file path, empty for an in-memory writer.
func (w *IndexWriter) Path() string {
	return w.path
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.index.Status = StatusRunning
	w.index.StartTime = time.Now()
	w.flushLocked()
}

// UpdateCase updates the entry of the named case.
func (w *IndexWriter) UpdateCase(name string, update *CaseUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.index.Cases {
		if w.index.Cases[i].Name != name {
			continue
		}
		c := &w.index.Cases[i]
		c.Status = update.Status
		if update.StartTime != nil {
			c.StartTime = update.StartTime
		}
		if update.EndTime != nil {
			c.EndTime = update.EndTime
			if c.StartTime != nil {
				ms := c.EndTime.Sub(*c.StartTime).Milliseconds()
				c.Duration = &ms
			}
		}
		if update.Steps != nil {
			c.Steps = update.Steps
		}
		if update.Assertions != nil {
			c.Assertions = update.Assertions
		}
		if update.Navigation != nil {
			c.Navigation = update.Navigation
		}
		if update.Error != nil {
			c.Error = update.Error
		}
		break
	}
	w.flushLocked()
}

// End marks the run as complete.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = runStatus(w.index.Cases)
	w.flushLocked()
}

// Index returns a copy of the current index.
func (w *IndexWriter) Index() Index {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := *w.index
	idx.Cases = append([]CaseEntry(nil), w.index.Cases...)
	return idx
}

// flushLocked flushes while holding the lock.
func (w *IndexWriter) flushLocked() {
	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = summarize(w.index.Cases)

	if w.path == "" {
		return
	}
	if err := ensureDir(w.outputDir); err != nil {
		logger.Error("report: %v", err)
		return
	}
	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Error("report: %v", err)
	}
}

// summarize calculates summary from case statuses.
func summarize(cases []CaseEntry) Summary {
	var s Summary
	for _, c := range cases {
		s.Total++
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusWarned:
			s.Warned++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// runStatus determines overall run status from cases.
func runStatus(cases []CaseEntry) Status {
	if len(cases) == 0 {
		return StatusPassed
	}
	allSkipped := true
	warned := false
	for _, c := range cases {
		if c.Status.IsFailure() {
			return StatusFailed
		}
		if c.Status != StatusSkipped {
			allSkipped = false
		}
		if c.Status == StatusWarned {
			warned = true
		}
	}
	switch {
	case allSkipped:
		return StatusSkipped
	case warned:
		return StatusWarned
	}
	return StatusPassed
}

// ensureDir creates dir and its parents.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	return nil
}

// atomicWriteJSON writes v to a temp file next to path and renames it over
// path, so readers never observe a partial document.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}

// Load reads a report file.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &idx, nil
}
