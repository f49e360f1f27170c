// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package safety

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/lumberjack/v2"
)

// EventKind classifies an audited file mutation.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
)

// Event is one immutable audit record. Events are recorded for every
// mutation regardless of whether backups are enabled.
type Event struct {
	Kind       EventKind `json:"kind"`
	Path       string    `json:"path"`
	BeforeHash string    `json:"before-hash,omitempty"`
	AfterHash  string    `json:"after-hash,omitempty"`
	Size       int64     `json:"size"`
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason"`
}

// Auditor records file-mutation events.
type Auditor interface {
	Record(event Event) error
}

// logAuditor appends JSON-lines events to a writer.
type logAuditor struct {
	mu     sync.Mutex
	writer io.Writer
	clock  clock.Clock

	// Events are retained in memory too so the final report can show
	// what happened without re-reading the log.
	events []Event
}

// NewAuditor returns an Auditor appending to w.
func NewAuditor(w io.Writer, clk clock.Clock) *logAuditor {
	return &logAuditor{writer: w, clock: clk}
}

// NewFileAuditor returns an Auditor appending to the size-rotated audit
// log under root, plus the log's closer.
func NewFileAuditor(root string, clk clock.Clock) (*logAuditor, io.Closer) {
	log := &lumberjack.Logger{
		Filename:   filepath.Join(root, backupDirName, "audit.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
	}
	return NewAuditor(log, clk), log
}

// Record implements Auditor. The timestamp is stamped here so callers
// cannot fabricate history.
func (a *logAuditor) Record(event Event) error {
	event.Timestamp = a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	data, err := json.Marshal(&event)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := a.writer.Write(append(data, '\n')); err != nil {
		return errors.Annotate(err, "appending audit event")
	}
	a.events = append(a.events, event)
	return nil
}

// Events returns a copy of the events recorded so far.
func (a *logAuditor) Events() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	events := make([]Event, len(a.events))
	copy(events, a.events)
	return events
}

// nopAuditor discards events; preview mode records nothing.
type nopAuditor struct{}

// NewNopAuditor returns an Auditor that records nothing.
func NewNopAuditor() Auditor { return nopAuditor{} }

func (nopAuditor) Record(Event) error { return nil }
