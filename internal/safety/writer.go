// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package safety

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// Writer performs guarded file mutations: backup first (when a session
// is attached), then a whole-file replace, then the audit record. In
// preview mode no mutation, backup or audit event happens at all; the
// writer only reports what would change.
type Writer struct {
	session *Session // nil when backups are disabled
	auditor Auditor
	preview bool

	// wouldChange accumulates preview-mode observations.
	wouldChange []string
}

// NewWriter returns a guarded writer. session may be nil (backups
// disabled); auditor must not be.
func NewWriter(session *Session, auditor Auditor, preview bool) *Writer {
	return &Writer{session: session, auditor: auditor, preview: preview}
}

// WriteFile replaces path with data. Writes are whole-file replace
// operations: a temp file in the target directory renamed over the
// destination, so cancellation never leaves a partial write.
func (w *Writer) WriteFile(path string, data []byte, reason string) error {
	before, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return errors.Annotatef(err, "reading %q", path)
	}
	if exists && string(before) == string(data) {
		return nil
	}

	if w.preview {
		w.wouldChange = append(w.wouldChange, path)
		return nil
	}

	if w.session != nil {
		if err := w.session.Backup(path); err != nil {
			return errors.Trace(err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sdkmigrate-*")
	if err != nil {
		return errors.Annotatef(err, "staging write of %q", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Annotatef(err, "staging write of %q", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Annotatef(err, "staging write of %q", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Annotatef(err, "replacing %q", path)
	}

	event := Event{
		Kind:      EventCreated,
		Path:      path,
		AfterHash: HashBytes(data),
		Size:      int64(len(data)),
		Reason:    reason,
	}
	if exists {
		event.Kind = EventModified
		event.BeforeHash = HashBytes(before)
	}
	return errors.Trace(w.auditor.Record(event))
}

// DeleteFile removes path. Missing files are not an error.
func (w *Writer) DeleteFile(path string, reason string) error {
	before, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Annotatef(err, "reading %q", path)
	}

	if w.preview {
		w.wouldChange = append(w.wouldChange, path)
		return nil
	}

	if w.session != nil {
		if err := w.session.Backup(path); err != nil {
			return errors.Trace(err)
		}
	}
	if err := os.Remove(path); err != nil {
		return errors.Annotatef(err, "removing %q", path)
	}
	return errors.Trace(w.auditor.Record(Event{
		Kind:       EventDeleted,
		Path:       path,
		BeforeHash: HashBytes(before),
		Size:       int64(len(before)),
		Reason:     reason,
	}))
}

// WouldChange returns the paths a preview run would have mutated.
func (w *Writer) WouldChange() []string {
	return w.wouldChange
}
