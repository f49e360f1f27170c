// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/utils/v4"
)

// backupDirName is the session store directory under the migration
// root. It is excluded from project discovery.
const backupDirName = ".sdkmigrate"

const manifestFileName = "backup-manifest.json"

// BackedUpFile is one snapshot inside a session manifest.
type BackedUpFile struct {
	OriginalPath string `json:"original-path"`
	BackupPath   string `json:"backup-path"`
	ContentHash  string `json:"content-hash"`
}

// SessionManifest is the persisted, append-only index of a backup
// session, readable by rollback independent of the process that created
// it.
type SessionManifest struct {
	SessionID     string         `json:"session-id"`
	StartTime     time.Time      `json:"start-time"`
	BackedUpFiles []BackedUpFile `json:"backed-up-files"`
}

// Session snapshots files before their first mutation in a run.
type Session struct {
	root     string
	dir      string
	clock    clock.Clock
	manifest SessionManifest
	seen     map[string]bool
}

// NewSession creates a session-scoped backup store under root.
func NewSession(root string, clk clock.Clock) (*Session, error) {
	id := utils.MustNewUUID().String()
	dir := filepath.Join(root, backupDirName, "backups", id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Annotate(err, "creating backup session directory")
	}
	session := &Session{
		root:  root,
		dir:   dir,
		clock: clk,
		manifest: SessionManifest{
			SessionID: id,
			StartTime: clk.Now(),
		},
		seen: map[string]bool{},
	}
	if err := session.writeManifest(); err != nil {
		return nil, errors.Trace(err)
	}
	return session, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.manifest.SessionID }

// Backup snapshots the exact bytes of path if this is its first
// mutation in the session. Missing files (about to be created) need no
// snapshot. Every successful snapshot is flushed to the manifest
// immediately so a crashed run still rolls back.
func (s *Session) Backup(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Trace(err)
	}
	if s.seen[abs] {
		return nil
	}
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		s.seen[abs] = true
		return nil
	}
	if err != nil {
		return errors.Annotatef(err, "reading %q for backup", abs)
	}

	name := fmt.Sprintf("%04d-%s", len(s.manifest.BackedUpFiles), filepath.Base(abs))
	backupPath := filepath.Join(s.dir, name)
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return errors.Annotatef(err, "writing backup of %q", abs)
	}

	s.manifest.BackedUpFiles = append(s.manifest.BackedUpFiles, BackedUpFile{
		OriginalPath: abs,
		BackupPath:   backupPath,
		ContentHash:  HashBytes(data),
	})
	s.seen[abs] = true
	if err := s.writeManifest(); err != nil {
		return errors.Trace(err)
	}
	logger.Debugf("backed up %q into session %s", abs, s.ID())
	return nil
}

// FileCount returns how many files the session has snapshotted.
func (s *Session) FileCount() int { return len(s.manifest.BackedUpFiles) }

func (s *Session) writeManifest() error {
	data, err := json.MarshalIndent(&s.manifest, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	path := filepath.Join(s.dir, manifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Annotate(err, "writing backup manifest")
	}
	return nil
}

// ReadManifest loads the manifest of the given session id under root.
func ReadManifest(root, sessionID string) (*SessionManifest, error) {
	path := filepath.Join(root, backupDirName, "backups", sessionID, manifestFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("backup session %q", sessionID)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	var manifest SessionManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Annotatef(err, "decoding manifest of session %q", sessionID)
	}
	return &manifest, nil
}

// Sessions lists all restorable sessions under root, most recent first.
func Sessions(root string) ([]*SessionManifest, error) {
	dir := filepath.Join(root, backupDirName, "backups")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	var manifests []*SessionManifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := ReadManifest(root, entry.Name())
		if err != nil {
			logger.Warningf("skipping unreadable backup session %q: %v", entry.Name(), err)
			continue
		}
		manifests = append(manifests, manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].StartTime.After(manifests[j].StartTime)
	})
	return manifests, nil
}

// LatestSession returns the most recent session manifest under root.
func LatestSession(root string) (*SessionManifest, error) {
	manifests, err := Sessions(root)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(manifests) == 0 {
		return nil, errors.NotFoundf("backup sessions under %q", root)
	}
	return manifests[0], nil
}

// PruneSessions deletes all but the keep most recent backup sessions
// under root. Pruning failures are logged, not fatal; stale sessions
// only cost disk.
func PruneSessions(root string, keep int) {
	manifests, err := Sessions(root)
	if err != nil {
		logger.Warningf("cannot list backup sessions for pruning: %v", err)
		return
	}
	for i := keep; i < len(manifests); i++ {
		dir := filepath.Join(root, backupDirName, "backups", manifests[i].SessionID)
		if err := os.RemoveAll(dir); err != nil {
			logger.Warningf("cannot prune backup session %s: %v", manifests[i].SessionID, err)
			continue
		}
		logger.Debugf("pruned backup session %s", manifests[i].SessionID)
	}
}

// HashBytes returns the hex sha256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
