// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package safety_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/thomhurst/sdkmigrate/internal/safety"
)

type LockSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&LockSuite{})

func (s *LockSuite) TestAcquireAndRelease(c *gc.C) {
	dir := c.MkDir()
	releaser, err := safety.AcquireLock(dir, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	releaser.Release()

	// Released locks can be re-acquired immediately.
	releaser, err = safety.AcquireLock(dir, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	releaser.Release()
}

func (s *LockSuite) TestContention(c *gc.C) {
	dir := c.MkDir()
	releaser, err := safety.AcquireLock(dir, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	defer releaser.Release()

	_, err = safety.AcquireLock(dir, clock.WallClock)
	c.Assert(err, jc.ErrorIs, safety.ErrLockHeld)
}

func (s *LockSuite) TestDifferentTreesDoNotContend(c *gc.C) {
	first, err := safety.AcquireLock(c.MkDir(), clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	defer first.Release()

	second, err := safety.AcquireLock(c.MkDir(), clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	second.Release()
}

type BackupSuite struct {
	testing.IsolationSuite

	root string
}

var _ = gc.Suite(&BackupSuite{})

func (s *BackupSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.root = c.MkDir()
}

func (s *BackupSuite) writeFile(c *gc.C, name, content string) string {
	path := filepath.Join(s.root, name)
	err := os.WriteFile(path, []byte(content), 0644)
	c.Assert(err, jc.ErrorIsNil)
	return path
}

func (s *BackupSuite) TestBackupSnapshotsFirstMutationOnly(c *gc.C) {
	path := s.writeFile(c, "app.csproj", "original")
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(session.Backup(path), jc.ErrorIsNil)
	c.Check(session.FileCount(), gc.Equals, 1)

	// Later mutations of the same file are not re-snapshotted.
	c.Assert(os.WriteFile(path, []byte("changed"), 0644), jc.ErrorIsNil)
	c.Assert(session.Backup(path), jc.ErrorIsNil)
	c.Check(session.FileCount(), gc.Equals, 1)
}

func (s *BackupSuite) TestBackupMissingFileNoSnapshot(c *gc.C) {
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(session.Backup(filepath.Join(s.root, "new.csproj")), jc.ErrorIsNil)
	c.Check(session.FileCount(), gc.Equals, 0)
}

func (s *BackupSuite) TestManifestPersisted(c *gc.C) {
	path := s.writeFile(c, "app.csproj", "original")
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(session.Backup(path), jc.ErrorIsNil)

	manifest, err := safety.ReadManifest(s.root, session.ID())
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(manifest.BackedUpFiles, gc.HasLen, 1)
	c.Check(manifest.BackedUpFiles[0].OriginalPath, gc.Equals, path)
	c.Check(manifest.BackedUpFiles[0].ContentHash,
		gc.Equals, safety.HashBytes([]byte("original")))
}

func (s *BackupSuite) TestUnknownSessionNotFound(c *gc.C) {
	_, err := safety.ReadManifest(s.root, "no-such-session")
	c.Assert(err, jc.ErrorIs, errors.NotFound)
}

func (s *BackupSuite) TestLatestSessionEmptyTree(c *gc.C) {
	_, err := safety.LatestSession(s.root)
	c.Assert(err, jc.ErrorIs, errors.NotFound)
}

func (s *BackupSuite) TestRollbackRestoresBytes(c *gc.C) {
	path := s.writeFile(c, "app.csproj", "original content")
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(session.Backup(path), jc.ErrorIsNil)

	c.Assert(os.WriteFile(path, []byte("migrated content"), 0644), jc.ErrorIsNil)

	result, err := safety.Rollback(s.root, session.ID())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Success(), gc.Equals, true)
	c.Check(result.RestoredCount, gc.Equals, 1)

	restored, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(restored), gc.Equals, "original content")
}

func (s *BackupSuite) TestRollbackLatest(c *gc.C) {
	path := s.writeFile(c, "app.csproj", "original")
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(session.Backup(path), jc.ErrorIsNil)
	c.Assert(os.WriteFile(path, []byte("changed"), 0644), jc.ErrorIsNil)

	result, err := safety.Rollback(s.root, "latest")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.SessionID, gc.Equals, session.ID())
	c.Check(result.Success(), gc.Equals, true)
}

func (s *BackupSuite) TestRollbackTamperedBackupRefused(c *gc.C) {
	path := s.writeFile(c, "app.csproj", "original")
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(session.Backup(path), jc.ErrorIsNil)

	manifest, err := safety.ReadManifest(s.root, session.ID())
	c.Assert(err, jc.ErrorIsNil)
	err = os.WriteFile(manifest.BackedUpFiles[0].BackupPath, []byte("tampered"), 0644)
	c.Assert(err, jc.ErrorIsNil)

	result, err := safety.Rollback(s.root, session.ID())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(result.Success(), gc.Equals, false)
	c.Assert(result.PerFileErrors, gc.HasLen, 1)
	c.Check(result.PerFileErrors[0], gc.Matches, ".*hash mismatch.*")
}

func (s *BackupSuite) TestPruneKeepsMostRecent(c *gc.C) {
	for i := 0; i < 4; i++ {
		_, err := safety.NewSession(s.root, clock.WallClock)
		c.Assert(err, jc.ErrorIsNil)
	}
	safety.PruneSessions(s.root, 2)

	manifests, err := safety.Sessions(s.root)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(manifests, gc.HasLen, 2)
}

type WriterSuite struct {
	testing.IsolationSuite

	root    string
	auditor *recordingAuditor
}

var _ = gc.Suite(&WriterSuite{})

// recordingAuditor retains events in memory.
type recordingAuditor struct {
	events []safety.Event
}

func (a *recordingAuditor) Record(event safety.Event) error {
	a.events = append(a.events, event)
	return nil
}

func (s *WriterSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.root = c.MkDir()
	s.auditor = &recordingAuditor{}
}

func (s *WriterSuite) TestWriteNewFileAudited(c *gc.C) {
	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	writer := safety.NewWriter(session, s.auditor, false)

	path := filepath.Join(s.root, "app.csproj")
	err = writer.WriteFile(path, []byte("content"), "migrated")
	c.Assert(err, jc.ErrorIsNil)

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "content")

	c.Assert(s.auditor.events, gc.HasLen, 1)
	c.Check(s.auditor.events[0].Kind, gc.Equals, safety.EventCreated)
	c.Check(s.auditor.events[0].AfterHash, gc.Equals, safety.HashBytes([]byte("content")))
	c.Check(s.auditor.events[0].BeforeHash, gc.Equals, "")

	// Created files need no backup.
	c.Check(session.FileCount(), gc.Equals, 0)
}

func (s *WriterSuite) TestModifyBacksUpFirst(c *gc.C) {
	path := filepath.Join(s.root, "app.csproj")
	c.Assert(os.WriteFile(path, []byte("before"), 0644), jc.ErrorIsNil)

	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	writer := safety.NewWriter(session, s.auditor, false)

	c.Assert(writer.WriteFile(path, []byte("after"), "migrated"), jc.ErrorIsNil)

	c.Check(session.FileCount(), gc.Equals, 1)
	c.Assert(s.auditor.events, gc.HasLen, 1)
	c.Check(s.auditor.events[0].Kind, gc.Equals, safety.EventModified)
	c.Check(s.auditor.events[0].BeforeHash, gc.Equals, safety.HashBytes([]byte("before")))
}

func (s *WriterSuite) TestIdenticalContentIsNoOp(c *gc.C) {
	path := filepath.Join(s.root, "app.csproj")
	c.Assert(os.WriteFile(path, []byte("same"), 0644), jc.ErrorIsNil)

	writer := safety.NewWriter(nil, s.auditor, false)
	c.Assert(writer.WriteFile(path, []byte("same"), "migrated"), jc.ErrorIsNil)
	c.Check(s.auditor.events, gc.HasLen, 0)
	c.Check(writer.WouldChange(), gc.HasLen, 0)
}

func (s *WriterSuite) TestPreviewTouchesNothing(c *gc.C) {
	path := filepath.Join(s.root, "app.csproj")
	c.Assert(os.WriteFile(path, []byte("before"), 0644), jc.ErrorIsNil)

	writer := safety.NewWriter(nil, s.auditor, true)
	c.Assert(writer.WriteFile(path, []byte("after"), "preview"), jc.ErrorIsNil)
	c.Assert(writer.DeleteFile(path, "preview"), jc.ErrorIsNil)

	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "before")
	c.Check(s.auditor.events, gc.HasLen, 0)
	c.Check(writer.WouldChange(), gc.DeepEquals, []string{path, path})
}

func (s *WriterSuite) TestDeleteAudited(c *gc.C) {
	path := filepath.Join(s.root, "packages.config")
	c.Assert(os.WriteFile(path, []byte("<packages/>"), 0644), jc.ErrorIsNil)

	session, err := safety.NewSession(s.root, clock.WallClock)
	c.Assert(err, jc.ErrorIsNil)
	writer := safety.NewWriter(session, s.auditor, false)

	c.Assert(writer.DeleteFile(path, "superseded"), jc.ErrorIsNil)
	_, err = os.Stat(path)
	c.Check(os.IsNotExist(err), gc.Equals, true)

	c.Check(session.FileCount(), gc.Equals, 1)
	c.Assert(s.auditor.events, gc.HasLen, 1)
	c.Check(s.auditor.events[0].Kind, gc.Equals, safety.EventDeleted)
}

func (s *WriterSuite) TestDeleteMissingFileNoOp(c *gc.C) {
	writer := safety.NewWriter(nil, s.auditor, false)
	c.Assert(writer.DeleteFile(filepath.Join(s.root, "gone"), "cleanup"), jc.ErrorIsNil)
	c.Check(s.auditor.events, gc.HasLen, 0)
}

type AuditorSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&AuditorSuite{})

func (s *AuditorSuite) TestEventsAppendedAsJSONLines(c *gc.C) {
	var buf bytes.Buffer
	auditor := safety.NewAuditor(&buf, clock.WallClock)

	err := auditor.Record(safety.Event{
		Kind: safety.EventModified, Path: "/work/app.csproj", Reason: "migrated",
	})
	c.Assert(err, jc.ErrorIsNil)
	err = auditor.Record(safety.Event{
		Kind: safety.EventDeleted, Path: "/work/packages.config", Reason: "superseded",
	})
	c.Assert(err, jc.ErrorIsNil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	c.Assert(lines, gc.HasLen, 2)
	c.Check(string(lines[0]), gc.Matches, `\{"kind":"modified".*`)
	c.Check(auditor.Events(), gc.HasLen, 2)
	c.Check(auditor.Events()[0].Timestamp.IsZero(), gc.Equals, false)
}
