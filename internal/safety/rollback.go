// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package safety

import (
	"fmt"
	"os"

	"github.com/juju/errors"
)

// RollbackResult reports a restoration: a failure restoring one file is
// recorded and does not abort restoration of the remaining files.
type RollbackResult struct {
	SessionID     string
	RestoredCount int
	PerFileErrors []string
}

// Success reports whether every file was restored.
func (r *RollbackResult) Success() bool {
	return len(r.PerFileErrors) == 0
}

// Rollback restores every file in the session's manifest to its
// pre-migration bytes. sessionID may be "latest". Each restoration is
// verified by hash against the manifest.
func Rollback(root, sessionID string) (*RollbackResult, error) {
	var manifest *SessionManifest
	var err error
	if sessionID == "" || sessionID == "latest" {
		manifest, err = LatestSession(root)
	} else {
		manifest, err = ReadManifest(root, sessionID)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}

	result := &RollbackResult{SessionID: manifest.SessionID}
	for _, file := range manifest.BackedUpFiles {
		if err := restoreFile(file); err != nil {
			result.PerFileErrors = append(result.PerFileErrors,
				fmt.Sprintf("%s: %v", file.OriginalPath, err))
			continue
		}
		result.RestoredCount++
	}
	logger.Infof("rolled back session %s: %d restored, %d failed",
		manifest.SessionID, result.RestoredCount, len(result.PerFileErrors))
	return result, nil
}

func restoreFile(file BackedUpFile) error {
	data, err := os.ReadFile(file.BackupPath)
	if err != nil {
		return errors.Annotate(err, "reading backup")
	}
	if HashBytes(data) != file.ContentHash {
		return errors.Errorf("backup content hash mismatch; refusing to restore")
	}
	if err := os.WriteFile(file.OriginalPath, data, 0644); err != nil {
		return errors.Annotate(err, "writing original")
	}
	restored, err := os.ReadFile(file.OriginalPath)
	if err != nil {
		return errors.Annotate(err, "verifying restore")
	}
	if HashBytes(restored) != file.ContentHash {
		return errors.Errorf("restored content hash mismatch")
	}
	return nil
}
