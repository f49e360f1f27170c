// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/utils/v4"

	"github.com/thomhurst/sdkmigrate/internal/safety"
)

var rollbackDoc = `
Restores every file recorded in a backup session to its pre-migration
content. Without a session id the most recent session is restored.
Restored content is verified by hash; a file that fails restoration is
reported and does not stop the remaining files from being restored.

Examples:

    sdkmigrate rollback
    sdkmigrate rollback 5f3a1c2e-8d4b-4f6a-9c7e-1b2d3e4f5a6b --dir ./src
`

type rollbackCommand struct {
	cmd.CommandBase

	dir     string
	session string
}

// Info implements cmd.Command.
func (c *rollbackCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "rollback",
		Args:    "[<session-id>]",
		Purpose: "restore files from a backup session",
		Doc:     rollbackDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *rollbackCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.dir, "dir", ".", "migration root directory")
}

// Init implements cmd.Command.
func (c *rollbackCommand) Init(args []string) error {
	session, err := cmd.ZeroOrOneArgs(args)
	if err != nil {
		return errors.Trace(err)
	}
	if session == "" {
		session = "latest"
	}
	c.session = session
	return nil
}

// Run implements cmd.Command.
func (c *rollbackCommand) Run(ctx *cmd.Context) error {
	result, err := safety.Rollback(c.dir, c.session)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintf(ctx.Stdout, "session %s: restored %d files\n",
		result.SessionID, result.RestoredCount)
	for _, failure := range result.PerFileErrors {
		fmt.Fprintf(ctx.Stderr, "failed: %s\n", failure)
	}
	if !result.Success() {
		return utils.NewRcPassthroughError(1)
	}
	return nil
}
