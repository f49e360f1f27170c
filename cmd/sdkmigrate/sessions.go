// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

package main

import (
	"time"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/thomhurst/sdkmigrate/internal/safety"
)

var sessionsDoc = `
Lists the restorable backup sessions under the migration root, most
recent first. Any listed session id can be passed to "sdkmigrate
rollback".
`

type sessionsCommand struct {
	cmd.CommandBase

	dir string
	out cmd.Output
}

type sessionInfo struct {
	SessionID string    `yaml:"session-id" json:"session-id"`
	StartTime time.Time `yaml:"start-time" json:"start-time"`
	Files     int       `yaml:"files" json:"files"`
}

// Info implements cmd.Command.
func (c *sessionsCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "sessions",
		Purpose: "list restorable backup sessions",
		Doc:     sessionsDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *sessionsCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.dir, "dir", ".", "migration root directory")
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters.Formatters())
}

// Init implements cmd.Command.
func (c *sessionsCommand) Init(args []string) error {
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *sessionsCommand) Run(ctx *cmd.Context) error {
	manifests, err := safety.Sessions(c.dir)
	if err != nil {
		return errors.Trace(err)
	}
	infos := make([]sessionInfo, 0, len(manifests))
	for _, manifest := range manifests {
		infos = append(infos, sessionInfo{
			SessionID: manifest.SessionID,
			StartTime: manifest.StartTime,
			Files:     len(manifest.BackedUpFiles),
		})
	}
	return errors.Trace(c.out.Write(ctx, infos))
}
