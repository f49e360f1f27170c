// Copyright 2026 sdkmigrate contributors
// Licensed under the MIT licence, see LICENCE file for details.

// sdkmigrate converts legacy MSBuild project files to the minimal
// SDK-style format, in bulk, with backups and rollback.
package main

import (
	"fmt"
	"os"

	"github.com/juju/cmd/v4"
)

var doc = `
sdkmigrate migrates legacy .csproj and .vbproj files to the SDK-style
project format. Every run is guarded: files are backed up before their
first mutation, every mutation is audited, and a run can be undone with
"sdkmigrate rollback".
`

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(cmd.Main(newSuperCommand(), ctx, os.Args[1:]))
}

func newSuperCommand() *cmd.SuperCommand {
	super := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name: "sdkmigrate",
		Doc:  doc,
		Log:  &cmd.Log{},
	})
	super.Register(&migrateCommand{})
	super.Register(&rollbackCommand{})
	super.Register(&sessionsCommand{})
	return super
}
