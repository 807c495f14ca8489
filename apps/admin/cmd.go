package main

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/umarmughal824/micromasters-sub002/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sqlx.DB
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate  - apply pending database migrations")
	fmt.Println("  backfill - mark all channel memberships for re-sync and run a sync batch")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "backfill":
		return cli.backfill()
	default:
		cli.printUsage()
		return errHelp
	}
}
