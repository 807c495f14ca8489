package main

import (
	"github.com/umarmughal824/micromasters-sub002/storage/database"
)

func (cli *commandLine) migrate() error {
	return database.Migrate(cli.db.DB)
}
