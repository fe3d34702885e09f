package main

import (
	"fmt"

	"github.com/mkabeya/kazi/storage/database"
)

var ( // mockable
	migrateUpFunc   = database.Migrate
	migrateDownFunc = database.MigrateDown
)

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	switch args[0] {
	case "up":
		return migrateUpFunc(cli.db)
	case "down":
		return migrateDownFunc(cli.db)
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
}
