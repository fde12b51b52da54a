/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"unionfeed/db"

	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Runs database migrations on the configured database. Will create the SQLite database file if it does not exist.`,
		Action: func(ctx *cli.Context) error {
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			return db.Migrate(database)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Action: func(ctx *cli.Context) error {
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			return db.Rollback(database)
		},
	}
}
