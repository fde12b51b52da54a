/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"unionfeed/config"
	"unionfeed/db"
	"unionfeed/feeds"
	"unionfeed/models"
	"unionfeed/registry"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "unionfeed",
		Usage: "Serve feeds combining records of several types",
		Description: `Unionfeed merges several tagged queries over posts, videos and
		comments into one SQL UNION and reloads the full records in the order
		the database returned them.

		Feeds are configured in a TOML file and can be served over HTTP or
		inspected from the command line.

		Flags can generally be set via environment variables, e.g.:

		--dsn => UNIONFEED_DSN=feed.db
		--port => UNIONFEED_PORT=3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "driver",
				Value:   db.DriverSQLite,
				Usage:   "Database driver, sqlite or postgres",
				EnvVars: []string{"UNIONFEED_DRIVER"},
			},
			&cli.StringFlag{
				Name:    "dsn",
				Aliases: []string{"d"},
				Value:   "feed.db",
				Usage:   "SQLite database file or PostgreSQL connection URL",
				EnvVars: []string{"UNIONFEED_DSN"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config/feeds.toml",
				Usage:   "Path to feeds configuration file",
				EnvVars: []string{"UNIONFEED_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"UNIONFEED_LOG_LEVEL"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			seedCmd(),
			countCmd(),
			sqlCmd(),
			getCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func openDatabase(ctx *cli.Context) (*db.DB, error) {
	log.WithFields(log.Fields{
		"driver": ctx.String("driver"),
	}).Info("Connecting to database")

	return db.Open(ctx.Context, db.Config{
		Driver:      ctx.String("driver"),
		DSN:         ctx.String("dsn"),
		PingRetries: 5,
	})
}

func newRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := models.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func loadFeeds(ctx *cli.Context, reg *registry.Registry) (feeds.FeedMap, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, err
	}

	defs, err := feeds.InitializeFeeds(cfg, reg)
	if err != nil {
		return nil, fmt.Errorf("invalid feed configuration: %w", err)
	}

	log.WithFields(log.Fields{
		"config": ctx.String("config"),
		"feeds":  len(defs),
	}).Info("Loaded feeds")
	return defs, nil
}
