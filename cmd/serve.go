/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unionfeed/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the configured feeds",
		Description: `Starts the unionfeed HTTP server.

Serves every feed from the configuration file as JSON. Each request builds
its own aggregator, runs the combined query and reloads the full records.
Prometheus metrics are exposed on /metrics.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "0.0.0.0",
				Usage:   "Host to listen on",
				EnvVars: []string{"UNIONFEED_HOST"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3000,
				Usage:   "Port to listen on",
				EnvVars: []string{"UNIONFEED_PORT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			reg, err := newRegistry()
			if err != nil {
				return err
			}

			defs, err := loadFeeds(ctx, reg)
			if err != nil {
				return err
			}

			app := server.Server(&server.ServerConfig{
				Executor: database,
				Flavor:   database.Flavor(),
				Registry: reg,
				Feeds:    defs,
			})

			// Graceful shutdown
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigs
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
					log.Errorf("Error shutting down server: %v", err)
				}
			}()

			address := fmt.Sprintf("%s:%d", ctx.String("host"), ctx.Int("port"))
			log.WithFields(log.Fields{"address": address}).Info("Starting server")
			return app.Listen(address)
		},
	}
}
