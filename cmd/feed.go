/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"unionfeed/feeds"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func feedFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "feed",
		Aliases:  []string{"f"},
		Usage:    "Id of the feed in the configuration file",
		Required: true,
	}
}

func countCmd() *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Count the records of a feed",
		Flags: []cli.Flag{feedFlag()},
		Action: func(ctx *cli.Context) error {
			return withAggregator(ctx, func(agg *feeds.Aggregator) error {
				total, err := agg.Count(ctx.Context)
				if err != nil {
					return err
				}
				fmt.Fprintln(ctx.App.Writer, total)
				return nil
			})
		},
	}
}

func sqlCmd() *cli.Command {
	return &cli.Command{
		Name:  "sql",
		Usage: "Print the combined query of a feed",
		Flags: []cli.Flag{feedFlag()},
		Action: func(ctx *cli.Context) error {
			return withAggregator(ctx, func(agg *feeds.Aggregator) error {
				query, args, err := agg.ToSQL()
				if err != nil {
					return err
				}
				fmt.Fprintln(ctx.App.Writer, query)
				for i, arg := range args {
					fmt.Fprintf(ctx.App.Writer, "-- $%d = %v\n", i+1, arg)
				}
				return nil
			})
		},
	}
}

func getCmd() *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Print the records of a feed",
		Description: `Runs the combined query of a feed and prints every record.

Returns each record as a JSON object on a single line, with its tag and type
name added. Use a tool like jq to process the output.

Prints all other log messages to stderr.`,
		Flags: []cli.Flag{feedFlag()},
		Action: func(ctx *cli.Context) error {
			// Keep stdout for records
			log.SetOutput(os.Stderr)

			return withAggregator(ctx, func(agg *feeds.Aggregator) error {
				items, err := agg.Get(ctx.Context)
				if err != nil {
					return err
				}

				encoder := json.NewEncoder(ctx.App.Writer)
				for _, item := range items {
					if err := encoder.Encode(item); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// withAggregator opens the database, loads the configured feeds and passes
// the aggregator of the requested feed to fn.
func withAggregator(ctx *cli.Context, fn func(agg *feeds.Aggregator) error) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	defs, err := loadFeeds(ctx, reg)
	if err != nil {
		return err
	}

	def, ok := defs[ctx.String("feed")]
	if !ok {
		return fmt.Errorf("unknown feed %q", ctx.String("feed"))
	}

	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(def.Aggregator(database, reg, database.Flavor()))
}
