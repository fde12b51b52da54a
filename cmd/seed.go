/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"time"

	"unionfeed/db"
	"unionfeed/language"
	"unionfeed/models"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert demo records",
		Description: `Inserts a handful of posts, videos and comments into a migrated
database so the example feeds have something to show.

Posts are seeded without a language; it is detected from the post body among
the configured languages.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "languages",
				Value:   cli.NewStringSlice("nb", "nn"),
				Usage:   "ISO 639-1 codes to detect post languages among, english is always included",
				EnvVars: []string{"UNIONFEED_LANGUAGES"},
			},
			&cli.Float64Flag{
				Name:  "confidence-threshold",
				Value: 0.5,
				Usage: "Minimum confidence for a detected language",
			},
		},
		Action: func(ctx *cli.Context) error {
			detector, err := language.NewDetector(ctx.StringSlice("languages"), ctx.Float64("confidence-threshold"))
			if err != nil {
				return err
			}

			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			return seed(ctx, db.NewWriter(database), detector)
		},
	}
}

func seed(ctx *cli.Context, writer *db.Writer, detector *language.Detector) error {
	now := time.Now().UTC()

	posts := []*models.Post{
		{Title: "Hello from Oslo", Body: "Jeg lærer meg golang, en gopher om gangen", CreatedAt: now.Add(-3 * time.Hour)},
		{Title: "Unions in SQL", Body: "UNION ALL keeps duplicate rows while UNION removes them", CreatedAt: now.Add(-2 * time.Hour)},
		{Title: "Ferie", Body: "No er det endeleg sommarferie og eg skal vere heime i heile veka", CreatedAt: now.Add(-time.Hour)},
	}
	for _, post := range posts {
		if code, ok := detector.Detect(post.Body); ok {
			post.Language = code
		}
		if err := writer.CreatePost(ctx.Context, post); err != nil {
			return err
		}
	}

	reply := &models.Post{Title: "Re: Hello", Body: "Welcome, gopher!", Language: "en", ParentID: &posts[0].ID, CreatedAt: now}
	if err := writer.CreatePost(ctx.Context, reply); err != nil {
		return err
	}

	videos := []*models.Video{
		{Title: "Concurrency is not parallelism", URL: "https://example.com/videos/concurrency", DurationSeconds: 1860, CreatedAt: now.Add(-48 * time.Hour)},
		{Title: "Golang in production", URL: "https://example.com/videos/production", DurationSeconds: 2400, CreatedAt: now.Add(-24 * time.Hour)},
	}
	for _, video := range videos {
		if err := writer.CreateVideo(ctx.Context, video); err != nil {
			return err
		}
	}

	comments := []*models.Comment{
		{PostID: posts[0].ID, Author: "kari", Body: "Velkommen!", CreatedAt: now},
		{PostID: posts[1].ID, Author: "ola", Body: "Good to know", CreatedAt: now},
		{PostID: posts[1].ID, Author: "siri", Body: "I always forget which is which", CreatedAt: now},
	}
	for _, comment := range comments {
		if err := writer.CreateComment(ctx.Context, comment); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"posts":    len(posts) + 1,
		"videos":   len(videos),
		"comments": len(comments),
	}).Info("Seeded database")
	return nil
}
