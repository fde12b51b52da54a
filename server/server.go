package server

import (
	"errors"
	"time"

	"unionfeed/db"
	"unionfeed/feeds"
	"unionfeed/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type ServerConfig struct {

	// The database feeds are read from
	Executor db.Executor

	// SQL dialect of the database
	Flavor sqlbuilder.Flavor

	// Record types the feeds may reference
	Registry *registry.Registry

	// Configured feeds keyed by id
	Feeds feeds.FeedMap
}

type feedDescription struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

type feedResponse struct {
	Feed  string       `json:"feed"`
	Items []feeds.Item `json:"items"`
}

// Returns a fiber.App instance serving the configured feeds as JSON
func Server(config *ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(compress.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/feeds", func(c *fiber.Ctx) error {
		descriptions := []feedDescription{}
		for _, def := range config.Feeds.Sorted() {
			descriptions = append(descriptions, feedDescription{
				Id:          def.Id,
				DisplayName: def.DisplayName,
				Description: def.Description,
			})
		}
		return c.JSON(descriptions)
	})

	app.Get("/feeds/:id", func(c *fiber.Ctx) error {
		agg, err := config.aggregator(c.Params("id"))
		if err != nil {
			return err
		}

		items, err := agg.Get(c.UserContext())
		if err != nil {
			return err
		}
		if items == nil {
			items = []feeds.Item{}
		}
		return c.JSON(feedResponse{Feed: c.Params("id"), Items: items})
	})

	app.Get("/feeds/:id/count", func(c *fiber.Ctx) error {
		agg, err := config.aggregator(c.Params("id"))
		if err != nil {
			return err
		}

		total, err := agg.Count(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"total": total})
	})

	app.Get("/feeds/:id/sql", func(c *fiber.Ctx) error {
		agg, err := config.aggregator(c.Params("id"))
		if err != nil {
			return err
		}

		query, args, err := agg.ToSQL()
		if err != nil {
			return err
		}
		if args == nil {
			args = []interface{}{}
		}
		return c.JSON(fiber.Map{"sql": query, "args": args})
	})

	return app
}

// aggregator builds a request scoped aggregator for the feed with the given id
func (config *ServerConfig) aggregator(id string) (*feeds.Aggregator, error) {
	def, ok := config.Feeds[id]
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "Unknown feed")
	}
	return def.Aggregator(config.Executor, config.Registry, config.Flavor), nil
}

// errorHandler maps feed errors onto HTTP status codes
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Error generating feed"

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	case feeds.IsEmptyFeed(err):
		status = fiber.StatusUnprocessableEntity
		message = err.Error()
	case feeds.IsIntegrity(err):
		status = fiber.StatusConflict
		message = err.Error()
	}

	if status >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.Path(),
			"error": err,
		}).Error("Error serving feed")
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}
