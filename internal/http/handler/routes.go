package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"storyforge/internal/http/middleware"
	"storyforge/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. db may be
// nil when history is not configured. maxUpload caps the uploaded deck size.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ConversionService, maxUpload int64) {
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/health", HealthCheck(db, svc))
	api.Get("/list-models", ListModels(svc))
	api.Post("/convert-ppt", middleware.UploadFilter("file", maxUpload, middleware.PPTMimeTypes...), ConvertPPT(svc))

	api.Get("/conversions", ListConversions(svc))
	api.Get("/conversions/:id", GetConversion(svc))
	api.Get("/conversions/:id/deck", DownloadDeck(svc))
	api.Delete("/conversions/:id", DeleteConversion(svc))
}
