package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"dataplatform/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, dataSvc service.DataService, fileSvc service.FileService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	data := app.Group("/data")
	data.Post("/upload", UploadFile(dataSvc))
	data.Post("/excel", ImportMonitoringData(dataSvc))
	data.Get("/excel/template", DownloadTemplate())

	files := app.Group("/files")
	files.Get("/", ListFiles(fileSvc))
	files.Get("/:id", GetFile(fileSvc))
	files.Get("/:id/url", PresignFile(fileSvc))
}
