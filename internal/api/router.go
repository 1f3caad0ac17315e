package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"go-measure-pipeline/internal/api/handler"
	"go-measure-pipeline/pkg/router"

	_ "go-measure-pipeline/docs"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/ingest", h.Ingest)
	r.GET("/api/v1/summaries", h.ListSummaries)
	r.GET("/api/v1/summaries/export", h.ExportSummaries)
	r.GET("/api/v1/files/*/records", h.GetRecentRecords)
	r.GET("/api/v1/files/*/summary", h.GetFileSummary)
	r.GET("/api/v1/stats", h.GetStats)
	r.GET("/api/v1/health", h.Health)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
