// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/LilVoxy/mayabus_analytics/ETL/extractors"
	"github.com/LilVoxy/mayabus_analytics/ETL/metrics"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
	"github.com/LilVoxy/mayabus_analytics/websocket"
)

// Pipeline runs reconciliations and keeps the newest result
type Pipeline interface {
	Submit(datasets models.Datasets) (string, error)
	Latest() *models.ProcessedData
}

// BackupStore reads persisted backup snapshots
type BackupStore interface {
	LatestBackup() (string, *models.BackupSnapshot, error)
}

// Dependencies are the collaborators of the API handlers
type Dependencies struct {
	Files          *extractors.FileSet
	Pipeline       Pipeline
	Hub            *websocket.Manager
	Metrics        *metrics.Metrics
	Backups        BackupStore
	Logger         *utils.ETLLogger
	MaxUploadBytes int64
	AllowedOrigins []string
}

// SetupRoutes registers the API, websocket and metrics routes
func SetupRoutes(router *mux.Router, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = utils.NewTestLogger()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 32 << 20
	}

	router.Use(handlers.CORS(
		handlers.AllowedOrigins(deps.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	))

	handle := func(path, name string, h http.Handler, methods ...string) {
		router.Handle(path, deps.Metrics.WrapHandler(name, h)).Methods(append(methods, http.MethodOptions)...)
	}

	// files
	handle("/api/files", "files_list", ListFilesHandler(deps.Files), http.MethodGet)
	handle("/api/files/{category}", "files_upload", UploadFileHandler(deps), http.MethodPost)
	handle("/api/files/{category}/{name}", "files_delete", DeleteFileHandler(deps), http.MethodDelete)

	// results
	handle("/api/dashboard", "dashboard", DashboardHandler(deps.Pipeline), http.MethodGet)
	handle("/api/backup", "backup", BackupHandler(deps.Pipeline, deps.Backups, deps.Logger), http.MethodGet)
	handle("/api/charts/routes", "charts_routes", RoutePerformanceHandler(deps.Pipeline), http.MethodGet)
	handle("/api/charts/daily", "charts_daily", DailyPerformanceHandler(deps.Pipeline), http.MethodGet)
	handle("/api/charts/top-users", "charts_top_users", TopUsersHandler(deps.Pipeline), http.MethodGet)
	handle("/api/charts/heatmap", "charts_heatmap", HeatmapHandler(deps.Pipeline), http.MethodGet)

	if deps.Hub != nil {
		router.HandleFunc("/ws", deps.Hub.HandleConnections)
	}
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}
}
