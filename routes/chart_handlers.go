// routes/chart_handlers.go
package routes

import (
	"net/http"
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/aggregate"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

// RoutesChartResponse is the per-route performance
type RoutesChartResponse struct {
	Routes          []aggregate.RoutePerformance `json:"routes"`
	AvailableRoutes []string                     `json:"availableRoutes"`
}

// DailyChartResponse is the per-day performance of one route or all routes
type DailyChartResponse struct {
	Route string                       `json:"route"`
	Days  []aggregate.DailyPerformance `json:"days"`
}

// TopUsersResponse is the ranking of riders by confirmed trips
type TopUsersResponse struct {
	Users []aggregate.UserTrips `json:"users"`
}

// HeatmapResponse is the count of confirmed validations per day of month
type HeatmapResponse struct {
	Days []aggregate.HeatmapDay `json:"days"`
}

// selectRecords returns the filtered records of the newest successful run.
// It writes a 400 response and returns false when the filter is invalid.
func selectRecords(w http.ResponseWriter, r *http.Request, pipeline Pipeline) ([]models.CombinedRecord, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	out := pipeline.Latest()
	if out == nil || out.Failed() {
		return nil, true
	}
	return filter.Select(out.CombinedData), true
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// RoutePerformanceHandler serves /api/charts/routes
func RoutePerformanceHandler(pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := selectRecords(w, r, pipeline)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, RoutesChartResponse{
			Routes:          orEmpty(aggregate.RoutePerformanceByRoute(records)),
			AvailableRoutes: orEmpty(aggregate.AvailableRoutes(records)),
		})
	}
}

// DailyPerformanceHandler serves /api/charts/daily?route=
func DailyPerformanceHandler(pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := selectRecords(w, r, pipeline)
		if !ok {
			return
		}
		route := strings.TrimSpace(r.URL.Query().Get("route"))
		if route == "" {
			route = aggregate.AllRoutes
		}
		writeJSON(w, http.StatusOK, DailyChartResponse{
			Route: route,
			Days:  orEmpty(aggregate.DailyRoutePerformance(records, route)),
		})
	}
}

// TopUsersHandler serves /api/charts/top-users
func TopUsersHandler(pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := selectRecords(w, r, pipeline)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, TopUsersResponse{Users: orEmpty(aggregate.TopUsers(records))})
	}
}

// HeatmapHandler serves /api/charts/heatmap
func HeatmapHandler(pipeline Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, ok := selectRecords(w, r, pipeline)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, HeatmapResponse{Days: orEmpty(aggregate.UsageHeatmap(records))})
	}
}
