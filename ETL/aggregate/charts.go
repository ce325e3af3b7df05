package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

const (
	// TopUsersLimit is the length of the top users ranking
	TopUsersLimit = 10
	// AllRoutes disables the route filter of the daily performance
	AllRoutes = "all"
)

// RoutePerformance is the used tickets and average occupancy of one route
type RoutePerformance struct {
	Route            string  `json:"route"`
	UsedTickets      int     `json:"usedTickets"`
	AverageOccupancy float64 `json:"averageOccupancy"`
	Records          int     `json:"records"`
}

// DailyPerformance is the route performance of one day of the month
type DailyPerformance struct {
	Day              int     `json:"day"`
	UsedTickets      int     `json:"usedTickets"`
	AverageOccupancy float64 `json:"averageOccupancy"`
	Records          int     `json:"records"`
}

// UserTrips is the number of confirmed validations of a user
type UserTrips struct {
	User  string `json:"usuario"`
	Trips int    `json:"trips"`
}

// HeatmapDay is the confirmed validation count of one day of the month.
// Level buckets the count relative to the busiest day, 0 (none) to 5.
type HeatmapDay struct {
	Day   int `json:"day"`
	Count int `json:"count"`
	Level int `json:"level"`
}

type accumulator struct {
	usedTickets int
	occupancy   float64
	count       int
}

func (a *accumulator) add(r models.CombinedRecord) {
	a.usedTickets += r.UsedTicketsOrZero()
	a.occupancy += r.OccupancyOrZero()
	a.count++
}

// averagePercent is the mean occupancy as a percentage rounded to two decimals
func (a accumulator) averagePercent() float64 {
	if a.count == 0 {
		return 0
	}
	return math.Round(a.occupancy/float64(a.count)*100*100) / 100
}

// RoutePerformanceByRoute groups the records by route, sorted by route name
func RoutePerformanceByRoute(records []models.CombinedRecord) []RoutePerformance {
	byRoute := make(map[string]*accumulator)
	for _, r := range records {
		acc, ok := byRoute[r.Route]
		if !ok {
			acc = &accumulator{}
			byRoute[r.Route] = acc
		}
		acc.add(r)
	}

	out := make([]RoutePerformance, 0, len(byRoute))
	for route, acc := range byRoute {
		out = append(out, RoutePerformance{
			Route:            route,
			UsedTickets:      acc.usedTickets,
			AverageOccupancy: acc.averagePercent(),
			Records:          acc.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

// DailyRoutePerformance returns one entry per day of the month of the first
// record, optionally restricted to one route (AllRoutes or "" for every route).
func DailyRoutePerformance(records []models.CombinedRecord, route string) []DailyPerformance {
	days := daysOfFirstMonth(records)
	if days == 0 {
		return nil
	}

	byDay := make([]accumulator, days+1)
	for _, r := range records {
		if route != "" && route != AllRoutes && r.Route != route {
			continue
		}
		if d := r.Day(); d >= 1 && d <= days {
			byDay[d].add(r)
		}
	}

	out := make([]DailyPerformance, days)
	for d := 1; d <= days; d++ {
		out[d-1] = DailyPerformance{
			Day:              d,
			UsedTickets:      byDay[d].usedTickets,
			AverageOccupancy: byDay[d].averagePercent(),
			Records:          byDay[d].count,
		}
	}
	return out
}

// TopUsers ranks users by confirmed validations, most first, ties by user
func TopUsers(records []models.CombinedRecord) []UserTrips {
	trips := make(map[string]int)
	for _, r := range records {
		if r.User == "" {
			continue
		}
		if _, ok := trips[r.User]; !ok {
			trips[r.User] = 0
		}
		if r.IsConfirmed() {
			trips[r.User]++
		}
	}

	out := make([]UserTrips, 0, len(trips))
	for user, n := range trips {
		out = append(out, UserTrips{User: user, Trips: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trips != out[j].Trips {
			return out[i].Trips > out[j].Trips
		}
		return out[i].User < out[j].User
	})
	if len(out) > TopUsersLimit {
		out = out[:TopUsersLimit]
	}
	return out
}

// UsageHeatmap counts the confirmed validations of each day of the month of
// the first record
func UsageHeatmap(records []models.CombinedRecord) []HeatmapDay {
	days := daysOfFirstMonth(records)
	if days == 0 {
		return nil
	}

	counts := make([]int, days+1)
	for _, r := range records {
		if !r.IsConfirmed() {
			continue
		}
		if d := r.Day(); d >= 1 && d <= days {
			counts[d]++
		}
	}

	busiest := 1
	for _, c := range counts {
		busiest = max(busiest, c)
	}

	out := make([]HeatmapDay, days)
	for d := 1; d <= days; d++ {
		out[d-1] = HeatmapDay{Day: d, Count: counts[d], Level: heatLevel(counts[d], busiest)}
	}
	return out
}

func heatLevel(count, busiest int) int {
	if count == 0 {
		return 0
	}
	intensity := math.Min(1, float64(count)/float64(busiest))
	switch {
	case intensity < 0.2:
		return 1
	case intensity < 0.4:
		return 2
	case intensity < 0.6:
		return 3
	case intensity < 0.8:
		return 4
	}
	return 5
}

// AvailableRoutes returns the distinct routes, sorted
func AvailableRoutes(records []models.CombinedRecord) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		if _, ok := seen[r.Route]; ok || r.Route == "" {
			continue
		}
		seen[r.Route] = struct{}{}
		out = append(out, r.Route)
	}
	sort.Strings(out)
	return out
}

// daysOfFirstMonth is the length of the month of the first record, 0 if none
func daysOfFirstMonth(records []models.CombinedRecord) int {
	if len(records) == 0 {
		return 0
	}
	y, m := records[0].Year(), records[0].Month()
	if y == 0 || m < 1 || m > 12 {
		return 0
	}
	return time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
