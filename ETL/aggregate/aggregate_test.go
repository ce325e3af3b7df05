package aggregate

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func record(date, user string, userType models.UserType, pass *string) models.CombinedRecord {
	return models.CombinedRecord{
		Date:      date,
		User:      user,
		UserType:  userType,
		Route:     "R1",
		Validated: models.ValidationConfirmed,
		PassType:  pass,
	}
}

func sampleRecords() []models.CombinedRecord {
	return []models.CombinedRecord{
		record("2024-03-01", "a@x.com", models.UserTypeStudent, strPtr("Pase Semestral")),
		record("2024-03-02", "b@x.com", models.UserTypeStaff, strPtr("MENSUAL COLABORADOR")),
		record("2023-12-31", "c@x.com", models.UserTypeStudent, strPtr("semanal redondo")),
		record("2024-01-15", "d@x.com", models.UserTypeUnknown, nil),
		record("2024-03-05", "e@x.com", models.UserTypeStudent, strPtr("Invitado especial")),
		record("2024-03-06", "f@x.com", models.UserTypeStaff, strPtr("verano")),
	}
}

func TestComputeKPIs(t *testing.T) {
	kpis := ComputeKPIs(sampleRecords())

	assert.Equal(t, models.KPISummary{
		TotalTickets:            6,
		TotalEstudiantes:        3,
		TotalColaboradores:      2,
		PasesSemestrales:        1,
		PasesSemanales:          1,
		PasesRedondos:           1,
		PasesVerano:             1,
		PasesMensualColaborador: 1,
		PasesEspeciales:         1,
		PasesInvitado:           1,
	}, *kpis)
}

func TestComputeKPIsEmpty(t *testing.T) {
	assert.Equal(t, models.KPISummary{}, *ComputeKPIs(nil))
}

func TestComputeKPIsIsOrderIndependent(t *testing.T) {
	records := sampleRecords()
	want := *ComputeKPIs(records)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.CombinedRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, *ComputeKPIs(shuffled))
	}
}

func TestAvailablePeriods(t *testing.T) {
	records := sampleRecords()
	assert.Equal(t, []string{"2024", "2023"}, AvailableYears(records))
	assert.Equal(t, []string{"1", "3", "12"}, AvailableMonths(records))
	assert.Empty(t, AvailableYears(nil))
}

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name                  string
		year, month, userType string
		want                  Filter
		wantErr               bool
	}{
		{name: "defaults", want: Filter{}},
		{name: "all", year: "all", month: "all", userType: "Todos", want: Filter{}},
		{name: "specific", year: "2024", month: "3", userType: "Estudiante", want: Filter{Year: 2024, Month: 3, UserType: models.UserTypeStudent}},
		{name: "staff", userType: "colaborador", want: Filter{UserType: models.UserTypeStaff}},
		{name: "bad year", year: "20x4", wantErr: true},
		{name: "bad month", month: "13", wantErr: true},
		{name: "bad user type", userType: "Desconocido", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFilter(tt.year, tt.month, tt.userType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterApplyRecomputesKPIs(t *testing.T) {
	f, err := NewFilter("2024", "3", "Estudiante")
	require.NoError(t, err)

	view := f.Apply(sampleRecords())

	require.Len(t, view.Records, 2)
	assert.Equal(t, "a@x.com", view.Records[0].User)
	assert.Equal(t, "e@x.com", view.Records[1].User)
	assert.Equal(t, 2, view.KPIs.TotalTickets)
	assert.Equal(t, 2, view.KPIs.TotalEstudiantes)
	assert.Zero(t, view.KPIs.TotalColaboradores)
	assert.Equal(t, 1, view.KPIs.PasesInvitado)
}

func TestFilterAllMatchesInitialKPIs(t *testing.T) {
	records := sampleRecords()
	view := Filter{}.Apply(records)
	assert.Equal(t, ComputeKPIs(records), view.KPIs)
	assert.Equal(t, records, view.Records)
}

func TestRoutePerformanceByRoute(t *testing.T) {
	records := []models.CombinedRecord{
		{Date: "2024-03-01", Route: "B", UsedTickets: intPtr(5), Occupancy: floatPtr(0.5)},
		{Date: "2024-03-01", Route: "A", UsedTickets: intPtr(2), Occupancy: floatPtr(0.2)},
		{Date: "2024-03-02", Route: "B", UsedTickets: intPtr(3), Occupancy: floatPtr(0.25)},
		{Date: "2024-03-02", Route: "B"},
	}

	got := RoutePerformanceByRoute(records)

	require.Len(t, got, 2)
	assert.Equal(t, RoutePerformance{Route: "A", UsedTickets: 2, AverageOccupancy: 20, Records: 1}, got[0])
	assert.Equal(t, RoutePerformance{Route: "B", UsedTickets: 8, AverageOccupancy: 25, Records: 3}, got[1])
}

func TestDailyRoutePerformance(t *testing.T) {
	records := []models.CombinedRecord{
		{Date: "2024-02-01", Route: "A", UsedTickets: intPtr(5), Occupancy: floatPtr(0.5)},
		{Date: "2024-02-01", Route: "B", UsedTickets: intPtr(1), Occupancy: floatPtr(0.1)},
		{Date: "2024-02-29", Route: "A", UsedTickets: intPtr(4), Occupancy: floatPtr(0.3333)},
	}

	all := DailyRoutePerformance(records, AllRoutes)
	require.Len(t, all, 29)
	assert.Equal(t, 6, all[0].UsedTickets)
	assert.Equal(t, 30.0, all[0].AverageOccupancy)
	assert.Equal(t, 33.33, all[28].AverageOccupancy)
	assert.Zero(t, all[10].UsedTickets)

	onlyB := DailyRoutePerformance(records, "B")
	assert.Equal(t, 1, onlyB[0].UsedTickets)
	assert.Zero(t, onlyB[28].Records)

	assert.Nil(t, DailyRoutePerformance(nil, AllRoutes))
}

func TestTopUsers(t *testing.T) {
	var records []models.CombinedRecord
	for i := 0; i < 12; i++ {
		user := fmt.Sprintf("u%02d@x.com", i)
		for j := 0; j <= i; j++ {
			records = append(records, models.CombinedRecord{Date: "2024-03-01", User: user, Validated: models.ValidationConfirmed})
		}
	}
	records = append(records,
		models.CombinedRecord{Date: "2024-03-01", User: "u11@x.com", Validated: models.ValidationNotConfirmed},
		models.CombinedRecord{Date: "2024-03-01", User: ""},
	)

	top := TopUsers(records)

	require.Len(t, top, TopUsersLimit)
	assert.Equal(t, UserTrips{User: "u11@x.com", Trips: 12}, top[0])
	assert.Equal(t, UserTrips{User: "u02@x.com", Trips: 3}, top[9])
}

func TestTopUsersTiesByUser(t *testing.T) {
	top := TopUsers([]models.CombinedRecord{
		{User: "b", Validated: models.ValidationConfirmed},
		{User: "a", Validated: models.ValidationConfirmed},
		{User: "c", Validated: models.ValidationNotConfirmed},
	})
	assert.Equal(t, []UserTrips{{User: "a", Trips: 1}, {User: "b", Trips: 1}, {User: "c", Trips: 0}}, top)
}

func TestUsageHeatmap(t *testing.T) {
	records := []models.CombinedRecord{
		{Date: "2024-04-03", Validated: models.ValidationConfirmed},
		{Date: "2024-04-03", Validated: models.ValidationConfirmed},
		{Date: "2024-04-03", Validated: models.ValidationNotConfirmed},
		{Date: "2024-04-10", Validated: models.ValidationConfirmed},
		{Date: "2024-05-10", Validated: models.ValidationConfirmed},
	}

	days := UsageHeatmap(records)

	require.Len(t, days, 30)
	assert.Equal(t, HeatmapDay{Day: 3, Count: 2, Level: 5}, days[2])
	assert.Equal(t, HeatmapDay{Day: 10, Count: 2, Level: 5}, days[9])
	assert.Equal(t, HeatmapDay{Day: 1, Count: 0, Level: 0}, days[0])
	assert.Nil(t, UsageHeatmap(nil))
}

func TestHeatLevel(t *testing.T) {
	assert.Equal(t, 0, heatLevel(0, 10))
	assert.Equal(t, 1, heatLevel(1, 10))
	assert.Equal(t, 2, heatLevel(3, 10))
	assert.Equal(t, 3, heatLevel(5, 10))
	assert.Equal(t, 4, heatLevel(7, 10))
	assert.Equal(t, 5, heatLevel(10, 10))
}

func TestAvailableRoutes(t *testing.T) {
	routes := AvailableRoutes([]models.CombinedRecord{{Route: "B"}, {Route: "A"}, {Route: "B"}, {Route: ""}})
	assert.Equal(t, []string{"A", "B"}, routes)
}
