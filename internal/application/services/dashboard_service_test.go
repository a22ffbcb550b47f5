package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/memory"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
)

var dashboardNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func day(d, hour int) time.Time {
	return time.Date(2026, time.March, d, hour, 0, 0, 0, time.UTC)
}

// seedDashboard stores three patients (High, Moderate, Low), two doctors and
// six appointments, one of them for a patient that no longer exists
func seedDashboard(t *testing.T) *repositories.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	for _, p := range []*entities.Patient{
		{ID: "p1", Name: "Alice Doe", BloodPressure: ptr(150.0)},
		{ID: "p2", Name: "Bob Roe", GlucoseLevel: ptr(110.0)},
		{ID: "p3", Name: "Cara Poe", BloodPressure: ptr(110.0), GlucoseLevel: ptr(90.0)},
	} {
		require.NoError(t, store.Patients.Create(ctx, p))
	}
	for _, d := range []*entities.Doctor{
		{ID: "d1", FullName: "Jane Smith"},
		{ID: "d2", FullName: "Omar Diaz"},
	} {
		require.NoError(t, store.Doctors.Create(ctx, d))
	}
	require.NoError(t, store.Users.Create(ctx, &entities.User{Email: "admin@clinic.test", Role: entities.UserRoleAdmin}))

	for _, a := range []*entities.Appointment{
		{AppointmentID: "APT-1", PatientID: "p1", DoctorID: "d1", AppointmentDate: day(10, 9), Status: entities.AppointmentStatusScheduled},
		{AppointmentID: "APT-2", PatientID: "p2", DoctorID: "d1", AppointmentDate: day(9, 14), Status: entities.AppointmentStatusCompleted},
		{AppointmentID: "APT-3", PatientID: "p3", DoctorID: "d2", AppointmentDate: day(4, 9), Status: entities.AppointmentStatusAccepted},
		{AppointmentID: "APT-4", PatientID: "p1", DoctorID: "d1", AppointmentDate: day(15, 10), Status: entities.AppointmentStatusAccepted},
		{AppointmentID: "APT-5", PatientID: "p9", DoctorID: "d1", AppointmentDate: day(8, 11), Status: entities.AppointmentStatusCancelled, ConsultingDoctor: "Jane Smith"},
		{AppointmentID: "APT-6", PatientID: "p2", DoctorID: "d2", AppointmentDate: day(1, 8), Status: entities.AppointmentStatusScheduled},
	} {
		require.NoError(t, store.Appointments.Create(ctx, a))
	}
	return store
}

func newDashboard(store *repositories.Store, cache providers.CacheProvider) *services.DashboardService {
	return services.NewDashboardService(store, cache, 30*time.Second, time.UTC, nil).
		WithClock(func() time.Time { return dashboardNow })
}

func TestDashboardService_Snapshot(t *testing.T) {
	store := seedDashboard(t)
	snapshot, err := newDashboard(store, nil).Snapshot(context.Background(), services.DashboardFilter{})
	require.NoError(t, err)

	assert.Equal(t, entities.DashboardCounts{Users: 1, Doctors: 2, Patients: 3, Appointments: 6, CriticalPatients: 1}, snapshot.Counts)
	assert.Equal(t, entities.RiskCounts{High: 1, Moderate: 1, Low: 1}, snapshot.RiskCategories)
	assert.Equal(t, []int{2, 2, 1, 1}, snapshot.AppointmentsByStatus)

	require.Len(t, snapshot.PatientFlow, 24)
	sum := 0
	for _, n := range snapshot.PatientFlow {
		sum += n
	}
	assert.Equal(t, snapshot.Counts.Appointments, sum)
	assert.Equal(t, 2, snapshot.PatientFlow[9])

	assert.Equal(t, []entities.RankedEntry{
		{ID: "p1", Name: "Alice Doe", Count: 2},
		{ID: "p2", Name: "Bob Roe", Count: 2},
		{ID: "p3", Name: "Cara Poe", Count: 1},
		{ID: "p9", Name: services.UnknownDisplayName, Count: 1},
	}, snapshot.TopPatients)
	assert.Equal(t, []entities.RankedEntry{
		{ID: "d1", Name: "Jane Smith", Count: 4},
		{ID: "d2", Name: "Omar Diaz", Count: 2},
	}, snapshot.TopDoctors)

	require.Len(t, snapshot.UpcomingAppointments, 2)
	assert.Equal(t, "APT-1", snapshot.UpcomingAppointments[0].AppointmentID)
	assert.Equal(t, "APT-4", snapshot.UpcomingAppointments[1].AppointmentID)
	assert.Equal(t, "Alice Doe", snapshot.UpcomingAppointments[0].PatientDisplayName)
	assert.Equal(t, "Jane Smith", snapshot.UpcomingAppointments[0].DoctorDisplayName)

	require.Len(t, snapshot.RiskTrend, services.RiskTrendDays)
	assert.True(t, day(4, 0).Equal(snapshot.RiskTrend[0].Date))
	assert.True(t, day(10, 0).Equal(snapshot.RiskTrend[6].Date))
	want := []entities.RiskCounts{
		{Low: 1},      // Mar 4: p3
		{},            // Mar 5
		{},            // Mar 6
		{},            // Mar 7
		{Low: 1},      // Mar 8: deleted patient
		{Moderate: 1}, // Mar 9: p2
		{High: 1},     // Mar 10: p1
	}
	for i, w := range want {
		assert.Equal(t, w, snapshot.RiskTrend[i].RiskCounts, "trend day %d", i)
	}
}

func TestDashboardService_SnapshotFilter(t *testing.T) {
	store := seedDashboard(t)
	svc := newDashboard(store, nil)

	tests := []struct {
		name         string
		filter       services.DashboardFilter
		appointments int
		statuses     []int
	}{
		{"single day covers whole day", services.DashboardFilter{StartDate: ptr(day(9, 0)), EndDate: ptr(day(9, 0))}, 1, []int{0, 0, 1, 0}},
		{"range", services.DashboardFilter{StartDate: ptr(day(8, 0)), EndDate: ptr(day(10, 0))}, 3, []int{1, 0, 1, 1}},
		{"open start", services.DashboardFilter{EndDate: ptr(day(4, 0))}, 2, []int{1, 1, 0, 0}},
		{"empty range", services.DashboardFilter{StartDate: ptr(day(20, 0)), EndDate: ptr(day(21, 0))}, 0, []int{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot, err := svc.Snapshot(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.appointments, snapshot.Counts.Appointments)
			assert.Equal(t, tt.statuses, snapshot.AppointmentsByStatus)
			assert.Equal(t, 3, snapshot.Counts.Patients, "patient totals ignore the date filter")
			assert.Equal(t, 1, snapshot.Counts.CriticalPatients)
			assert.Len(t, snapshot.RiskTrend, services.RiskTrendDays)
		})
	}
}

func TestDashboardService_StoreFailureFailsWholeSnapshot(t *testing.T) {
	store := seedDashboard(t)
	store.Users = failingUsers{UserRepository: store.Users}

	snapshot, err := newDashboard(store, nil).Snapshot(context.Background(), services.DashboardFilter{})
	require.Error(t, err)
	assert.Nil(t, snapshot)
	assert.Equal(t, apperrors.ErrorTypeAggregationFailed, apperrors.TypeOf(err))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestDashboardService_SnapshotCache(t *testing.T) {
	store := seedDashboard(t)
	ctx := context.Background()
	key := "dashboard:snapshot:2026-03-10:-:-"

	t.Run("miss stores snapshot", func(t *testing.T) {
		cache := &mockCache{}
		cache.On("Get", mock.Anything, key).Return(nil, providers.ErrCacheMiss)
		cache.On("Set", mock.Anything, key, mock.Anything, 30).Return(nil)

		_, err := newDashboard(store, cache).Snapshot(ctx, services.DashboardFilter{})
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("hit skips store", func(t *testing.T) {
		cached := entities.DashboardSnapshot{Counts: entities.DashboardCounts{Users: 42}}
		raw, err := json.Marshal(cached)
		require.NoError(t, err)

		cache := &mockCache{}
		cache.On("Get", mock.Anything, key).Return(raw, nil)

		broken := *store
		broken.Users = failingUsers{}
		snapshot, err := newDashboard(&broken, cache).Snapshot(ctx, services.DashboardFilter{})
		require.NoError(t, err)
		assert.Equal(t, 42, snapshot.Counts.Users)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDashboardService_HighRiskAppointments(t *testing.T) {
	store := seedDashboard(t)
	ctx := context.Background()
	require.NoError(t, store.Appointments.Create(ctx, &entities.Appointment{
		AppointmentID:    "APT-7",
		PatientID:        "p1",
		DoctorID:         "d404",
		ConsultingDoctor: "Locum Lee",
		AppointmentDate:  day(12, 9),
		Status:           entities.AppointmentStatusScheduled,
	}))

	svc := newDashboard(store, nil)

	all, err := svc.HighRiskAppointments(ctx, services.DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"APT-4", "APT-7", "APT-1"}, []string{all[0].AppointmentID, all[1].AppointmentID, all[2].AppointmentID})
	assert.Equal(t, "Jane Smith", all[0].DoctorName)
	assert.Equal(t, "Locum Lee", all[1].DoctorName)
	assert.Equal(t, entities.RiskTierHigh, all[0].PatientDetails.Priority)
	assert.True(t, all[0].PatientDetails.HighRisk)
	require.NotNil(t, all[0].PatientDetails.BloodPressure)
	assert.Equal(t, 150.0, *all[0].PatientDetails.BloodPressure)

	filtered, err := svc.HighRiskAppointments(ctx, services.DashboardFilter{EndDate: ptr(day(11, 0))})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "APT-1", filtered[0].AppointmentID)
}

func TestDashboardService_HighRiskLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Patients.Create(ctx, &entities.Patient{ID: "p1", Name: "Alice Doe", GlucoseLevel: ptr(200.0)}))
	for i := 0; i < services.HighRiskListLimit+5; i++ {
		require.NoError(t, store.Appointments.Create(ctx, &entities.Appointment{
			AppointmentID:   fmt.Sprintf("APT-%d", i),
			PatientID:       "p1",
			DoctorID:        "d1",
			AppointmentDate: dashboardNow.Add(time.Duration(i) * time.Hour),
			Status:          entities.AppointmentStatusScheduled,
		}))
	}

	out, err := newDashboard(store, nil).HighRiskAppointments(ctx, services.DashboardFilter{})
	require.NoError(t, err)
	assert.Len(t, out, services.HighRiskListLimit)
	assert.True(t, out[0].AppointmentDate.After(out[1].AppointmentDate))
}

func TestUpcomingAppointments_ExcludesCompletedAndLimits(t *testing.T) {
	var in []*entities.Appointment
	for i := 0; i < 15; i++ {
		status := entities.AppointmentStatusScheduled
		if i%5 == 0 {
			status = entities.AppointmentStatusCompleted
		}
		in = append(in, &entities.Appointment{AppointmentDate: dashboardNow.Add(time.Duration(15-i) * time.Hour), Status: status})
	}

	out := services.UpcomingAppointments(in)
	require.Len(t, out, services.UpcomingLimit)
	for i, a := range out {
		assert.NotEqual(t, entities.AppointmentStatusCompleted, a.Status)
		if i > 0 {
			assert.False(t, a.AppointmentDate.Before(out[i-1].AppointmentDate))
		}
	}
}

func TestHourlyFlow_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	appointments := []*entities.Appointment{
		{AppointmentDate: time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)},
		{AppointmentDate: time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)},
	}

	flow := services.HourlyFlow(appointments, loc)
	assert.Equal(t, 1, flow[1])
	assert.Equal(t, 1, flow[10])
}

func TestAnalyticsService(t *testing.T) {
	store := seedDashboard(t)
	svc := services.NewAnalyticsService(store.Patients, nil, 0)
	ctx := context.Background()

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, &entities.AnalyticsSummary{TotalPatients: 3, HighRiskCount: 1}, summary)

	risks, err := svc.PatientRisks(ctx)
	require.NoError(t, err)
	require.Len(t, risks, 3)
	tiers := map[string]entities.RiskTier{}
	for _, r := range risks {
		tiers[r.ID] = r.Priority
	}
	assert.Equal(t, map[string]entities.RiskTier{
		"p1": entities.RiskTierHigh,
		"p2": entities.RiskTierModerate,
		"p3": entities.RiskTierLow,
	}, tiers)
}
