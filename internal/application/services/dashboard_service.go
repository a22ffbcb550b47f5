package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pavi2003-eng/healthcare-backend/internal/application/loaders"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/repositories"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	apperrors "github.com/pavi2003-eng/healthcare-backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Dashboard sizes
const (
	UpcomingWindowDays    = 30
	UpcomingLimit         = 10
	TopRankingLimit       = 5
	RiskTrendDays         = 7
	HighRiskListLimit     = 20
	UnknownDisplayName    = "Unknown"
	hoursPerDay           = 24
	dashboardFilterLayout = "2006-01-02"
)

// DashboardFilter bounds appointment dates. EndDate covers its whole local day.
type DashboardFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// appointmentFilter converts f to a repository filter in loc
func (f DashboardFilter) appointmentFilter(loc *time.Location) repositories.AppointmentFilter {
	var out repositories.AppointmentFilter
	if f.StartDate != nil {
		from := startOfDay(*f.StartDate, loc)
		out.From = &from
	}
	if f.EndDate != nil {
		to := startOfDay(*f.EndDate, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
		out.To = &to
	}
	return out
}

func (f DashboardFilter) cacheKey(prefix string, today time.Time) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format(dashboardFilterLayout)
	}
	return fmt.Sprintf("%s%s:%s:%s", prefix, today.Format(dashboardFilterLayout), format(f.StartDate), format(f.EndDate))
}

// DashboardService builds the admin dashboard read models. Every read is
// all or nothing: a failing store call fails the whole snapshot.
type DashboardService struct {
	users        repositories.UserRepository
	doctors      repositories.DoctorRepository
	patients     repositories.PatientRepository
	appointments repositories.AppointmentRepository
	cache        providers.CacheProvider
	ttl          time.Duration
	location     *time.Location
	now          func() time.Time
	metrics      *observability.Metrics
}

// NewDashboardService creates a new dashboard service. cache may be nil.
func NewDashboardService(
	store *repositories.Store,
	cache providers.CacheProvider,
	ttl time.Duration,
	loc *time.Location,
	metrics *observability.Metrics,
) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{
		users:        store.Users,
		doctors:      store.Doctors,
		patients:     store.Patients,
		appointments: store.Appointments,
		cache:        cache,
		ttl:          ttl,
		location:     loc,
		now:          time.Now,
		metrics:      metrics,
	}
}

// WithClock replaces the clock used for "today"
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

type dashboardData struct {
	userCount    int
	doctorCount  int
	patientCount int
	patients     []*entities.Patient
	filtered     []*entities.Appointment
	upcoming     []*entities.Appointment
	trend        []*entities.Appointment
}

// Snapshot computes the dashboard for filter
func (s *DashboardService) Snapshot(ctx context.Context, filter DashboardFilter) (*entities.DashboardSnapshot, error) {
	ctx, span := observability.StartSpan(ctx, "DashboardService.Snapshot")
	defer span.End()
	started := time.Now()

	now := s.now().In(s.location)
	today := startOfDay(now, s.location)
	key := filter.cacheKey(DashboardCachePrefix+"snapshot:", today)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	data, err := s.load(ctx, filter, today)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewAggregationError("failed to build dashboard", err)
	}

	l := loaders.NewLoaders(s.patients, s.doctors)
	for _, p := range data.patients {
		l.PatientLoader.Prime(ctx, p.ID, p)
	}

	snapshot := &entities.DashboardSnapshot{
		PatientFlow:          HourlyFlow(data.filtered, s.location),
		RiskCategories:       RiskCategories(data.patients),
		AppointmentsByStatus: StatusBreakdown(data.filtered),
		RiskTrend:            RiskTrend(data.trend, data.patients, today, s.location),
		GeneratedAt:          now,
	}
	snapshot.Counts = entities.DashboardCounts{
		Users:            data.userCount,
		Doctors:          data.doctorCount,
		Patients:         data.patientCount,
		Appointments:     len(data.filtered),
		CriticalPatients: snapshot.RiskCategories.High,
	}

	if err := s.enrich(ctx, l, snapshot, data); err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewAggregationError("failed to resolve dashboard names", err)
	}

	s.store(ctx, key, snapshot)
	observability.RecordDashboardBuild(ctx, s.metrics, "snapshot", time.Since(started))
	return snapshot, nil
}

func (s *DashboardService) load(ctx context.Context, filter DashboardFilter, today time.Time) (*dashboardData, error) {
	data := &dashboardData{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.userCount, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.doctorCount, err = s.doctors.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.patientCount, err = s.patients.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.patients, err = s.patients.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.filtered, err = s.appointments.List(gctx, filter.appointmentFilter(s.location))
		return err
	})
	g.Go(func() (err error) {
		to := today.AddDate(0, 0, UpcomingWindowDays)
		data.upcoming, err = s.appointments.List(gctx, repositories.AppointmentFilter{From: &today, To: &to})
		return err
	})
	g.Go(func() (err error) {
		from := today.AddDate(0, 0, -(RiskTrendDays - 1))
		to := today.AddDate(0, 0, 1).Add(-time.Millisecond)
		data.trend, err = s.appointments.List(gctx, repositories.AppointmentFilter{From: &from, To: &to})
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *DashboardService) enrich(ctx context.Context, l *loaders.Loaders, snapshot *entities.DashboardSnapshot, data *dashboardData) error {
	upcoming := UpcomingAppointments(data.upcoming)
	topPatients := rank(data.filtered, func(a *entities.Appointment) string { return a.PatientID })
	topDoctors := rank(data.filtered, func(a *entities.Appointment) string { return a.DoctorID })

	patientIDs := make([]string, 0, len(upcoming)+len(topPatients))
	doctorIDs := make([]string, 0, len(upcoming)+len(topDoctors))
	for _, a := range upcoming {
		patientIDs = append(patientIDs, a.PatientID)
		doctorIDs = append(doctorIDs, a.DoctorID)
	}
	for _, e := range topPatients {
		patientIDs = append(patientIDs, e.ID)
	}
	for _, e := range topDoctors {
		doctorIDs = append(doctorIDs, e.ID)
	}

	var patientNames, doctorNames map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		patientNames, err = l.PatientNames(gctx, distinct(patientIDs))
		return err
	})
	g.Go(func() (err error) {
		doctorNames, err = l.DoctorNames(gctx, distinct(doctorIDs))
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snapshot.UpcomingAppointments = make([]entities.UpcomingAppointment, len(upcoming))
	for i, a := range upcoming {
		snapshot.UpcomingAppointments[i] = entities.UpcomingAppointment{
			Appointment:        a,
			PatientDisplayName: nameOr(patientNames, a.PatientID, a.PatientName),
			DoctorDisplayName:  nameOr(doctorNames, a.DoctorID, a.ConsultingDoctor),
		}
	}
	for i := range topPatients {
		topPatients[i].Name = nameOr(patientNames, topPatients[i].ID, UnknownDisplayName)
	}
	for i := range topDoctors {
		topDoctors[i].Name = nameOr(doctorNames, topDoctors[i].ID, UnknownDisplayName)
	}
	snapshot.TopPatients = topPatients
	snapshot.TopDoctors = topDoctors
	return nil
}

// HighRiskAppointments lists the most recent appointments in filter whose
// patient is currently High risk
func (s *DashboardService) HighRiskAppointments(ctx context.Context, filter DashboardFilter) ([]entities.HighRiskAppointment, error) {
	ctx, span := observability.StartSpan(ctx, "DashboardService.HighRiskAppointments")
	defer span.End()
	started := time.Now()

	appointments, err := s.appointments.List(ctx, filter.appointmentFilter(s.location))
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewAggregationError("failed to list appointments", err)
	}
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].AppointmentDate.After(appointments[j].AppointmentDate)
	})

	patientIDs := make([]string, 0, len(appointments))
	doctorIDs := make([]string, 0, len(appointments))
	for _, a := range appointments {
		patientIDs = append(patientIDs, a.PatientID)
		doctorIDs = append(doctorIDs, a.DoctorID)
	}
	patients, err := s.patients.GetByIDs(ctx, distinct(patientIDs))
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewAggregationError("failed to load patients", err)
	}
	byID := make(map[string]*entities.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}

	out := make([]entities.HighRiskAppointment, 0, HighRiskListLimit)
	for _, a := range appointments {
		p, ok := byID[a.PatientID]
		if !ok || p.Priority() != entities.RiskTierHigh {
			continue
		}
		out = append(out, entities.HighRiskAppointment{
			Appointment:    a,
			PatientDetails: entities.NewPatientRiskDetail(p),
		})
		if len(out) == HighRiskListLimit {
			break
		}
	}

	ids := make([]string, 0, len(out))
	for _, h := range out {
		ids = append(ids, h.DoctorID)
	}
	doctorNames, err := loaders.NewLoaders(s.patients, s.doctors).DoctorNames(ctx, distinct(ids))
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewAggregationError("failed to resolve doctor names", err)
	}
	for i := range out {
		out[i].DoctorName = nameOr(doctorNames, out[i].DoctorID, out[i].ConsultingDoctor)
	}

	observability.RecordDashboardBuild(ctx, s.metrics, "high_risk", time.Since(started))
	return out, nil
}

func (s *DashboardService) cached(ctx context.Context, key string) *entities.DashboardSnapshot {
	if s.cache == nil || s.ttl <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
		}
		return nil
	}
	var snapshot entities.DashboardSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

func (s *DashboardService) store(ctx context.Context, key string, snapshot *entities.DashboardSnapshot) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, int(s.ttl.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
}

// HourlyFlow counts appointments per local hour of day
func HourlyFlow(appointments []*entities.Appointment, loc *time.Location) []int {
	flow := make([]int, hoursPerDay)
	for _, a := range appointments {
		flow[a.AppointmentDate.In(loc).Hour()]++
	}
	return flow
}

// RiskCategories counts patients per current risk tier
func RiskCategories(patients []*entities.Patient) entities.RiskCounts {
	var counts entities.RiskCounts
	for _, p := range patients {
		counts.Add(p.Priority())
	}
	return counts
}

// StatusBreakdown counts appointments per status in AppointmentStatuses order
func StatusBreakdown(appointments []*entities.Appointment) []int {
	counts := make([]int, len(entities.AppointmentStatuses))
	for _, a := range appointments {
		for i, st := range entities.AppointmentStatuses {
			if a.Status == st {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// UpcomingAppointments keeps the first UpcomingLimit appointments that are
// not Completed, earliest first
func UpcomingAppointments(appointments []*entities.Appointment) []*entities.Appointment {
	out := make([]*entities.Appointment, 0, UpcomingLimit)
	for _, a := range appointments {
		if a.Status != entities.AppointmentStatusCompleted {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	if len(out) > UpcomingLimit {
		out = out[:UpcomingLimit]
	}
	return out
}

// RiskTrend counts the appointments of each of the last RiskTrendDays local
// days, ending with today, by the current tier of their patient. Appointments
// whose patient no longer exists count as Low.
func RiskTrend(appointments []*entities.Appointment, patients []*entities.Patient, today time.Time, loc *time.Location) []entities.RiskTrendPoint {
	tiers := make(map[string]entities.RiskTier, len(patients))
	for _, p := range patients {
		tiers[p.ID] = p.Priority()
	}

	first := startOfDay(today, loc).AddDate(0, 0, -(RiskTrendDays - 1))
	trend := make([]entities.RiskTrendPoint, RiskTrendDays)
	for i := range trend {
		trend[i].Date = first.AddDate(0, 0, i)
	}
	for _, a := range appointments {
		day := startOfDay(a.AppointmentDate, loc)
		for i := range trend {
			if day.Equal(trend[i].Date) {
				tier, ok := tiers[a.PatientID]
				if !ok {
					tier = entities.RiskTierLow
				}
				trend[i].Add(tier)
				break
			}
		}
	}
	return trend
}

// rank counts appointments per key and returns the TopRankingLimit largest,
// ties broken by key
func rank(appointments []*entities.Appointment, key func(*entities.Appointment) string) []entities.RankedEntry {
	counts := make(map[string]int)
	for _, a := range appointments {
		if k := key(a); k != "" {
			counts[k]++
		}
	}
	entries := make([]entities.RankedEntry, 0, len(counts))
	for id, n := range counts {
		entries = append(entries, entities.RankedEntry{ID: id, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > TopRankingLimit {
		entries = entries[:TopRankingLimit]
	}
	return entries
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nameOr(names map[string]string, id, fallback string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	if fallback == "" {
		return UnknownDisplayName
	}
	return fallback
}
