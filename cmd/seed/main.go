package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters"
	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/events"
	"github.com/pavi2003-eng/healthcare-backend/internal/application/services"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/entities"
	"github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/observability"
	"github.com/pavi2003-eng/healthcare-backend/pkg/config"
)

type seedDoctor struct {
	name           string
	email          string
	specialization string
}

type seedPatient struct {
	name          string
	email         string
	age           int
	gender        string
	bloodPressure float64
	glucoseLevel  float64
}

var doctors = []seedDoctor{
	{name: "Jane Smith", email: "jane.smith@clinic.local", specialization: "Cardiology"},
	{name: "Ravi Kumar", email: "ravi.kumar@clinic.local", specialization: "Endocrinology"},
	{name: "Maria Lopez", email: "maria.lopez@clinic.local", specialization: "General Practice"},
}

var patients = []seedPatient{
	{name: "Alice Doe", email: "alice@example.com", age: 34, gender: "Female", bloodPressure: 118, glucoseLevel: 92},
	{name: "Bob Martin", email: "bob@example.com", age: 61, gender: "Male", bloodPressure: 152, glucoseLevel: 160},
	{name: "Chen Wei", email: "chen@example.com", age: 47, gender: "Male", bloodPressure: 128, glucoseLevel: 105},
	{name: "Dana Fox", email: "dana@example.com", age: 29, gender: "Female", bloodPressure: 110, glucoseLevel: 88},
}

var slots = []string{"9:00 AM", "10:30 AM", "2:00 PM", "4:15 PM"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("healthcare-seed", cfg.App.Environment)
	logger := observability.GetLogger()

	ctx := context.Background()
	loc, err := cfg.App.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	store, err := adapters.OpenStore(ctx, cfg, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close(ctx)

	if n, err := store.Users.Count(ctx); err == nil && n > 0 && os.Getenv("SEED_FORCE") != "true" {
		logger.Info().Int("users", n).Msg("store already has accounts, skipping (set SEED_FORCE=true to seed anyway)")
		return
	}

	admin := &entities.User{ID: uuid.New().String(), Name: "Clinic Admin", Email: "admin@clinic.local", Role: entities.UserRoleAdmin}
	if err := store.Users.Create(ctx, admin); err != nil {
		logger.Error().Err(err).Msg("failed to create admin account")
	}

	doctorIDs := make([]string, 0, len(doctors))
	for _, d := range doctors {
		doctor := &entities.Doctor{ID: uuid.New().String(), FullName: d.name, Email: d.email, Specialization: d.specialization}
		user := &entities.User{ID: uuid.New().String(), Name: d.name, Email: d.email, Role: entities.UserRoleDoctor, DoctorID: doctor.ID}
		doctor.UserID = user.ID
		if err := store.Doctors.Create(ctx, doctor); err != nil {
			logger.Error().Err(err).Str("doctor", d.name).Msg("failed to create doctor")
			continue
		}
		if err := store.Users.Create(ctx, user); err != nil {
			logger.Error().Err(err).Str("doctor", d.name).Msg("failed to create doctor account")
		}
		doctorIDs = append(doctorIDs, doctor.ID)
	}

	patientRows := make([]*entities.Patient, 0, len(patients))
	for _, p := range patients {
		bp, glucose := p.bloodPressure, p.glucoseLevel
		patient := &entities.Patient{
			ID:            uuid.New().String(),
			Name:          p.name,
			Email:         p.email,
			Age:           p.age,
			Gender:        p.gender,
			BloodPressure: &bp,
			GlucoseLevel:  &glucose,
		}
		user := &entities.User{ID: uuid.New().String(), Name: p.name, Email: p.email, Role: entities.UserRolePatient, PatientID: patient.ID}
		patient.UserID = user.ID
		if err := store.Patients.Create(ctx, patient); err != nil {
			logger.Error().Err(err).Str("patient", p.name).Msg("failed to create patient")
			continue
		}
		if err := store.Users.Create(ctx, user); err != nil {
			logger.Error().Err(err).Str("patient", p.name).Msg("failed to create patient account")
		}
		patientRows = append(patientRows, patient)
	}

	if len(doctorIDs) == 0 || len(patientRows) == 0 {
		logger.Fatal().Msg("nothing to book appointments against")
	}

	// Bookings go through the service so the doctor notifications are
	// created as they would be for real requests. Emails are not sent.
	tasks := events.NewLocalTaskQueue(len(patientRows) * len(slots))
	defer tasks.Close()
	notificationService := services.NewNotificationService(store.Notifications, nil)
	dispatcher := services.NewSideEffectDispatcher(store, notificationService, tasks, observability.NewDegradationSink(nil), loc)
	appointmentService := services.NewAppointmentService(store, dispatcher, nil)

	today := time.Now().In(loc)
	booked := 0
	for i, p := range patientRows {
		for day := 0; day < 3; day++ {
			date := time.Date(today.Year(), today.Month(), today.Day()+day+i, 0, 0, 0, 0, loc)
			age := p.Age
			appointment, err := appointmentService.Book(ctx, services.BookAppointmentCommand{
				PatientID:         p.ID,
				DoctorID:          doctorIDs[(i+day)%len(doctorIDs)],
				PatientName:       p.Name,
				PatientEmail:      p.Email,
				PatientGender:     p.Gender,
				PatientAge:        &age,
				AppointmentDate:   date,
				AppointmentTime:   slots[(i+day)%len(slots)],
				AppointmentReason: "Routine check-up",
				AppointmentType:   "Consultation",
			})
			if err != nil {
				logger.Error().Err(err).Str("patient", p.Name).Msg("failed to book appointment")
				continue
			}
			booked++
			if day == 0 {
				if _, err := appointmentService.Accept(ctx, appointment.ID); err != nil {
					logger.Error().Err(err).Str("appointment_id", appointment.ID).Msg("failed to accept appointment")
				}
			}
		}
	}

	logger.Info().
		Int("doctors", len(doctorIDs)).
		Int("patients", len(patientRows)).
		Int("appointments", booked).
		Msg("seeding completed")
}
