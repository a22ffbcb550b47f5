package entities

import (
	"encoding/json"
	"time"
)

// Patient represents a patient profile and its latest vitals
type Patient struct {
	ID            string    `json:"id" db:"id" bson:"_id"`
	UserID        string    `json:"userId,omitempty" db:"user_id" bson:"userId,omitempty"`
	Name          string    `json:"name" db:"name" bson:"name"`
	Email         string    `json:"email,omitempty" db:"email" bson:"email,omitempty"`
	Age           int       `json:"age" db:"age" bson:"age"`
	Gender        string    `json:"gender,omitempty" db:"gender" bson:"gender,omitempty"`
	BloodPressure *float64  `json:"bloodPressure,omitempty" db:"blood_pressure" bson:"bloodPressure,omitempty"`
	GlucoseLevel  *float64  `json:"glucoseLevel,omitempty" db:"glucose_level" bson:"glucoseLevel,omitempty"`
	HeartRate     *float64  `json:"heartRate,omitempty" db:"heart_rate" bson:"heartRate,omitempty"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// Priority returns the patient's current risk tier
func (p *Patient) Priority() RiskTier {
	return ClassifyRisk(p.BloodPressure, p.GlucoseLevel)
}

// MarshalJSON adds the derived priority, which is never stored
func (p Patient) MarshalJSON() ([]byte, error) {
	type patient Patient
	return json.Marshal(struct {
		patient
		Priority RiskTier `json:"priority"`
	}{
		patient:  patient(p),
		Priority: p.Priority(),
	})
}

// PatientVitals is a partial vitals update; nil fields are left unchanged
type PatientVitals struct {
	BloodPressure *float64 `json:"bloodPressure,omitempty" validate:"omitempty,gt=0"`
	GlucoseLevel  *float64 `json:"glucoseLevel,omitempty" validate:"omitempty,gt=0"`
	HeartRate     *float64 `json:"heartRate,omitempty" validate:"omitempty,gt=0"`
}

// IsEmpty reports whether no vital was supplied
func (v PatientVitals) IsEmpty() bool {
	return v.BloodPressure == nil && v.GlucoseLevel == nil && v.HeartRate == nil
}

// Apply copies the supplied vitals onto p
func (v PatientVitals) Apply(p *Patient) {
	if v.BloodPressure != nil {
		p.BloodPressure = v.BloodPressure
	}
	if v.GlucoseLevel != nil {
		p.GlucoseLevel = v.GlucoseLevel
	}
	if v.HeartRate != nil {
		p.HeartRate = v.HeartRate
	}
}
