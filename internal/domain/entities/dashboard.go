package entities

import "time"

// DashboardCounts holds the raw totals shown on the admin dashboard.
// Appointments is date-scoped; the other counts are global.
type DashboardCounts struct {
	Users            int `json:"users"`
	Doctors          int `json:"doctors"`
	Patients         int `json:"patients"`
	Appointments     int `json:"appointments"`
	CriticalPatients int `json:"criticalPatients"`
}

// RiskCounts holds a count per risk tier
type RiskCounts struct {
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
}

// Add increments the counter for tier
func (c *RiskCounts) Add(tier RiskTier) {
	switch tier {
	case RiskTierHigh:
		c.High++
	case RiskTierModerate:
		c.Moderate++
	default:
		c.Low++
	}
}

// Total returns the sum over all tiers
func (c RiskCounts) Total() int {
	return c.High + c.Moderate + c.Low
}

// RankedEntry is one row of a top-N ranking
type RankedEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RiskTrendPoint holds one day of the risk trend
type RiskTrendPoint struct {
	Date time.Time `json:"date"`
	RiskCounts
}

// UpcomingAppointment is an appointment enriched with display names
type UpcomingAppointment struct {
	*Appointment
	PatientDisplayName string `json:"patientDisplayName"`
	DoctorDisplayName  string `json:"doctorDisplayName"`
}

// DashboardSnapshot is one read-only computation of the admin dashboard
type DashboardSnapshot struct {
	Counts               DashboardCounts       `json:"counts"`
	PatientFlow          []int                 `json:"patientFlow"`
	RiskCategories       RiskCounts            `json:"riskCategories"`
	UpcomingAppointments []UpcomingAppointment `json:"upcomingAppointments"`
	AppointmentsByStatus []int                 `json:"appointmentsByStatus"`
	TopPatients          []RankedEntry         `json:"topPatients"`
	TopDoctors           []RankedEntry         `json:"topDoctors"`
	RiskTrend            []RiskTrendPoint      `json:"riskTrend"`
	GeneratedAt          time.Time             `json:"generatedAt"`
}

// PatientRiskDetail is a patient's vitals with the derived tier
type PatientRiskDetail struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Age           int      `json:"age"`
	BloodPressure *float64 `json:"bloodPressure,omitempty"`
	GlucoseLevel  *float64 `json:"glucoseLevel,omitempty"`
	HeartRate     *float64 `json:"heartRate,omitempty"`
	Priority      RiskTier `json:"priority"`
	HighRisk      bool     `json:"highRisk"`
}

// NewPatientRiskDetail builds the risk detail view of p
func NewPatientRiskDetail(p *Patient) PatientRiskDetail {
	tier := p.Priority()
	return PatientRiskDetail{
		ID:            p.ID,
		Name:          p.Name,
		Age:           p.Age,
		BloodPressure: p.BloodPressure,
		GlucoseLevel:  p.GlucoseLevel,
		HeartRate:     p.HeartRate,
		Priority:      tier,
		HighRisk:      tier == RiskTierHigh,
	}
}

// HighRiskAppointment is an appointment whose patient is currently High risk
type HighRiskAppointment struct {
	*Appointment
	PatientDetails PatientRiskDetail `json:"patientDetails"`
	DoctorName     string            `json:"doctorName"`
}

// AnalyticsSummary is the patient population risk summary
type AnalyticsSummary struct {
	TotalPatients int `json:"totalPatients"`
	HighRiskCount int `json:"highRiskCount"`
}
