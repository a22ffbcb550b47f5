package entities

// RiskTier is a patient's clinical priority derived from vitals
type RiskTier string

const (
	RiskTierHigh     RiskTier = "High"
	RiskTierModerate RiskTier = "Moderate"
	RiskTierLow      RiskTier = "Low"
)

// Vital thresholds in mmHg (blood pressure) and mg/dL (glucose)
const (
	highBloodPressure     = 140.0
	highGlucose           = 140.0
	moderateBloodPressure = 120.0
	moderateGlucose       = 100.0
)

// ClassifyRisk maps blood pressure and glucose readings to a risk tier.
// Absent readings never raise the tier.
func ClassifyRisk(bloodPressure, glucose *float64) RiskTier {
	switch {
	case above(bloodPressure, highBloodPressure) || above(glucose, highGlucose):
		return RiskTierHigh
	case above(bloodPressure, moderateBloodPressure) || above(glucose, moderateGlucose):
		return RiskTierModerate
	default:
		return RiskTierLow
	}
}

func above(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}
