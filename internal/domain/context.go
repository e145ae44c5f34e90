package domain

// ─── Context Labels ─────────────────────────────────────────────────────────
// Every label family has an explicit Unknown value. Missing input never turns
// into a fabricated default.

type ActivityLevel string

const (
	ActivityUnknown  ActivityLevel = "Unknown"
	ActivityLow      ActivityLevel = "Low"
	ActivityModerate ActivityLevel = "Moderate"
	ActivityActive   ActivityLevel = "Active"
)

type RecoveryState string

const (
	RecoveryUnknown   RecoveryState = "Unknown"
	RecoveryNeedsRest RecoveryState = "NeedsRest"
	RecoveryStable    RecoveryState = "Stable"
)

type BMICategory string

const (
	BMIUnknown     BMICategory = "Unknown"
	BMIUnderweight BMICategory = "Underweight"
	BMIBalanced    BMICategory = "Balanced"
	BMIHigher      BMICategory = "Higher"
)

type SugarLevel string

const (
	SugarUnknown  SugarLevel = "Unknown"
	SugarMild     SugarLevel = "Mild"
	SugarModerate SugarLevel = "Moderate"
	SugarHigh     SugarLevel = "High"
)

type EnergyLevel string

const (
	EnergyUnknown EnergyLevel = "Unknown"
	EnergyLow     EnergyLevel = "Low"
	EnergyStable  EnergyLevel = "Stable"
	EnergyHigh    EnergyLevel = "High"
)

// LogFrequency describes how often the user logged over the trailing week.
type LogFrequency string

const (
	FrequencyUnknown  LogFrequency = "Unknown"
	FrequencyRare     LogFrequency = "Rare"
	FrequencyRegular  LogFrequency = "Regular"
	FrequencyFrequent LogFrequency = "Frequent"
)

// ContextLabels is the categorical snapshot attached to an event.
// An empty field means "not supplied"; Unknown means "supplied data was missing".
type ContextLabels struct {
	Activity  ActivityLevel `json:"activity_level,omitempty"`
	Recovery  RecoveryState `json:"recovery_state,omitempty"`
	BMI       BMICategory   `json:"bmi_category,omitempty"`
	Sugar     SugarLevel    `json:"sugar_level,omitempty"`
	Energy    EnergyLevel   `json:"energy_level,omitempty"`
	Frequency LogFrequency  `json:"log_frequency,omitempty"`
}

// IsZero reports whether no label was supplied at all.
func (c ContextLabels) IsZero() bool {
	return c == ContextLabels{}
}

// RawSignals are the numeric inputs the classifier maps to labels.
// Nil pointers are missing data.
type RawSignals struct {
	Steps            *int     `json:"steps,omitempty"`
	SleepHours       *float64 `json:"sleep_hours,omitempty"`
	RestingHeartRate *int     `json:"resting_heart_rate,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	WeeklyLogCount   *int     `json:"weekly_log_count,omitempty"`
}
