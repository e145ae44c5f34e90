// Package insight turns raw health signals into categorical context labels
// and picks the explanation and encouragement shown after a logged event.
package insight

import "github.com/sugarstreak/sugarstreak/internal/domain"

// Classification cut points.
const (
	LowStepsBelow     = 4000
	ActiveStepsAbove  = 8000
	RestSleepBelow    = 6.0
	ElevatedRestingHR = 85
	UnderweightBMI    = 18.5
	BalancedBMIMax    = 24.9
	MildSugarBelow    = 10.0
	ModerateSugarMax  = 25.0
	RareLogsBelow     = 3
	FrequentLogsAbove = 10
)

// Classify maps raw signals to labels. Absent inputs produce Unknown.
// Energy has no raw signal and is only ever supplied externally.
func Classify(raw domain.RawSignals) domain.ContextLabels {
	return domain.ContextLabels{
		Activity:  ClassifyActivity(raw.Steps),
		Recovery:  ClassifyRecovery(raw.SleepHours, raw.RestingHeartRate),
		BMI:       ClassifyBMI(raw.BMI),
		Sugar:     ClassifySugar(raw.Amount),
		Energy:    domain.EnergyUnknown,
		Frequency: ClassifyFrequency(raw.WeeklyLogCount),
	}
}

func ClassifyActivity(steps *int) domain.ActivityLevel {
	switch {
	case steps == nil:
		return domain.ActivityUnknown
	case *steps < LowStepsBelow:
		return domain.ActivityLow
	case *steps > ActiveStepsAbove:
		return domain.ActivityActive
	default:
		return domain.ActivityModerate
	}
}

// ClassifyRecovery uses sleep hours, falling back to resting heart rate
// only when sleep is missing.
func ClassifyRecovery(sleepHours *float64, restingHR *int) domain.RecoveryState {
	switch {
	case sleepHours != nil && *sleepHours < RestSleepBelow:
		return domain.RecoveryNeedsRest
	case sleepHours != nil:
		return domain.RecoveryStable
	case restingHR != nil && *restingHR >= ElevatedRestingHR:
		return domain.RecoveryNeedsRest
	case restingHR != nil:
		return domain.RecoveryStable
	default:
		return domain.RecoveryUnknown
	}
}

func ClassifyBMI(bmi *float64) domain.BMICategory {
	switch {
	case bmi == nil:
		return domain.BMIUnknown
	case *bmi < UnderweightBMI:
		return domain.BMIUnderweight
	case *bmi <= BalancedBMIMax:
		return domain.BMIBalanced
	default:
		return domain.BMIHigher
	}
}

// ClassifySugar buckets a single intake in grams.
func ClassifySugar(amount *float64) domain.SugarLevel {
	switch {
	case amount == nil:
		return domain.SugarUnknown
	case *amount < MildSugarBelow:
		return domain.SugarMild
	case *amount <= ModerateSugarMax:
		return domain.SugarModerate
	default:
		return domain.SugarHigh
	}
}

func ClassifyFrequency(weeklyLogs *int) domain.LogFrequency {
	switch {
	case weeklyLogs == nil:
		return domain.FrequencyUnknown
	case *weeklyLogs < RareLogsBelow:
		return domain.FrequencyRare
	case *weeklyLogs > FrequentLogsAbove:
		return domain.FrequencyFrequent
	default:
		return domain.FrequencyRegular
	}
}

// ─── Precedence ─────────────────────────────────────────────────────────────

// Merge overlays externally supplied labels on derived ones. An external
// label wins whenever it is a recognized, known value.
func Merge(derived, external domain.ContextLabels) domain.ContextLabels {
	out := derived
	if known(validActivity, external.Activity) {
		out.Activity = external.Activity
	}
	if known(validRecovery, external.Recovery) {
		out.Recovery = external.Recovery
	}
	if known(validBMI, external.BMI) {
		out.BMI = external.BMI
	}
	if known(validSugar, external.Sugar) {
		out.Sugar = external.Sugar
	}
	if known(validEnergy, external.Energy) {
		out.Energy = external.Energy
	}
	if known(validFrequency, external.Frequency) {
		out.Frequency = external.Frequency
	}
	return out
}

// Sanitize drops unrecognized values so they read as "not supplied".
func Sanitize(in domain.ContextLabels) domain.ContextLabels {
	var out domain.ContextLabels
	if validActivity[in.Activity] {
		out.Activity = in.Activity
	}
	if validRecovery[in.Recovery] {
		out.Recovery = in.Recovery
	}
	if validBMI[in.BMI] {
		out.BMI = in.BMI
	}
	if validSugar[in.Sugar] {
		out.Sugar = in.Sugar
	}
	if validEnergy[in.Energy] {
		out.Energy = in.Energy
	}
	if validFrequency[in.Frequency] {
		out.Frequency = in.Frequency
	}
	return out
}

func known[T ~string](valid map[T]bool, v T) bool {
	return valid[v] && v != "Unknown"
}

var (
	validActivity = map[domain.ActivityLevel]bool{
		domain.ActivityUnknown: true, domain.ActivityLow: true, domain.ActivityModerate: true, domain.ActivityActive: true,
	}
	validRecovery = map[domain.RecoveryState]bool{
		domain.RecoveryUnknown: true, domain.RecoveryNeedsRest: true, domain.RecoveryStable: true,
	}
	validBMI = map[domain.BMICategory]bool{
		domain.BMIUnknown: true, domain.BMIUnderweight: true, domain.BMIBalanced: true, domain.BMIHigher: true,
	}
	validSugar = map[domain.SugarLevel]bool{
		domain.SugarUnknown: true, domain.SugarMild: true, domain.SugarModerate: true, domain.SugarHigh: true,
	}
	validEnergy = map[domain.EnergyLevel]bool{
		domain.EnergyUnknown: true, domain.EnergyLow: true, domain.EnergyStable: true, domain.EnergyHigh: true,
	}
	validFrequency = map[domain.LogFrequency]bool{
		domain.FrequencyUnknown: true, domain.FrequencyRare: true, domain.FrequencyRegular: true, domain.FrequencyFrequent: true,
	}
)
