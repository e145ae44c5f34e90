package engagement

// Rand is the random source the reward draw consumes.
// *math/rand.Rand satisfies it; tests pass a seeded source or a stub.
type Rand interface {
	Float64() float64
}

// Variable reward payouts for a completed corrective action.
const (
	RewardCommon   int64 = 3
	RewardUncommon int64 = 5
	RewardRare     int64 = 10
)

// DrawReward samples one payout: 60% common, 30% uncommon, 10% rare.
// Logging an event on its own earns nothing; only corrective actions draw.
func DrawReward(r Rand) int64 {
	u := r.Float64()
	switch {
	case u < 0.6:
		return RewardCommon
	case u < 0.9:
		return RewardUncommon
	default:
		return RewardRare
	}
}
