package insight

import (
	"fmt"

	"github.com/sugarstreak/sugarstreak/internal/domain"
)

// Context is what the rule engine sees for one event.
type Context struct {
	TimeOfDay domain.TimeOfDay
	Labels    domain.ContextLabels
}

// Rule identifiers, in evaluation order.
const (
	RuleSleepDisruption = "sleep_disruption"
	RuleCrashRisk       = "crash_risk"
	RuleRecoveryImpact  = "recovery_impact"
	RuleEfficientUse    = "efficient_use"
	RuleMorningSpike    = "morning_spike"
	RuleLowImpact       = "low_impact"
	RuleAwareness       = "awareness"
)

type phrasing struct {
	message string
	action  string
}

type rule struct {
	id        string
	match     func(Context) bool
	tag       domain.ActionTag
	reasoning string
	phrasings []phrasing
}

func (r rule) key(i int) string { return fmt.Sprintf("%s:%d", r.id, i) }

func elevated(s domain.SugarLevel) bool {
	return s == domain.SugarHigh || s == domain.SugarModerate
}

// rules are evaluated top to bottom; the first match wins. The last rule
// always matches.
var rules = []rule{
	{
		id: RuleSleepDisruption,
		match: func(c Context) bool {
			return (c.TimeOfDay == domain.Evening || c.TimeOfDay == domain.Night) && elevated(c.Labels.Sugar)
		},
		tag:       domain.ActionRest,
		reasoning: "Sugar late in the day can keep blood glucose and alertness up when your body is winding down, which tends to make sleep lighter.",
		phrasings: []phrasing{
			{"This much sugar this late may make it harder to fall asleep.", "Wind down with a calm routine and skip screens for the next hour."},
			{"Late-day sugar can keep your body buzzing past bedtime.", "Dim the lights and give yourself a slow start to the night."},
			{"Evening sugar often shows up later as restless sleep.", "Try a glass of water and an early, screen-free bedtime."},
		},
	},
	{
		id: RuleCrashRisk,
		match: func(c Context) bool {
			return c.Labels.Activity == domain.ActivityLow && elevated(c.Labels.Sugar)
		},
		tag:       domain.ActionMovement,
		reasoning: "Without much movement your muscles take up less glucose, so a sugar spike is more likely to be followed by a dip in energy.",
		phrasings: []phrasing{
			{"With a quiet day so far, this sugar may hit hard and drop fast.", "Take a brisk 10-minute walk to put that energy to use."},
			{"Low movement plus sugar is a classic recipe for an energy crash.", "Stand up and stretch or climb a few flights of stairs."},
			{"Your body has had little chance to burn this sugar off today.", "A short walk now can smooth out the coming dip."},
		},
	},
	{
		id: RuleRecoveryImpact,
		match: func(c Context) bool {
			return c.Labels.Recovery == domain.RecoveryNeedsRest && c.Labels.Sugar != domain.SugarMild
		},
		tag:       domain.ActionRest,
		reasoning: "When you are short on sleep, cravings run higher and sugar tends to mask tiredness instead of fixing it.",
		phrasings: []phrasing{
			{"You are running low on rest, and sugar can feel like a shortcut.", "Plan an earlier night tonight to recharge properly."},
			{"Tired bodies crave quick sugar, but it rarely pays back.", "Take a short break or a 20-minute rest if you can."},
			{"Sugar can paper over fatigue for a while, then leave you more drained.", "Protect your sleep tonight; that is the real recharge."},
		},
	},
	{
		id: RuleEfficientUse,
		match: func(c Context) bool {
			return c.Labels.Activity == domain.ActivityActive
		},
		tag:       domain.ActionHydration,
		reasoning: "An active day means your muscles are using glucose as fuel, so this sugar is more likely to be burned than stored.",
		phrasings: []phrasing{
			{"You have been moving a lot, so your body can put this sugar to work.", "Keep up with water to support your activity."},
			{"Active days handle sugar better; your muscles are hungry for fuel.", "Refill your water bottle and keep hydrating."},
			{"Nice activity level today. This treat is landing on a busy engine.", "Drink a glass of water to help recovery."},
		},
	},
	{
		id: RuleMorningSpike,
		match: func(c Context) bool {
			return c.TimeOfDay == domain.Morning && c.Labels.Sugar == domain.SugarHigh
		},
		tag:       domain.ActionProtein,
		reasoning: "A large sugar hit early in the day can start a spike-and-crash cycle that drives more cravings later.",
		phrasings: []phrasing{
			{"A big sugar start can set up cravings for the rest of the day.", "Pair it with protein like eggs, yogurt or nuts."},
			{"Morning sugar spikes often lead to a mid-morning slump.", "Add some protein to your next snack to steady things."},
			{"Starting sweet can make the whole day feel like a rollercoaster.", "Balance it out with a protein-rich bite soon."},
		},
	},
	{
		id: RuleLowImpact,
		match: func(c Context) bool {
			return c.Labels.Sugar == domain.SugarMild
		},
		tag:       domain.ActionLightMovement,
		reasoning: "Small amounts of sugar have a modest effect on blood glucose, and noticing them is what builds lasting habits.",
		phrasings: []phrasing{
			{"A small amount like this has a light impact. Nice awareness.", "A gentle stroll keeps the good momentum going."},
			{"Mindful portion. Your body handles this easily.", "Stretch for a minute or take the stairs next time."},
			{"Low-impact choice. Logging it is exactly the right move.", "Add a little light movement when you get the chance."},
		},
	},
	{
		id:        RuleAwareness,
		match:     func(Context) bool { return true },
		tag:       domain.ActionHydration,
		reasoning: "Tracking each intake builds the awareness that makes later choices easier.",
		phrasings: []phrasing{
			{"Logged. Every entry makes your patterns a little clearer.", "Have a glass of water."},
			{"Thanks for checking in. Awareness is the first step.", "Stay hydrated over the next hour."},
			{"Got it. Noticing is half the work.", "Drink some water to help your body process it."},
		},
	},
}

// SelectInsight returns the explanation of the first matching rule.
// The phrasing is drawn from the rule's bucket, preferring phrasings not in
// seen; the chosen key is then pushed onto seen. seen may be nil.
func SelectInsight(c Context, r Rand, seen *History) domain.Insight {
	for _, rl := range rules {
		if !rl.match(c) {
			continue
		}
		i := pick(len(rl.phrasings), rl.key, r, seen)
		p := rl.phrasings[i]
		seen.Push(rl.key(i))
		return domain.Insight{
			Rule:        rl.id,
			Message:     p.message,
			Action:      p.action,
			ActionTag:   rl.tag,
			Reasoning:   rl.reasoning,
			PhrasingKey: rl.key(i),
		}
	}
	// Unreachable: the awareness rule always matches.
	return domain.Insight{Rule: RuleAwareness}
}
