package domain

// ActionTag is an abstract corrective action category. Clients map tags to
// their own copy and icons.
type ActionTag string

const (
	ActionRest          ActionTag = "rest"
	ActionMovement      ActionTag = "movement"
	ActionLightMovement ActionTag = "light_movement"
	ActionHydration     ActionTag = "hydration"
	ActionProtein       ActionTag = "protein"
)

// Insight is the selected explanation for a logged event.
type Insight struct {
	Rule      string    `json:"rule"`
	Message   string    `json:"message"`
	Action    string    `json:"action"`
	ActionTag ActionTag `json:"action_tag"`
	Reasoning string    `json:"reasoning"`
	// PhrasingKey identifies the chosen phrasing for anti-repetition history.
	PhrasingKey string `json:"phrasing_key"`
}
