package model

// IPCount is one row of the top attackers list.
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// DateCount is one bucket of the timeline.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary holds statistics derived from a merged result set.
type Summary struct {
	TotalThreats           int            `json:"totalThreats"`
	UniqueAttackers        int            `json:"uniqueAttackers"`
	AttackTypeCounts       map[string]int `json:"attackTypeCounts"`
	TopAttackers           []IPCount      `json:"topAttackers"`
	StatusCodeDistribution map[string]int `json:"statusCodeDistribution"`
	TimelineData           []DateCount    `json:"timelineData"`
}
