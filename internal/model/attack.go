package model

import "time"

// Severity ranks an attack type.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// AttackType is a catalog entry describing one threat category.
// Endpoint is the machine key used to dispatch to a detector.
type AttackType struct {
	Name        string   `json:"name"`
	Endpoint    string   `json:"endpoint"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Color       string   `json:"color"`
}

// CustomDetector is a generated detector definition.
type CustomDetector struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AttackType returns the catalog view of a custom detector.
func (d CustomDetector) AttackType() AttackType {
	return AttackType{
		Name:        d.Name,
		Endpoint:    d.ID,
		Description: d.Description,
		Severity:    d.Severity,
		Color:       "#6B7280",
	}
}
