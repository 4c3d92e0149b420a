package custom

import (
	"context"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// Detector adapts a stored definition to the detector.Detector interface.
type Detector struct {
	def  model.CustomDetector
	exec Executor
}

// NewDetector binds a definition to an executor.
func NewDetector(def model.CustomDetector, exec Executor) *Detector {
	return &Detector{def: def, exec: exec}
}

// Endpoint is the detector id.
func (d *Detector) Endpoint() string { return d.def.ID }

// Definition returns the underlying definition.
func (d *Detector) Definition() model.CustomDetector { return d.def }

func (d *Detector) Detect(ctx context.Context, entries []model.LogEntry) ([]model.SuspiciousEntry, error) {
	return d.exec.Run(ctx, d.def, entries)
}
