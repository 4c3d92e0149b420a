package detector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

// ErrUnknownDetector is returned when an endpoint has no registered detector.
var ErrUnknownDetector = errors.New("unknown detector")

// ErrDuplicateDetector is returned when registering an endpoint or attack type name twice.
var ErrDuplicateDetector = errors.New("detector already registered")

// Registry maps endpoint keys to detectors and their attack types.
// Order of registration is kept so that combined scans are deterministic.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	detectors map[string]Detector
	types     map[string]model.AttackType
}

// NewRegistry returns a Registry holding the eight built-in detectors.
func NewRegistry() *Registry {
	r := &Registry{
		detectors: make(map[string]Detector),
		types:     make(map[string]model.AttackType),
	}
	builtins := Builtins()
	for i, at := range catalog {
		// Catalog and Builtins share an order and cannot collide.
		_ = r.Register(builtins[i], at)
	}
	return r
}

// Register adds a detector under its endpoint. The attack type's Endpoint is forced to match.
// Results are merged by attack type name, so names must be unique as well.
func (r *Registry) Register(d Detector, at model.AttackType) error {
	endpoint := d.Endpoint()
	if endpoint == "" {
		return errors.New("detector endpoint must not be empty")
	}
	at.Endpoint = endpoint

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.detectors[endpoint]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDetector, endpoint)
	}
	for _, existing := range r.types {
		if existing.Name == at.Name {
			return fmt.Errorf("%w: attack type %q is used by %q", ErrDuplicateDetector, at.Name, existing.Endpoint)
		}
	}
	r.detectors[endpoint] = d
	r.types[endpoint] = at
	r.order = append(r.order, endpoint)
	return nil
}

// Unregister removes a detector. It reports whether the endpoint was registered.
func (r *Registry) Unregister(endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.detectors[endpoint]; !ok {
		return false
	}
	delete(r.detectors, endpoint)
	delete(r.types, endpoint)
	for i, e := range r.order {
		if e == endpoint {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the detector for an endpoint or ErrUnknownDetector.
func (r *Registry) Lookup(endpoint string) (Detector, model.AttackType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[endpoint]
	if !ok {
		return nil, model.AttackType{}, fmt.Errorf("%w: %q", ErrUnknownDetector, endpoint)
	}
	return d, r.types[endpoint], nil
}

// Endpoints returns the registered endpoints in registration order.
func (r *Registry) Endpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// AttackTypes returns the attack types in registration order.
func (r *Registry) AttackTypes() []model.AttackType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AttackType, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, r.types[e])
	}
	return out
}

// Severity returns the severity recorded for an attack type name, or low when unknown.
func (r *Registry) Severity(name string) model.Severity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, at := range r.types {
		if at.Name == name {
			return at.Severity
		}
	}
	return model.SeverityLow
}

// AttackType returns the attack type registered under an endpoint.
func (r *Registry) AttackType(endpoint string) (model.AttackType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.types[endpoint]
	return at, ok
}
