// Package health aggregates readiness checks for the tracking service's
// dependencies. The server registers one checker per subsystem (database
// connectivity, classifier artifacts loaded) and the /health handler reports
// the combined result: every registered check must pass for the service to
// report healthy.
package health

import (
	"context"
	"sync"
)

// Status is the outcome of probing one subsystem. Detail carries the failure
// reason when Healthy is false and is omitted from JSON otherwise.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes a single subsystem. Implementations should respect ctx
// cancellation since checks run inside HTTP request handling.
type Checker func(ctx context.Context) Status

// Registry collects subsystem checkers and evaluates them on demand.
// Registration and evaluation are safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	registrations []registration
}

type registration struct {
	name  string
	check Checker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a checker under the given subsystem name. Checks run in
// registration order.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.registrations = append(r.registrations, registration{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll evaluates every registered checker sequentially. The aggregate is
// healthy only when all individual statuses are.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	regs := make([]registration, len(r.registrations))
	copy(regs, r.registrations)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(regs))

	for i, reg := range regs {
		statuses[i] = reg.check(ctx)
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}
