package waypoint

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// RegistryStatus — result of checking all registered schedulers
// ---------------------------------------------------------------------------

// RegistryStatus is the result of checking every reporter registered with a
// [SchedulerRegistry].
type RegistryStatus struct {
	Ready      bool              `json:"ready"`
	Schedulers []SchedulerStatus `json:"schedulers"`
}

// ---------------------------------------------------------------------------
// SchedulerRegistry — tracks StatusReporter instances and derives readiness
// ---------------------------------------------------------------------------

// SchedulerRegistry tracks [StatusReporter] instances and derives an
// aggregate readiness status from them.
//
// Pattern: Singleton — DefaultRegistry uses sync.Once for safe lazy init;
// explicit registries can be created for testing or multi-tenant scenarios.
type SchedulerRegistry struct {
	mu        sync.Mutex
	reporters atomic.Pointer[[]StatusReporter]
}

// NewSchedulerRegistry creates an empty registry.
func NewSchedulerRegistry() *SchedulerRegistry {
	r := &SchedulerRegistry{}
	empty := make([]StatusReporter, 0)
	r.reporters.Store(&empty)
	return r
}

// Register adds a StatusReporter to the registry. It is safe for concurrent
// use but intended for initialization only.
func (r *SchedulerRegistry) Register(sr StatusReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.reporters.Load()
	// Create a new slice (copy-on-write) to avoid mutating the slice
	// that concurrent readers may be iterating.
	updated := make([]StatusReporter, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, sr)
	r.reporters.Store(&updated)
}

// CheckReadiness iterates all registered reporters and builds a
// RegistryStatus. Ready is false if any reporter is unhealthy.
func (r *SchedulerRegistry) CheckReadiness() RegistryStatus {
	reporters := *r.reporters.Load()

	status := RegistryStatus{
		Ready:      true,
		Schedulers: make([]SchedulerStatus, 0, len(reporters)),
	}

	for _, sr := range reporters {
		s := sr.Status()
		status.Schedulers = append(status.Schedulers, s)

		if !s.Healthy {
			status.Ready = false
		}
	}

	return status
}

// ---------------------------------------------------------------------------
// DefaultRegistry — package-level global registry singleton
// ---------------------------------------------------------------------------

var (
	defaultRegistryOnce sync.Once
	defaultRegistryVal  *SchedulerRegistry
)

// DefaultRegistry returns the package-level global registry, creating it on
// first call.
//
// Pattern: Singleton — lazy initialization via sync.Once ensures exactly one
// global registry exists and is safe for concurrent access.
func DefaultRegistry() *SchedulerRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistryVal = NewSchedulerRegistry()
	})
	return defaultRegistryVal
}
