package waypoint

// ---------------------------------------------------------------------------
// StatusReporter interface
// ---------------------------------------------------------------------------

type (
	// StatusReporter is implemented by components that can report their
	// current operational status to a [SchedulerRegistry]. The interface
	// is intentionally non-generic so registries can hold reporters with
	// different Item/Origin type parameters.
	StatusReporter interface {
		// Name returns the reporter's name.
		Name() string
		// Status returns the current status of the reporter.
		Status() SchedulerStatus
	}

	// SchedulerStatus represents a Scheduler's current operational status.
	SchedulerStatus struct {
		Name          string `json:"name"`
		State         string `json:"state"`
		Epoch         uint64 `json:"epoch"`
		ItemCount     int    `json:"item_count"`
		DelayedCount  int    `json:"delayed_count"`
		Healthy       bool   `json:"healthy"`
	}
)

// Name returns the scheduler's configured name, defaulting to "scheduler"
// when none was set via [SchedulerConfig].
func (s *Scheduler[Item, Origin]) Name() string {
	if s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Status derives the scheduler's current status by inspecting its
// lifecycle state and, in Multi, counting delayed records. A scheduler is
// considered healthy whenever it is not Uninit; Uninit is not itself an
// error condition but signals that no refresh has yet arrived.
func (s *Scheduler[Item, Origin]) Status() SchedulerStatus {
	status := SchedulerStatus{
		Name:  s.Name(),
		State: s.state.String(),
		Epoch: s.epoch,
	}

	switch s.state {
	case Uninit:
		status.Healthy = false
	case Single:
		status.Healthy = true
		status.ItemCount = 1
		if s.single.delayUntil != nil {
			status.DelayedCount = 1
		}
	case Multi:
		status.Healthy = true
		status.ItemCount = s.multi.len()
		for i := range s.multi.entries {
			if s.multi.entries[i].delayUntil != nil {
				status.DelayedCount++
			}
		}
	}

	return status
}
