package engine

// Metrics is a read-only view of the engine's runtime signals. It is stored
// by the loop goroutine after every tick and may be read from any goroutine.
type Metrics struct {
	Tick uint64 `json:"tick"`

	Actors        int `json:"actors"`
	BusySessions  int `json:"busy_sessions"`
	PendingWrites int `json:"pending_writes"`
	FilledCells   int `json:"filled_cells"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	AppliedTotal uint64 `json:"applied_total"`
	DeniedTotal  uint64 `json:"denied_total"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (e *Engine) Metrics() Metrics {
	if e == nil {
		return Metrics{}
	}
	v := e.metrics.Load()
	if v == nil {
		return Metrics{}
	}
	m, ok := v.(Metrics)
	if !ok {
		return Metrics{}
	}
	return m
}
