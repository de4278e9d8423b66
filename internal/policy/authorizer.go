package policy

// Authorizer couples the pure engine with the decision recorder and
// observability counters so callers get a single entry point. Authorize
// decides first and records second; recording can never change or delay the
// outcome.
type Authorizer struct {
	engine   *Engine
	recorder *Recorder
	observer DecisionObserver
}

// DecisionObserver receives every decision for metrics. Implementations must
// not block.
type DecisionObserver interface {
	ObserveDecision(d Decision)
}

// NewAuthorizer wires the engine to its recorder. Both the recorder and the
// observer may be nil, leaving a bare pure engine (useful in tests).
func NewAuthorizer(engine *Engine, recorder *Recorder, observer DecisionObserver) *Authorizer {
	return &Authorizer{engine: engine, recorder: recorder, observer: observer}
}

// Authorize runs the engine and emits the decision to the log and metrics.
func (a *Authorizer) Authorize(p Principal, action Action, r Resource) Decision {
	d := a.engine.Authorize(p, action, r)
	if a.recorder != nil {
		a.recorder.Record(d)
	}
	if a.observer != nil {
		a.observer.ObserveDecision(d)
	}
	return d
}

// Require is the common service-layer call: it authorizes and converts any
// deny into a *DeniedError.
func (a *Authorizer) Require(p Principal, action Action, r Resource) error {
	return a.Authorize(p, action, r).Err()
}
