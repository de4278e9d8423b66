package policy

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DecisionRecord is one append-only row of the decision log.
type DecisionRecord struct {
	ActorID             int64
	ActorRole           Role
	ActorCommunityID    *int64
	ResourceType        string
	ResourceID          int64
	ResourceCommunityID *int64
	Action              Action
	Outcome             Outcome
	Reason              Reason
	Detail              string
	OccurredAt          time.Time
}

// DecisionStore persists decision records. The engine never reads them back;
// the store is write-only from the policy subsystem's perspective.
type DecisionStore interface {
	InsertDecision(ctx context.Context, rec DecisionRecord) error
}

// RecorderOptions tunes what the recorder writes and how much it buffers.
type RecorderOptions struct {
	// LogGrantMutations records granted create/update/delete decisions.
	LogGrantMutations bool
	// LogGrantReads records granted read/list decisions. Off by default:
	// read volume dwarfs everything else and denies are what compliance
	// review needs.
	LogGrantReads bool
	// Buffer is the channel capacity between Record and the writer
	// goroutine. When full, records are dropped and the drop is logged.
	Buffer int
	// WriteTimeout bounds each insert issued by the writer goroutine.
	WriteTimeout time.Duration
}

// DefaultRecorderOptions matches the compliance baseline: every deny, every
// granted mutation, no granted reads.
func DefaultRecorderOptions() RecorderOptions {
	return RecorderOptions{
		LogGrantMutations: true,
		Buffer:            256,
		WriteTimeout:      5 * time.Second,
	}
}

// Recorder writes decisions to the decision log without ever blocking or
// failing the request that produced them. Denies are recorded
// unconditionally; grant recording follows the options. Writes are buffered
// and flushed by a single background goroutine, and a failed or dropped
// write is reported to the logger, never retried synchronously and never
// surfaced to the caller.
type Recorder struct {
	store  DecisionStore
	logger *slog.Logger
	opts   RecorderOptions

	ch   chan DecisionRecord
	done chan struct{}
	once sync.Once
}

// NewRecorder starts the writer goroutine and returns the recorder.
func NewRecorder(store DecisionStore, logger *slog.Logger, opts RecorderOptions) *Recorder {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultRecorderOptions().Buffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultRecorderOptions().WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		opts:   opts,
		ch:     make(chan DecisionRecord, opts.Buffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues the decision for persistence. It never blocks: when the
// buffer is full the record is dropped and the drop is logged.
func (r *Recorder) Record(d Decision) {
	if r == nil {
		return
	}
	if d.Granted() {
		if d.Action.Mutation() {
			if !r.opts.LogGrantMutations {
				return
			}
		} else if !r.opts.LogGrantReads {
			return
		}
	}
	rec := DecisionRecord{
		ActorID:             d.ActorID,
		ActorRole:           d.ActorRole,
		ActorCommunityID:    d.ActorCommunityID,
		ResourceType:        d.ResourceType,
		ResourceID:          d.ResourceID,
		ResourceCommunityID: d.ResourceCommunityID,
		Action:              d.Action,
		Outcome:             d.Outcome,
		Reason:              d.Reason,
		Detail:              d.Detail,
		OccurredAt:          time.Now().UTC(),
	}
	select {
	case r.ch <- rec:
	default:
		r.logger.Warn("decision log buffer full, dropping record",
			slog.String("resource", rec.ResourceType),
			slog.String("action", string(rec.Action)),
			slog.String("outcome", string(rec.Outcome)))
	}
}

// Close stops accepting records and drains the buffer. Pending records are
// flushed with the configured write timeout each.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.ch)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		r.write(rec)
	}
}

func (r *Recorder) write(rec DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.WriteTimeout)
	defer cancel()
	if err := r.store.InsertDecision(ctx, rec); err != nil {
		r.logger.Error("decision log write failed",
			slog.String("resource", rec.ResourceType),
			slog.String("action", string(rec.Action)),
			slog.Any("error", err))
	}
}
