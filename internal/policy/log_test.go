package policy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	records []DecisionRecord
	err     error
}

func (m *memoryStore) InsertDecision(ctx context.Context, rec DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryStore) all() []DecisionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DecisionRecord, len(m.records))
	copy(out, m.records)
	return out
}

func denyDecision() Decision {
	return Decision{
		Outcome:      OutcomeDeny,
		Reason:       ReasonCommunityMismatch,
		ActorID:      7,
		ActorRole:    RoleEditor,
		ResourceType: "story",
		ResourceID:   42,
		Action:       ActionUpdate,
	}
}

func grantDecision(action Action) Decision {
	return Decision{
		Outcome:      OutcomeGrant,
		ActorID:      7,
		ActorRole:    RoleEditor,
		ResourceType: "story",
		ResourceID:   42,
		Action:       action,
	}
}

func TestRecorderWritesEveryDeny(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil, RecorderOptions{})
	rec.Record(denyDecision())
	rec.Close()

	records := store.all()
	require.Len(t, records, 1)
	assert.Equal(t, OutcomeDeny, records[0].Outcome)
	assert.Equal(t, ReasonCommunityMismatch, records[0].Reason)
	assert.False(t, records[0].OccurredAt.IsZero())
}

func TestRecorderGrantToggles(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil, DefaultRecorderOptions())
	rec.Record(grantDecision(ActionUpdate)) // mutation: recorded
	rec.Record(grantDecision(ActionRead))   // read: not recorded by default
	rec.Close()

	records := store.all()
	require.Len(t, records, 1)
	assert.Equal(t, ActionUpdate, records[0].Action)
}

func TestRecorderGrantReadsOptIn(t *testing.T) {
	store := &memoryStore{}
	opts := DefaultRecorderOptions()
	opts.LogGrantReads = true
	rec := NewRecorder(store, nil, opts)
	rec.Record(grantDecision(ActionList))
	rec.Close()

	require.Len(t, store.all(), 1)
}

func TestRecorderStoreFailureNeverEscalates(t *testing.T) {
	store := &memoryStore{err: errors.New("connection refused")}
	rec := NewRecorder(store, nil, RecorderOptions{})
	// Must not panic or block.
	rec.Record(denyDecision())
	rec.Close()
	assert.Empty(t, store.all())
}

func TestRecorderDropsWhenBufferFull(t *testing.T) {
	block := make(chan struct{})
	store := &blockingStore{release: block}
	rec := NewRecorder(store, nil, RecorderOptions{Buffer: 1, WriteTimeout: time.Second})

	// First record occupies the writer, second fills the buffer, third drops.
	for i := 0; i < 3; i++ {
		rec.Record(denyDecision())
	}
	close(block)
	rec.Close()
	assert.LessOrEqual(t, len(store.all()), 2)
}

type blockingStore struct {
	memoryStore
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) InsertDecision(ctx context.Context, rec DecisionRecord) error {
	b.once.Do(func() { <-b.release })
	return b.memoryStore.InsertDecision(ctx, rec)
}

func TestAuthorizerRecordsDecisions(t *testing.T) {
	store := &memoryStore{}
	rec := NewRecorder(store, nil, RecorderOptions{})
	auth := NewAuthorizer(NewEngine(), rec, nil)

	d := auth.Authorize(superAdmin(), ActionList, storyResource(5, LevelCommunity))
	require.Equal(t, ReasonSovereigntyViolation, d.Reason)
	rec.Close()

	records := store.all()
	require.Len(t, records, 1)
	assert.Equal(t, ReasonSovereigntyViolation, records[0].Reason)
}

func TestRequireWrapsDenials(t *testing.T) {
	auth := NewAuthorizer(NewEngine(), nil, nil)

	err := auth.Require(principal(RoleAdmin, 5), ActionRead, storyResource(5, LevelCommunity))
	require.NoError(t, err)

	err = auth.Require(principal(RoleViewer, 5), ActionDelete, storyResource(5, LevelCommunity))
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, ReasonRoleInsufficient, denied.Decision.Reason)
}
