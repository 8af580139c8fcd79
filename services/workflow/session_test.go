package workflow

import (
	// Go Internal Packages
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	// Local Packages
	errors "waypay/errors"
	models "waypay/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is the in-memory stand-in for the redis intent store.
type memStore struct {
	mu sync.Mutex
	m  map[models.FlowKind]models.PendingIntent
}

func newMemStore() *memStore {
	return &memStore{m: make(map[models.FlowKind]models.PendingIntent)}
}

func (s *memStore) Get(_ context.Context, kind models.FlowKind) (*models.PendingIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pi, ok := s.m[kind]
	if !ok {
		return nil, nil
	}
	return &pi, nil
}

func (s *memStore) Set(_ context.Context, pi models.PendingIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[pi.Kind] = pi
	return nil
}

func (s *memStore) Delete(_ context.Context, kind models.FlowKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[kind]
	delete(s.m, kind)
	return ok, nil
}

func (s *memStore) has(kind models.FlowKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[kind]
	return ok
}

// fakeGateway scripts the payment backend. Status replies pop in order and
// the last one repeats; Confirm replies behave the same.
type fakeGateway struct {
	mu             sync.Mutex
	initResult     models.InitiationResult
	initErr        error
	statusReplies  []reply
	confirmReplies []reply
	initiateCalls  int32
	statusCalls    int32
	confirmCalls   int32
}

func (g *fakeGateway) Initiate(context.Context, models.Intent) (models.InitiationResult, error) {
	atomic.AddInt32(&g.initiateCalls, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initResult, g.initErr
}

func (g *fakeGateway) Status(context.Context, string) (models.StatusResult, error) {
	atomic.AddInt32(&g.statusCalls, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.statusReplies[0]
	if len(g.statusReplies) > 1 {
		g.statusReplies = g.statusReplies[1:]
	}
	return r.result, r.err
}

func (g *fakeGateway) Confirm(context.Context, string) (models.StatusResult, error) {
	atomic.AddInt32(&g.confirmCalls, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.confirmReplies[0]
	if len(g.confirmReplies) > 1 {
		g.confirmReplies = g.confirmReplies[1:]
	}
	return r.result, r.err
}

// memArchive collects receipts in place of mongo and kafka.
type memArchive struct {
	mu       sync.Mutex
	archived []models.MongoReceipt
	emitted  []models.Receipt
}

func (a *memArchive) InsertReceipt(_ context.Context, r models.MongoReceipt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, r)
	return nil
}

func (a *memArchive) Publish(_ context.Context, r models.Receipt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.emitted = append(a.emitted, r)
	return nil
}

func (a *memArchive) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.archived), len(a.emitted)
}

func voteIntent() models.Intent {
	return models.Intent{
		Kind:     models.FlowVote,
		TargetID: "candidate-7",
		Quantity: 10,
		Amount:   1000,
		Method:   models.MethodMTNMomo,
		Phone:    "+237 650 123 456",
		Email:    "voter@example.com",
		FullName: "Ama Nkolo",
	}
}

func newTestSession(gw *fakeGateway, store IntentStore, sink *memArchive, maxAttempts int) *Session {
	conf := SessionConfig{
		PollInterval:    time.Millisecond,
		PollMaxAttempts: maxAttempts,
		SuccessClose:    10 * time.Millisecond,
		CancelClose:     10 * time.Millisecond,
	}
	if sink == nil {
		// A typed-nil *memArchive inside the interface would defeat the
		// session's nil checks for the optional archiver/publisher.
		return NewSession(conf, zap.NewNop(), gw, store, nil, nil)
	}
	return NewSession(conf, zap.NewNop(), gw, store, sink, sink)
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, 2*time.Second, time.Millisecond)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session never closed")
	}
}

func TestSessionHappyPath(t *testing.T) {
	gw := &fakeGateway{
		initResult: models.InitiationResult{TxRef: "TX123", Instructions: "Dial #150*50#"},
		statusReplies: []reply{
			pending(), pending(),
			{result: models.StatusResult{Status: models.StatusSuccessful, Points: 2}},
		},
	}
	store := newMemStore()
	sink := &memArchive{}
	s := newTestSession(gw, store, sink, 20)

	require.Equal(t, StatePayment, s.State())

	result, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)
	assert.Equal(t, "TX123", result.TxRef)
	assert.Equal(t, "Dial #150*50#", result.Instructions)

	waitState(t, s, StateSuccess)
	assert.Equal(t, int32(3), atomic.LoadInt32(&gw.statusCalls))
	assert.False(t, store.has(models.FlowVote), "pending intent must be cleared on success")
	assert.NoError(t, s.LastError())

	archived, emitted := sink.counts()
	assert.Equal(t, 1, archived)
	assert.Equal(t, 1, emitted)
	sink.mu.Lock()
	assert.Equal(t, 2, sink.emitted[0].Points)
	assert.Equal(t, "650123456", sink.emitted[0].Phone, "phone stored normalized")
	sink.mu.Unlock()

	// Auto-close after the display delay.
	waitDone(t, s)
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionValidationMakesNoNetworkCall(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestSession(gw, newMemStore(), nil, 20)

	intent := voteIntent()
	intent.Phone = "12345"
	_, err := s.Submit(context.Background(), intent)
	require.Error(t, err)
	assert.True(t, errors.Is(errors.Invalid, err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&gw.initiateCalls))
	assert.Equal(t, StatePayment, s.State())
}

func TestSessionInitiationErrorAllowsResubmit(t *testing.T) {
	gw := &fakeGateway{
		initErr:       errors.InitiationFailedErr(assert.AnError),
		statusReplies: []reply{{result: models.StatusResult{Status: models.StatusSuccessful}}},
	}
	store := newMemStore()
	s := newTestSession(gw, store, nil, 20)

	_, err := s.Submit(context.Background(), voteIntent())
	require.Error(t, err)
	assert.Equal(t, StatePayment, s.State())
	assert.False(t, store.has(models.FlowVote), "no pending intent without a txRef")

	gw.mu.Lock()
	gw.initErr = nil
	gw.initResult = models.InitiationResult{TxRef: "TX200"}
	gw.mu.Unlock()

	_, err = s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)
	waitState(t, s, StateSuccess)
	assert.Equal(t, "TX200", s.TxRef())
}

func TestSessionExhaustionKeepsPollingState(t *testing.T) {
	gw := &fakeGateway{
		initResult:    models.InitiationResult{TxRef: "TX123"},
		statusReplies: []reply{pending()},
	}
	store := newMemStore()
	s := newTestSession(gw, store, nil, 5)

	_, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return errors.Is(errors.Timeout, s.LastError())
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, StatePolling, s.State(), "timeout leaves the session polling with manual verification available")
	assert.Equal(t, int32(5), atomic.LoadInt32(&gw.statusCalls))
	assert.True(t, store.has(models.FlowVote), "pending intent survives a timeout")
}

func TestSessionManualVerifyAfterTimeout(t *testing.T) {
	gw := &fakeGateway{
		initResult:     models.InitiationResult{TxRef: "TX123"},
		statusReplies:  []reply{pending()},
		confirmReplies: []reply{{result: models.StatusResult{Status: models.StatusSuccessful, Points: 4}}},
	}
	store := newMemStore()
	sink := &memArchive{}
	s := newTestSession(gw, store, sink, 3)

	_, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return errors.Is(errors.Timeout, s.LastError())
	}, 2*time.Second, time.Millisecond)

	result, err := s.ManualVerify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccessful, result.Status)

	waitState(t, s, StateSuccess)
	assert.False(t, store.has(models.FlowVote))
	archived, _ := sink.counts()
	assert.Equal(t, 1, archived)
}

func TestSessionManualVerifyPendingKeepsPolling(t *testing.T) {
	gw := &fakeGateway{
		initResult:     models.InitiationResult{TxRef: "TX123"},
		statusReplies:  []reply{pending()},
		confirmReplies: []reply{pending()},
	}
	s := newTestSession(gw, newMemStore(), nil, 1000)

	_, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)

	result, err := s.ManualVerify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, result.Status)
	assert.Equal(t, StatePolling, s.State())

	require.NoError(t, s.RequestClose(true))
}

func TestSessionManualVerifyOutsidePolling(t *testing.T) {
	s := newTestSession(&fakeGateway{}, newMemStore(), nil, 20)
	_, err := s.ManualVerify(context.Background())
	require.Error(t, err)
}

func TestSessionSoftCancel(t *testing.T) {
	gw := &fakeGateway{
		initResult:    models.InitiationResult{TxRef: "TX123"},
		statusReplies: []reply{pending()},
	}
	store := newMemStore()
	s := newTestSession(gw, store, nil, 1000)

	_, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)

	// Unconfirmed close while polling is refused.
	err = s.RequestClose(false)
	require.Error(t, err)
	assert.Equal(t, StatePolling, s.State())

	require.NoError(t, s.RequestClose(true))
	assert.Equal(t, StateCancelled, s.State())
	assert.True(t, store.has(models.FlowVote), "soft cancel keeps the pending intent")

	// The poller must be stopped for good.
	time.Sleep(5 * time.Millisecond)
	calls := atomic.LoadInt32(&gw.statusCalls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt32(&gw.statusCalls))

	waitDone(t, s)
	assert.Equal(t, StateClosed, s.State())
}

func TestSessionRejectsSecondSubmit(t *testing.T) {
	gw := &fakeGateway{
		initResult:    models.InitiationResult{TxRef: "TX123"},
		statusReplies: []reply{pending()},
	}
	s := newTestSession(gw, newMemStore(), nil, 1000)

	_, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), voteIntent())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gw.initiateCalls))

	require.NoError(t, s.RequestClose(true))
}

func TestSessionResume(t *testing.T) {
	gw := &fakeGateway{
		statusReplies: []reply{
			pending(),
			{result: models.StatusResult{Status: models.StatusSuccessful, Points: 1}},
		},
	}
	store := newMemStore()
	require.NoError(t, store.Set(context.Background(), models.PendingIntent{
		TxRef:    "TX777",
		Kind:     models.FlowVote,
		TargetID: "candidate-7",
		Quantity: 1,
		Amount:   1000,
		Phone:    "650123456",
		Email:    "voter@example.com",
		FullName: "Ama Nkolo",
	}))
	s := newTestSession(gw, store, nil, 20)

	resumed, err := s.Resume(context.Background(), models.FlowVote)
	require.NoError(t, err)
	require.True(t, resumed)
	assert.Equal(t, "TX777", s.TxRef())
	assert.Equal(t, StatePolling, s.State())
	assert.Equal(t, int32(0), atomic.LoadInt32(&gw.initiateCalls), "resume never re-initiates")

	waitState(t, s, StateSuccess)
	assert.False(t, store.has(models.FlowVote))
}

func TestSessionResumeNothingPending(t *testing.T) {
	s := newTestSession(&fakeGateway{}, newMemStore(), nil, 20)
	resumed, err := s.Resume(context.Background(), models.FlowTicket)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, StatePayment, s.State())
}

func TestSessionSuccessIsExclusive(t *testing.T) {
	// Poller sleeps between polls; manual verification wins the race, and
	// a later poller observation must not complete the session again.
	gw := &fakeGateway{
		initResult:     models.InitiationResult{TxRef: "TX123"},
		statusReplies:  []reply{pending()},
		confirmReplies: []reply{{result: models.StatusResult{Status: models.StatusSuccessful}}},
	}
	store := newMemStore()
	sink := &memArchive{}
	conf := SessionConfig{
		PollInterval:    time.Minute, // poller parked after its first pending
		PollMaxAttempts: 20,
		SuccessClose:    10 * time.Millisecond,
	}
	s := NewSession(conf, zap.NewNop(), gw, store, sink, sink)

	_, err := s.Submit(context.Background(), voteIntent())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&gw.statusCalls) >= 1
	}, 2*time.Second, time.Millisecond)

	_, err = s.ManualVerify(context.Background())
	require.NoError(t, err)
	waitState(t, s, StateSuccess)

	_, err = s.ManualVerify(context.Background())
	require.Error(t, err, "second completion path is rejected")

	archived, emitted := sink.counts()
	assert.Equal(t, 1, archived)
	assert.Equal(t, 1, emitted)
	assert.False(t, store.has(models.FlowVote))
}
