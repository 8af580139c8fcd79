package workflow

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	errors "waypay/errors"
	models "waypay/models"
	utils "waypay/utils"

	// External Packages
	"go.uber.org/zap"
)

// Gateway is the slice of the payment backend a session needs.
type Gateway interface {
	Initiate(ctx context.Context, intent models.Intent) (models.InitiationResult, error)
	Status(ctx context.Context, txRef string) (models.StatusResult, error)
	Confirm(ctx context.Context, txRef string) (models.StatusResult, error)
}

// IntentStore durably holds the in-flight intent per flow so verification
// survives a restart.
type IntentStore interface {
	Get(ctx context.Context, kind models.FlowKind) (*models.PendingIntent, error)
	Set(ctx context.Context, pi models.PendingIntent) error
	Delete(ctx context.Context, kind models.FlowKind) (bool, error)
}

// ReceiptArchiver records confirmed transactions; optional.
type ReceiptArchiver interface {
	InsertReceipt(ctx context.Context, receipt models.MongoReceipt) error
}

// ReceiptPublisher emits confirmed transactions for downstream fulfilment;
// optional.
type ReceiptPublisher interface {
	Publish(ctx context.Context, receipt models.Receipt) error
}

type SessionConfig struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	SuccessClose    time.Duration // display delay before auto-close on success
	CancelClose     time.Duration // display delay before auto-close on soft cancel
}

// Session runs one purchase or vote from intent to resolution. It owns the
// payment/polling/success/cancelled lifecycle, the pending-intent record,
// and at most one active poller. All methods are safe for concurrent use.
type Session struct {
	conf      SessionConfig
	logger    *zap.Logger
	gateway   Gateway
	store     IntentStore
	archiver  ReceiptArchiver
	publisher ReceiptPublisher
	poller    *Poller

	mu         sync.Mutex
	state      State
	intent     models.Intent
	txRef      string
	lastStatus models.TxStatus
	lastErr    error
	cancelPoll func()
	closeTimer *time.Timer
	done       chan struct{}
}

func NewSession(conf SessionConfig, logger *zap.Logger, gw Gateway, store IntentStore,
	archiver ReceiptArchiver, publisher ReceiptPublisher) *Session {
	if conf.SuccessClose <= 0 {
		conf.SuccessClose = 3 * time.Second
	}
	if conf.CancelClose <= 0 {
		conf.CancelClose = 2 * time.Second
	}
	return &Session{
		conf:      conf,
		logger:    logger,
		gateway:   gw,
		store:     store,
		archiver:  archiver,
		publisher: publisher,
		poller:    NewPoller(gw, logger, conf.PollInterval, conf.PollMaxAttempts),
		state:     StatePayment,
		done:      make(chan struct{}),
	}
}

// State returns the current lifecycle step.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TxRef returns the transaction reference, empty before initiation.
func (s *Session) TxRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txRef
}

// LastError returns the sticky error shown while the session stays in
// polling (timeout or a remote decline), or the last initiation error.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Done is closed once the session reaches closed, including auto-close.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Submit validates the intent, initiates payment and starts verification.
// Validation or initiation failures leave the session in payment so the
// caller can correct and resubmit; nothing is sent on validation failure.
func (s *Session) Submit(ctx context.Context, intent models.Intent) (models.InitiationResult, error) {
	intent.Phone = utils.NormalizePhone(intent.Phone)
	if err := intent.Validate(); err != nil {
		return models.InitiationResult{}, err
	}

	s.mu.Lock()
	if s.state != StatePayment {
		s.mu.Unlock()
		return models.InitiationResult{}, errors.TransitionErr(string(s.state), string(StatePolling))
	}
	s.mu.Unlock()

	result, err := s.gateway.Initiate(ctx, intent)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return models.InitiationResult{}, err
	}

	// Persist before polling starts so a crash between the two still
	// leaves a resumable record.
	if err = s.store.Set(ctx, models.NewPendingIntent(result.TxRef, intent)); err != nil {
		s.logger.Error("failed to persist pending intent",
			zap.String("tx_ref", result.TxRef), zap.Error(err))
	}

	s.startPolling(ctx, intent, result.TxRef)
	return result, nil
}

// Resume picks up a previously persisted pending intent for the given flow
// and re-enters polling for its txRef. Returns false when there is nothing
// to resume.
func (s *Session) Resume(ctx context.Context, kind models.FlowKind) (bool, error) {
	s.mu.Lock()
	if s.state != StatePayment {
		s.mu.Unlock()
		return false, errors.TransitionErr(string(s.state), string(StatePolling))
	}
	s.mu.Unlock()

	pi, err := s.store.Get(ctx, kind)
	if err != nil {
		return false, errors.E(errors.Unavailable, "cannot load pending intent", err)
	}
	if pi == nil {
		return false, nil
	}

	intent := models.Intent{
		Kind:     pi.Kind,
		TargetID: pi.TargetID,
		Quantity: pi.Quantity,
		Amount:   pi.Amount,
		Phone:    pi.Phone,
		Email:    pi.Email,
		FullName: pi.FullName,
	}
	s.startPolling(ctx, intent, pi.TxRef)
	return true, nil
}

// startPolling moves payment -> polling and hands txRef to the poller,
// cleaning up any previous poller first.
func (s *Session) startPolling(ctx context.Context, intent models.Intent, txRef string) {
	s.mu.Lock()
	next, err := step(s.state, StatePolling)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("refused transition", zap.Error(err))
		return
	}
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	s.state = next
	s.intent = intent
	s.txRef = txRef
	s.lastErr = nil

	cb := Callbacks{
		OnStatus:  s.observeStatus,
		OnSuccess: func(res models.StatusResult) { s.completeSuccess(context.WithoutCancel(ctx), res) },
		OnFailure: s.recordFailure,
	}
	s.cancelPoll = s.poller.Start(ctx, txRef, cb)
	s.mu.Unlock()

	s.logger.Info("verification started",
		zap.String("tx_ref", txRef),
		zap.String("kind", string(intent.Kind)),
		zap.String("phone", utils.MaskPhone(intent.Phone)))
}

func (s *Session) observeStatus(status models.TxStatus) {
	s.mu.Lock()
	s.lastStatus = status
	txRef := s.txRef
	s.mu.Unlock()
	s.logger.Debug("status observed", zap.String("tx_ref", txRef), zap.String("status", string(status)))
}

// recordFailure keeps the session in polling with a sticky error; the user
// can still run manual verification or confirm a cancel. Timeout and a
// remote decline surface as distinct kinds.
func (s *Session) recordFailure(status models.TxStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePolling {
		return
	}
	if status == models.StatusTimeout {
		s.lastErr = errors.PollTimeoutErr(s.poller.maxAttempts)
	} else {
		s.lastErr = errors.DeclinedErr(string(status), message)
	}
	s.logger.Warn("verification not successful",
		zap.String("tx_ref", s.txRef), zap.String("status", string(status)))
}

// ManualVerify asks the backend to re-check the transaction immediately.
// Only meaningful while polling; a successful answer takes the same path
// as a poller success.
func (s *Session) ManualVerify(ctx context.Context) (models.StatusResult, error) {
	s.mu.Lock()
	if s.state != StatePolling {
		s.mu.Unlock()
		return models.StatusResult{}, errors.E(errors.Internal, "manual verification is only available while polling", nil)
	}
	txRef := s.txRef
	s.mu.Unlock()

	result, err := s.gateway.Confirm(ctx, txRef)
	if err != nil {
		return result, err
	}

	switch result.Status {
	case models.StatusSuccessful:
		s.completeSuccess(ctx, result)
	case models.StatusFailed, models.StatusCancelled:
		s.recordFailure(result.Status, result.Message)
	}
	return result, nil
}

// completeSuccess is the single success path, reached from the poller or
// from manual verification. The first caller wins; any later call finds
// the session out of polling and does nothing, which is what guarantees
// the pending intent is cleared exactly once.
func (s *Session) completeSuccess(ctx context.Context, result models.StatusResult) {
	s.mu.Lock()
	next, err := step(s.state, StateSuccess)
	if err != nil {
		s.mu.Unlock()
		return
	}
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	s.state = next
	s.lastErr = nil
	intent := s.intent
	txRef := s.txRef
	s.closeTimer = time.AfterFunc(s.conf.SuccessClose, func() { _ = s.RequestClose(false) })
	s.mu.Unlock()

	deleted, err := s.store.Delete(ctx, intent.Kind)
	if err != nil {
		s.logger.Error("failed to clear pending intent", zap.String("tx_ref", txRef), zap.Error(err))
	} else if !deleted {
		s.logger.Warn("pending intent already cleared", zap.String("tx_ref", txRef))
	}

	receipt := models.Receipt{
		TxRef:        txRef,
		Kind:         intent.Kind,
		TargetID:     intent.TargetID,
		Quantity:     intent.Quantity,
		Amount:       intent.Amount,
		Currency:     "XAF",
		Method:       intent.Method,
		Phone:        intent.Phone,
		Email:        intent.Email,
		FullName:     intent.FullName,
		Points:       result.Points,
		TicketNumber: result.TicketNumber,
		ConfirmedAt:  time.Now().UTC(),
	}

	// Archiving and publishing are best-effort; the payment is already
	// confirmed and must not look failed to the user.
	if s.archiver != nil {
		if err = s.archiver.InsertReceipt(ctx, receipt.Transform()); err != nil {
			s.logger.Error("failed to archive receipt", zap.String("tx_ref", txRef), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err = s.publisher.Publish(ctx, receipt); err != nil {
			s.logger.Error("failed to publish receipt", zap.String("tx_ref", txRef), zap.Error(err))
		}
	}

	s.logger.Info("payment confirmed", zap.String("tx_ref", txRef), zap.Int("points", result.Points))
}

// RequestClose dismisses the session. Closing from polling is a soft
// cancel and requires confirmed=true: the poller stops but the remote
// transaction is left to resolve on its own and the pending intent stays
// stored. From any other state the session closes immediately.
func (s *Session) RequestClose(confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return nil
	case StatePolling:
		if !confirmed {
			return errors.E(errors.Invalid, "transaction may still complete, closing requires confirmation", nil)
		}
		if s.cancelPoll != nil {
			s.cancelPoll()
			s.cancelPoll = nil
		}
		s.state = StateCancelled
		s.logger.Info("verification abandoned", zap.String("tx_ref", s.txRef))
		s.closeTimer = time.AfterFunc(s.conf.CancelClose, func() { _ = s.RequestClose(false) })
		return nil
	default:
		if s.cancelPoll != nil {
			s.cancelPoll()
			s.cancelPoll = nil
		}
		if s.closeTimer != nil {
			s.closeTimer.Stop()
			s.closeTimer = nil
		}
		s.state = StateClosed
		close(s.done)
		return nil
	}
}
