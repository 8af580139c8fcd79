package workflow

import (
	// Go Internal Packages
	"context"
	"sync"
	"time"

	// Local Packages
	models "waypay/models"

	// External Packages
	"go.uber.org/zap"
)

// Defaults match the observed behaviour of the payment backend: a fixed
// three second cadence, roughly one minute before giving up.
const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 20
)

// StatusChecker fetches the current state of a transaction.
type StatusChecker interface {
	Status(ctx context.Context, txRef string) (models.StatusResult, error)
}

// Callbacks receive poll observations. OnStatus fires on every readable
// observation; exactly one of OnSuccess/OnFailure fires per poll session,
// after which no further callback of any kind is delivered. All callbacks
// run on the poller's goroutine.
type Callbacks struct {
	OnStatus  func(status models.TxStatus)
	OnSuccess func(result models.StatusResult)
	OnFailure func(status models.TxStatus, message string)
}

// Poller drives fixed-interval status checks for one txRef at a time.
// The cadence is deliberately constant, no backoff and no jitter; the
// backend rate is set by the mobile-money operator, not by this client.
type Poller struct {
	checker     StatusChecker
	logger      *zap.Logger
	interval    time.Duration
	maxAttempts int
}

func NewPoller(checker StatusChecker, logger *zap.Logger, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Poller{checker: checker, logger: logger, interval: interval, maxAttempts: maxAttempts}
}

// Start polls txRef until a terminal status, the attempt budget, the
// context, or the returned cancel stops it. The cancel is idempotent and
// halts the loop immediately; after it returns no callback fires.
func (p *Poller) Start(ctx context.Context, txRef string, cb Callbacks) (cancel func()) {
	stop := make(chan struct{})
	var once sync.Once
	cancel = func() {
		once.Do(func() { close(stop) })
	}

	go p.run(ctx, txRef, cb, stop)
	return cancel
}

func (p *Poller) run(ctx context.Context, txRef string, cb Callbacks, stop <-chan struct{}) {
	for attempt := 1; ; attempt++ {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		result, err := p.checker.Status(ctx, txRef)

		// A response that raced the cancel must not reach the caller.
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err != nil {
			// Transient: keep polling, but the attempt still counts.
			p.logger.Warn("status check failed",
				zap.String("tx_ref", txRef), zap.Int("attempt", attempt), zap.Error(err))
		} else {
			if cb.OnStatus != nil {
				cb.OnStatus(result.Status)
			}
			switch result.Status {
			case models.StatusSuccessful:
				if cb.OnSuccess != nil {
					cb.OnSuccess(result)
				}
				return
			case models.StatusFailed, models.StatusCancelled:
				if cb.OnFailure != nil {
					cb.OnFailure(result.Status, result.Message)
				}
				return
			}
		}

		if attempt >= p.maxAttempts {
			p.logger.Warn("polling budget exhausted",
				zap.String("tx_ref", txRef), zap.Int("attempts", attempt))
			if cb.OnFailure != nil {
				cb.OnFailure(models.StatusTimeout, "verification timed out")
			}
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
