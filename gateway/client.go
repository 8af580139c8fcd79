package gateway

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	// Local Packages
	errors "waypay/errors"
	models "waypay/models"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout suits mobile-money gateway latency; initiation regularly
// takes tens of seconds while the gateway reaches the operator.
const DefaultTimeout = 30 * time.Second

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the festival payment backend. The backend fronts the
// actual payment gateway; this client never holds gateway credentials.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

func NewClient(conf Config, logger *zap.Logger) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		apiKey:  conf.APIKey,
		logger:  logger,
	}
}

// envelope is the response wrapper every backend endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initiate submits a purchase or vote intent and returns the txRef the
// backend issued for it. The intent must already be validated; this method
// performs no local checks and no retries.
func (c *Client) Initiate(ctx context.Context, intent models.Intent) (models.InitiationResult, error) {
	var result models.InitiationResult

	body, err := json.Marshal(intent)
	if err != nil {
		return result, errors.InitiationFailedErr(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/initiate", bytes.NewReader(body))
	if err != nil {
		return result, errors.InitiationFailedErr(err)
	}
	req.Header.Set("Content-Type", "application/json")
	// One key per attempt; the backend deduplicates double submits.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	if err = c.do(req, &result); err != nil {
		return result, errors.InitiationFailedErr(err)
	}
	if result.TxRef == "" {
		return result, errors.InitiationFailedErr(fmt.Errorf("backend returned no tx_ref"))
	}
	return result, nil
}

// Status fetches the current state of a transaction.
func (c *Client) Status(ctx context.Context, txRef string) (models.StatusResult, error) {
	var result models.StatusResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+txRef, nil)
	if err != nil {
		return result, errors.E(errors.Transient, "status check failed", err)
	}

	if err = c.do(req, &result); err != nil {
		return result, errors.E(errors.Transient, "status check failed", err)
	}
	if result.TxRef == "" {
		result.TxRef = txRef
	}
	return result, nil
}

// Confirm asks the backend to re-verify the transaction with the payment
// gateway. Idempotent; same response shape as Status.
func (c *Client) Confirm(ctx context.Context, txRef string) (models.StatusResult, error) {
	var result models.StatusResult

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/confirm/"+txRef, nil)
	if err != nil {
		return result, errors.E(errors.Transient, "manual verification failed", err)
	}

	if err = c.do(req, &result); err != nil {
		return result, errors.E(errors.Transient, "manual verification failed", err)
	}
	if result.TxRef == "" {
		result.TxRef = txRef
	}
	return result, nil
}

// do executes the request and decodes the envelope into out.
func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var env envelope
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("malformed response (http %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug("backend rejected request",
			zap.String("path", req.URL.Path), zap.Int("code", resp.StatusCode))
		return fmt.Errorf("%s", msg)
	}

	if len(env.Data) > 0 {
		if err = json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("malformed response data: %w", err)
		}
	}
	return nil
}
