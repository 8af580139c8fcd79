package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "waypay/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IntentStore durably holds the in-flight intent for each flow, one fixed
// key per flow, so verification survives a restart. Single writer,
// last write wins; two simultaneous initiations for the same flow
// overwrite each other, which is a documented limitation of the flow, not
// something this store guards against.
type IntentStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

func NewIntentStore(client *redis.Client, logger *zap.Logger) *IntentStore {
	return &IntentStore{client: client, logger: logger, keyPrefix: "pending"}
}

func (s *IntentStore) key(kind models.FlowKind) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, kind)
}

// Get returns the pending intent for the given flow, or nil when none is
// stored.
func (s *IntentStore) Get(ctx context.Context, kind models.FlowKind) (*models.PendingIntent, error) {
	raw, err := s.client.Get(ctx, s.key(kind)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var pi models.PendingIntent
	if err = json.Unmarshal(raw, &pi); err != nil {
		// An unreadable record cannot be resumed; treat it as absent.
		s.logger.Warn("dropping corrupt pending intent", zap.String("key", s.key(kind)), zap.Error(err))
		_ = s.client.Del(ctx, s.key(kind)).Err()
		return nil, nil
	}
	return &pi, nil
}

// Set stores the pending intent, replacing any previous one for the flow.
func (s *IntentStore) Set(ctx context.Context, pi models.PendingIntent) error {
	raw, err := json.Marshal(pi)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(pi.Kind), raw, 0).Err()
}

// Delete removes the pending intent and reports whether one was present.
func (s *IntentStore) Delete(ctx context.Context, kind models.FlowKind) (bool, error) {
	n, err := s.client.Del(ctx, s.key(kind)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
