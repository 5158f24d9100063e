package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"example.com/daywell/internal/events"
)

// RollupStore applies minute deltas to the daily totals read model, at most once per event key.
type RollupStore interface {
	ApplyRollup(ctx context.Context, eventKey, userID, date, activity string, delta int) (bool, error)
}

// RollupHandler folds activity events into per-day category totals.
type RollupHandler struct {
	store  RollupStore
	logger *zap.Logger
}

// NewRollupHandler constructs a RollupHandler.
func NewRollupHandler(store RollupStore, logger *zap.Logger) *RollupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollupHandler{store: store, logger: logger}
}

// Handle adds logged minutes and subtracts deleted ones. Other event types are acknowledged
// without effect.
func (h *RollupHandler) Handle(ctx context.Context, msg Message) error {
	var (
		payload events.ActivityLogged
		sign    int
	)
	switch msg.EventType {
	case events.TypeActivityLogged:
		sign = 1
	case events.TypeActivityDeleted:
		sign = -1
	default:
		h.logger.Debug("ignoring event", zap.String("event_type", msg.EventType))
		return nil
	}

	// ActivityDeleted carries the same fields as ActivityLogged.
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	if payload.UserID == "" || payload.Date == "" || payload.Activity == "" {
		return fmt.Errorf("%s payload missing user_id, date or activity", msg.EventType)
	}

	applied, err := h.store.ApplyRollup(ctx, msg.EventKey, payload.UserID, payload.Date, payload.Activity, sign*payload.DurationMin)
	if err != nil {
		return err
	}
	if !applied {
		recordDuplicate(msg)
		h.logger.Debug("duplicate event skipped", zap.String("event_key", msg.EventKey))
	}
	return nil
}
