package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/metrics"
	"github.com/stemsi/classroom-backend/internal/model"
)

// EventPublisher broadcasts committed workflow changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// publish is best-effort: failures are counted and logged, never returned.
func publish(ctx context.Context, events EventPublisher, log zerolog.Logger, ev model.Event) {
	if events == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := events.Publish(ctx, ev); err != nil {
		metrics.EventPublishErrors.Inc()
		log.Warn().Err(err).Str("event", string(ev.Type)).Int("class_id", ev.ClassID).Msg("Failed to publish event")
	}
}
