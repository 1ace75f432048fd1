package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/events"
	"github.com/stemsi/classroom-backend/internal/metrics"
	"github.com/stemsi/classroom-backend/internal/model"
)

// resubscribeDelay is the pause before retrying a failed or closed subscription.
const resubscribeDelay = 5 * time.Second

// ActivityWorker copies every workflow event from the bus into the activity log.
type ActivityWorker struct {
	bus   events.Bus
	store events.ActivityLog
	log   zerolog.Logger
	retry time.Duration
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(bus events.Bus, store events.ActivityLog, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		bus:   bus,
		store: store,
		log:   log.With().Str("component", "activity_worker").Logger(),
		retry: resubscribeDelay,
	}
}

// Start runs until ctx is done. Call in a goroutine.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")
	defer w.log.Info().Msg("Worker stopped")

	for {
		stream, err := w.bus.Subscribe(ctx)
		if err != nil {
			w.log.Error().Err(err).Msg("Subscribe error, retrying")
		} else {
			w.consume(ctx, stream)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retry):
		}
	}
}

// consume records events until the stream closes.
func (w *ActivityWorker) consume(ctx context.Context, stream <-chan model.Event) {
	for ev := range stream {
		// Appends outlive ctx so events already received are not lost on shutdown.
		appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		err := w.store.Append(appendCtx, ev)
		cancel()
		if err != nil {
			w.log.Error().Err(err).
				Str("event_id", ev.ID).
				Str("event", string(ev.Type)).
				Msg("Append error")
			continue
		}
		metrics.EventsRecorded.WithLabelValues(string(ev.Type)).Inc()
	}
}
