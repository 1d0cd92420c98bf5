package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Watcher polls object storage on an interval and ingests anything new.
type Watcher struct {
	service  *Service
	interval time.Duration
}

func NewWatcher(service *Service, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Watcher{service: service, interval: interval}
}

// Start blocks until the context is cancelled. Ingestion errors are logged
// and the next tick retries from the ingest log's checkpoint.
func (w *Watcher) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("ingest watcher started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("ingest watcher stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	count, err := w.service.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("ingest watcher run failed")
		return
	}
	if count > 0 {
		log.Info().Int("objects", count).Msg("ingest watcher processed new objects")
	}
}
