package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docagenda/scheduling-api/internal/schedule"
	"github.com/docagenda/scheduling-api/pkg/metrics"
)

// Reconciler periodically rebuilds the in-memory conflict index from
// storage. A crash between a status update and the matching reservation
// release can leave the index out of sync; the rebuild heals it.
type Reconciler struct {
	index    *schedule.Index
	source   schedule.IntervalSource
	interval time.Duration
	metrics  *metrics.Metrics
}

func NewReconciler(index *schedule.Index, source schedule.IntervalSource, interval time.Duration, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		index:    index,
		source:   source,
		interval: interval,
		metrics:  m,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.reconcile(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to rebuild conflict index")
			}
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) error {
	start := time.Now()
	if err := r.index.Rebuild(ctx, r.source); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.IndexRebuilds.Inc()
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("Conflict index rebuilt")
	return nil
}
