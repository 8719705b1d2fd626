package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/mcdev12/draftroom/go/internal/draft/session"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Sink is the synchronous persistence surface AsyncWriter decouples the
// session from. *Store satisfies it.
type Sink interface {
	CommitPick(ctx context.Context, pick models.DraftPick) error
	RecordSale(ctx context.Context, draftID, playerID, teamID uuid.UUID, price int) error
	SaveSnapshot(ctx context.Context, snap session.Snapshot) error
}

// AsyncWriter keeps the pick clock independent of database latency: the
// session enqueues writes and moves on; a worker applies them in FIFO order
// with exponential backoff. A write that exhausts its retries is logged and
// dropped — the draft keeps running in degraded mode and the idempotent
// snapshot/pick writes let a later restart reconcile.
type AsyncWriter struct {
	sink    Sink
	queue   chan func(ctx context.Context) error
	done    chan struct{}
	retries uint64
	base    time.Duration
	log     zerolog.Logger
}

// NewAsyncWriter starts the write worker. buffer bounds the number of
// pending writes; an overflow blocks the caller, which for the session means
// a draft pauses on an outage instead of silently losing writes.
func NewAsyncWriter(sink Sink, buffer int, log zerolog.Logger) *AsyncWriter {
	if buffer <= 0 {
		buffer = 256
	}
	w := &AsyncWriter{
		sink:    sink,
		queue:   make(chan func(ctx context.Context) error, buffer),
		done:    make(chan struct{}),
		retries: 5,
		base:    100 * time.Millisecond,
		log:     log,
	}
	go w.worker()
	return w
}

// CommitPick implements session.RosterWriter.
func (w *AsyncWriter) CommitPick(_ context.Context, pick models.DraftPick) error {
	w.enqueue(func(ctx context.Context) error {
		return w.sink.CommitPick(ctx, pick)
	})
	return nil
}

// RecordSale implements session.RosterWriter.
func (w *AsyncWriter) RecordSale(_ context.Context, draftID, playerID, teamID uuid.UUID, price int) error {
	w.enqueue(func(ctx context.Context) error {
		return w.sink.RecordSale(ctx, draftID, playerID, teamID, price)
	})
	return nil
}

// SaveSnapshot implements session.SnapshotWriter.
func (w *AsyncWriter) SaveSnapshot(_ context.Context, snap session.Snapshot) error {
	w.enqueue(func(ctx context.Context) error {
		return w.sink.SaveSnapshot(ctx, snap)
	})
	return nil
}

func (w *AsyncWriter) enqueue(job func(ctx context.Context) error) {
	select {
	case w.queue <- job:
	case <-w.done:
	}
}

func (w *AsyncWriter) worker() {
	for {
		select {
		case <-w.done:
			return
		case job := <-w.queue:
			w.apply(job)
		}
	}
}

func (w *AsyncWriter) apply(job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backoff := retry.WithMaxRetries(w.retries, retry.NewExponential(w.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := job(ctx); err != nil {
			w.log.Warn().Err(err).Msg("draft write failed, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		w.log.Error().Err(err).Msg("draft write dropped after retries, running degraded")
	}
}

// Close stops the worker. Pending writes are drained first so a clean
// shutdown loses nothing.
func (w *AsyncWriter) Close() {
	select {
	case <-w.done:
		return
	default:
	}
	for {
		select {
		case job := <-w.queue:
			w.apply(job)
		default:
			close(w.done)
			return
		}
	}
}
