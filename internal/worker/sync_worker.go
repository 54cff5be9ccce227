// Package worker applies ledger entry events to an external mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"creditregister/internal/amqp"
	"creditregister/internal/core"
	"creditregister/internal/ports"
)

// EntryReader is the part of the store the worker needs.
type EntryReader interface {
	Get(ctx context.Context, id int64) (core.LedgerEntry, error)
	ListByRange(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error)
}

// SyncWorker keeps the mirror in step with the ledger store.
type SyncWorker struct {
	store  EntryReader
	mirror ports.EntryMirror
}

func NewSyncWorker(store EntryReader, mirror ports.EntryMirror) *SyncWorker {
	return &SyncWorker{store: store, mirror: mirror}
}

// HandleEntryEvent processes a single entry event from AMQP. The full row is always
// re-read from the store, so redelivered or out-of-order events converge on the
// current state.
func (w *SyncWorker) HandleEntryEvent(ctx context.Context, evt *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"type", evt.Type,
		"id", evt.ID)

	if evt.Type == amqp.EntryDeleted {
		if err := w.mirror.Remove(ctx, evt.ID); err != nil {
			return fmt.Errorf("remove entry %d from mirror: %w", evt.ID, err)
		}
		return nil
	}

	e, err := w.store.Get(ctx, evt.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event was published.
		slog.InfoContext(ctx, "Entry no longer exists, removing from mirror", "id", evt.ID)
		if err := w.mirror.Remove(ctx, evt.ID); err != nil {
			return fmt.Errorf("remove entry %d from mirror: %w", evt.ID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, e); err != nil {
		return fmt.Errorf("mirror entry %d: %w", evt.ID, err)
	}
	return nil
}

// Resync pushes every entry in the range to the mirror. It is a backup for events lost
// while the worker was down and keeps going past individual failures.
func (w *SyncWorker) Resync(ctx context.Context, start, end core.Date) (int, error) {
	entries, err := w.store.ListByRange(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("list entries for resync: %w", err)
	}

	synced := 0
	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.mirror.Upsert(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry during resync", "id", e.ID, "error", err)
			errs = append(errs, fmt.Errorf("entry %d: %w", e.ID, err))
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Resync completed",
		"start", start.String(),
		"end", end.String(),
		"total", len(entries),
		"synced", synced,
		"errors", len(errs))

	return synced, errors.Join(errs...)
}
