package services

import (
	"context"
	"errors"
	"testing"

	"creditregister/internal/core"
)

type recordingDeleter struct {
	deleted []int64
	err     error
}

func (d *recordingDeleter) DeleteEntry(_ context.Context, id int64) error {
	if d.err != nil {
		return d.err
	}
	d.deleted = append(d.deleted, id)
	return nil
}

func TestDeleteFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm deletes exactly the pending id", func(t *testing.T) {
		d := &recordingDeleter{}
		f := NewDeleteFlow(d)
		f.Request(4)
		if f.State() != PendingConfirm {
			t.Fatalf("expected pending, got %s", f.State())
		}
		id, err := f.Confirm(ctx)
		if err != nil || id != 4 {
			t.Fatalf("unexpected confirm result id=%d err=%v", id, err)
		}
		if len(d.deleted) != 1 || d.deleted[0] != 4 {
			t.Fatalf("expected one delete of 4, got %v", d.deleted)
		}
		if f.State() != Idle {
			t.Fatalf("expected idle after confirm")
		}
	})

	t.Run("cancel never touches the store", func(t *testing.T) {
		d := &recordingDeleter{}
		f := NewDeleteFlow(d)
		f.Request(4)
		f.Cancel()
		if f.State() != Idle || len(d.deleted) != 0 {
			t.Fatalf("cancel must return to idle without deleting: %v", d.deleted)
		}
	})

	t.Run("new request retargets", func(t *testing.T) {
		d := &recordingDeleter{}
		f := NewDeleteFlow(d)
		f.Request(1)
		f.Request(2)
		if _, err := f.Confirm(ctx); err != nil {
			t.Fatal(err)
		}
		if len(d.deleted) != 1 || d.deleted[0] != 2 {
			t.Fatalf("expected only 2 deleted, got %v", d.deleted)
		}
	})

	t.Run("confirm in idle is rejected", func(t *testing.T) {
		f := NewDeleteFlow(&recordingDeleter{})
		if _, err := f.Confirm(ctx); !errors.Is(err, ErrNoPendingDelete) {
			t.Fatalf("expected ErrNoPendingDelete, got %v", err)
		}
	})

	t.Run("failed confirm still returns to idle", func(t *testing.T) {
		f := NewDeleteFlow(&recordingDeleter{err: core.NotFound(9)})
		f.Request(9)
		if _, err := f.Confirm(ctx); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if f.State() != Idle {
			t.Fatalf("expected idle after failed confirm")
		}
		if _, err := f.Confirm(ctx); !errors.Is(err, ErrNoPendingDelete) {
			t.Fatalf("stale id must not be retried, got %v", err)
		}
	})

	t.Run("reset on navigation", func(t *testing.T) {
		f := NewDeleteFlow(&recordingDeleter{})
		f.Request(3)
		f.Reset()
		if _, ok := f.Pending(); ok {
			t.Fatalf("expected no pending id after reset")
		}
	})
}
