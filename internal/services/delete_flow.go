package services

import (
	"context"
	"errors"
)

// DeleteState is the state of a DeleteFlow.
type DeleteState int

const (
	Idle DeleteState = iota
	PendingConfirm
)

func (s DeleteState) String() string {
	if s == PendingConfirm {
		return "pending_confirm"
	}
	return "idle"
}

// ErrNoPendingDelete is returned by Confirm when nothing was requested.
var ErrNoPendingDelete = errors.New("no delete pending confirmation")

// EntryDeleter removes one entry by id.
type EntryDeleter interface {
	DeleteEntry(ctx context.Context, id int64) error
}

// DeleteFlow guards entry deletion behind an explicit confirmation step.
// It is not safe for concurrent use.
type DeleteFlow struct {
	deleter EntryDeleter
	state   DeleteState
	target  int64
}

func NewDeleteFlow(d EntryDeleter) *DeleteFlow {
	return &DeleteFlow{deleter: d}
}

func (f *DeleteFlow) State() DeleteState { return f.state }

// Pending returns the id awaiting confirmation.
func (f *DeleteFlow) Pending() (int64, bool) {
	return f.target, f.state == PendingConfirm
}

// Request asks to delete id. A request while another is pending replaces its target.
func (f *DeleteFlow) Request(id int64) {
	f.state = PendingConfirm
	f.target = id
}

// Cancel drops the pending request without touching the store.
func (f *DeleteFlow) Cancel() {
	f.Reset()
}

// Reset returns to Idle, e.g. when the operator navigates away.
func (f *DeleteFlow) Reset() {
	f.state = Idle
	f.target = 0
}

// Confirm deletes the pending entry and returns its id. The flow is back in Idle
// afterwards whether or not the delete succeeded.
func (f *DeleteFlow) Confirm(ctx context.Context) (int64, error) {
	id, ok := f.Pending()
	if !ok {
		return 0, ErrNoPendingDelete
	}
	f.Reset()
	return id, f.deleter.DeleteEntry(ctx, id)
}
