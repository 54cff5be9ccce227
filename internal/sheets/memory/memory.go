// Package memory is an in-process stand-in for the Google Sheets mirror. It keeps one
// row per entry and is used when no spreadsheet is configured.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"creditregister/internal/core"
	"creditregister/internal/ports"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[int64]core.LedgerEntry
}

var _ ports.EntryMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: map[int64]core.LedgerEntry{}}
}

// Upsert replaces the row for e.ID or appends a new one.
func (m *Mirror) Upsert(_ context.Context, e core.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

// Remove drops the row for id. Removing an unknown id is not an error.
func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Rows returns the mirrored entries ordered by id.
func (m *Mirror) Rows() []core.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.LedgerEntry, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b core.LedgerEntry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
