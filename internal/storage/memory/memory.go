// Package memory is an in-process EntryStore for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"creditregister/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.LedgerEntry
}

func New() *Store {
	return &Store{nextID: 1, items: map[int64]core.LedgerEntry{}}
}

// Insert stores e under a fresh id.
func (s *Store) Insert(_ context.Context, e core.LedgerEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.items[e.ID] = e
	return e.ID, nil
}

// Update overwrites the editable columns; date and time are kept from the stored row.
func (s *Store) Update(_ context.Context, e core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[e.ID]
	if !ok {
		return core.NotFound(e.ID)
	}
	e.Date, e.Time = cur.Date, cur.Time
	s.items[e.ID] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return core.NotFound(id)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Get(_ context.Context, id int64) (core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.LedgerEntry{}, core.NotFound(id)
	}
	return e, nil
}

func (s *Store) ListByDate(_ context.Context, d core.Date) ([]core.LedgerEntry, error) {
	out := s.filter(func(e core.LedgerEntry) bool { return e.Date == d })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) ListByRange(_ context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	out := s.filter(inRange(start, end))
	sortByDateThenID(out)
	return out, nil
}

func (s *Store) ListByCustomer(_ context.Context, name string, start, end core.Date) ([]core.LedgerEntry, error) {
	within := inRange(start, end)
	out := s.filter(func(e core.LedgerEntry) bool { return e.CustomerName == name && within(e) })
	sortByDateThenID(out)
	return out, nil
}

func (s *Store) ListForExport(_ context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	out := s.filter(inRange(start, end))
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date.After(b.Date.Time)
		}
		if c := strings.Compare(a.Time.String(), b.Time.String()); c != 0 {
			return c > 0
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) filter(keep func(core.LedgerEntry) bool) []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.LedgerEntry{}
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func inRange(start, end core.Date) func(core.LedgerEntry) bool {
	return func(e core.LedgerEntry) bool {
		return !e.Date.Before(start.Time) && !e.Date.After(end.Time)
	}
}

func sortByDateThenID(out []core.LedgerEntry) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
}
