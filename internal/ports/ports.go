// Package ports declares the interfaces the ledger services depend on.
package ports

import (
	"context"

	"creditregister/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryStore persists ledger entries. Every mutation is atomic.
	EntryStore interface {
		// Insert stores e and returns the assigned id. e.ID is ignored.
		Insert(ctx context.Context, e core.LedgerEntry) (int64, error)
		// Update overwrites the editable columns of the row with e.ID.
		// Date and time are left untouched. Returns core.ErrNotFound when absent.
		Update(ctx context.Context, e core.LedgerEntry) error
		// Delete removes exactly one row. Returns core.ErrNotFound when absent.
		Delete(ctx context.Context, id int64) error
		Get(ctx context.Context, id int64) (core.LedgerEntry, error)
		EntryLister
	}

	// EntryLister is the read side used by views and reports.
	EntryLister interface {
		// ListByDate returns the entries of one day, newest id first.
		ListByDate(ctx context.Context, d core.Date) ([]core.LedgerEntry, error)
		// ListByRange returns entries with start <= date <= end, by date then id descending.
		// An inverted range yields no rows.
		ListByRange(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error)
		// ListByCustomer is ListByRange restricted to one customer name (exact match).
		ListByCustomer(ctx context.Context, name string, start, end core.Date) ([]core.LedgerEntry, error)
		// ListForExport returns the range ordered by date, time and id, all descending.
		ListForExport(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error)
	}

	// DocumentExporter renders export rows into downloadable documents.
	DocumentExporter interface {
		ToSpreadsheet(rows []core.ExportRow, sheetName string) ([]byte, error)
		ToPDF(rows []core.ExportRow, title string) ([]byte, error)
	}

	// EntryMirror keeps an external copy of the ledger in sync.
	EntryMirror interface {
		Upsert(ctx context.Context, e core.LedgerEntry) error
		Remove(ctx context.Context, id int64) error
	}

	// Pinger reports whether a backend is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
