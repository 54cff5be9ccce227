// Package storage persists ledger entries in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"creditregister/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ports.EntryStore. Every call checks out its own connection
// and returns it before exiting; mutations run in a single transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewSQLiteRepositoryFromDB(db), nil
}

// NewSQLiteRepositoryFromDB wraps an already opened and migrated database.
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	// One writer at a time.
	db.SetMaxOpenConns(1)
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withConn runs fn on a dedicated connection that is always released.
func (r *SQLiteRepository) withConn(ctx context.Context, fn func(q *Queries) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(New(conn))
}

// withTx runs fn inside one transaction on a dedicated connection.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Insert implements ports.EntryStore
func (r *SQLiteRepository) Insert(ctx context.Context, e core.LedgerEntry) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(q *Queries) error {
		var err error
		id, err = q.CreateEntry(ctx, CreateEntryParams{
			EntryDate:    e.Date.String(),
			EntryTime:    e.Time.String(),
			CustomerType: string(e.CustomerType),
			CustomerName: e.CustomerName,
			PaymentMode:  string(e.PaymentMode),
			BAmount:      e.BAmount.String(),
			BCharges:     e.BCharges.String(),
			KAmount:      e.KAmount.String(),
			KCharges:     e.KCharges.String(),
			GrandCharges: e.GrandCharges.String(),
			Remarks:      nullString(e.Remarks),
		})
		return err
	})
	if err != nil {
		return 0, core.StoreError("insert entry", err)
	}

	slog.DebugContext(ctx, "Entry saved to SQLite",
		"id", id,
		"customer", e.CustomerName,
		"date", e.Date.String(),
		"grand_charges", e.GrandCharges.String())

	return id, nil
}

// Update implements ports.EntryStore
func (r *SQLiteRepository) Update(ctx context.Context, e core.LedgerEntry) error {
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.UpdateEntry(ctx, UpdateEntryParams{
			CustomerName: e.CustomerName,
			CustomerType: string(e.CustomerType),
			PaymentMode:  string(e.PaymentMode),
			BAmount:      e.BAmount.String(),
			BCharges:     e.BCharges.String(),
			KAmount:      e.KAmount.String(),
			KCharges:     e.KCharges.String(),
			GrandCharges: e.GrandCharges.String(),
			Remarks:      nullString(e.Remarks),
			ID:           e.ID,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return core.NotFound(e.ID)
		}
		return nil
	})
	return storeErr("update entry", err)
}

// Delete implements ports.EntryStore
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	err := r.withTx(ctx, func(q *Queries) error {
		n, err := q.DeleteEntry(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.NotFound(id)
		}
		return nil
	})
	return storeErr("delete entry", err)
}

// Get implements ports.EntryStore
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.LedgerEntry, error) {
	var out core.LedgerEntry
	err := r.withConn(ctx, func(q *Queries) error {
		row, err := q.GetEntry(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFound(id)
		}
		if err != nil {
			return err
		}
		out, err = row.toDomain()
		return err
	})
	return out, storeErr("get entry", err)
}

// ListByDate implements ports.EntryLister
func (r *SQLiteRepository) ListByDate(ctx context.Context, d core.Date) ([]core.LedgerEntry, error) {
	return r.list(ctx, "list entries by date", func(q *Queries) ([]Entry, error) {
		return q.ListEntriesByDate(ctx, d.String())
	})
}

// ListByRange implements ports.EntryLister
func (r *SQLiteRepository) ListByRange(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	return r.list(ctx, "list entries by range", func(q *Queries) ([]Entry, error) {
		return q.ListEntriesByRange(ctx, start.String(), end.String())
	})
}

// ListByCustomer implements ports.EntryLister
func (r *SQLiteRepository) ListByCustomer(ctx context.Context, name string, start, end core.Date) ([]core.LedgerEntry, error) {
	return r.list(ctx, "list entries by customer", func(q *Queries) ([]Entry, error) {
		return q.ListEntriesByCustomer(ctx, name, start.String(), end.String())
	})
}

// ListForExport implements ports.EntryLister
func (r *SQLiteRepository) ListForExport(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	return r.list(ctx, "list entries for export", func(q *Queries) ([]Entry, error) {
		return q.ListEntriesForExport(ctx, start.String(), end.String())
	})
}

func (r *SQLiteRepository) list(ctx context.Context, op string, query func(q *Queries) ([]Entry, error)) ([]core.LedgerEntry, error) {
	var out []core.LedgerEntry
	err := r.withConn(ctx, func(q *Queries) error {
		rows, err := query(q)
		if err != nil {
			return err
		}
		out = make([]core.LedgerEntry, 0, len(rows))
		for _, row := range rows {
			e, err := row.toDomain()
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, core.StoreError(op, err)
	}
	return out, nil
}

// storeErr wraps err as a store failure unless it already names a missing row.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, core.ErrNotFound) {
		return err
	}
	return core.StoreError(op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (e Entry) toDomain() (core.LedgerEntry, error) {
	d, err := core.ParseDate(e.EntryDate)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	t, err := core.ParseTimeOfDay(e.EntryTime)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	amounts := make([]decimal.Decimal, 5)
	for i, s := range []string{e.BAmount, e.BCharges, e.KAmount, e.KCharges, e.GrandCharges} {
		if amounts[i], err = decimal.NewFromString(s); err != nil {
			return core.LedgerEntry{}, fmt.Errorf("entry %d: parse amount %q: %w", e.ID, s, err)
		}
	}
	return core.LedgerEntry{
		ID:           e.ID,
		Date:         d,
		Time:         t,
		CustomerType: core.CustomerType(e.CustomerType),
		CustomerName: e.CustomerName,
		PaymentMode:  core.PaymentMode(e.PaymentMode),
		BAmount:      amounts[0],
		BCharges:     amounts[1],
		KAmount:      amounts[2],
		KCharges:     amounts[3],
		GrandCharges: amounts[4],
		Remarks:      e.Remarks.String,
	}, nil
}
