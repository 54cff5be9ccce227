package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

// Entry is a raw row of the entries table. Money columns hold canonical decimal strings.
type Entry struct {
	ID           int64
	EntryDate    string
	EntryTime    string
	CustomerType string
	CustomerName string
	PaymentMode  string
	BAmount      string
	BCharges     string
	KAmount      string
	KCharges     string
	GrandCharges string
	Remarks      sql.NullString
}

const entryColumns = `id, entry_date, entry_time, customer_type, customer_name, payment_mode,
       b_amount, b_charges, k_amount, k_charges, grand_charges, remarks`

const createEntry = `INSERT INTO entries (
    entry_date, entry_time, customer_type, customer_name, payment_mode,
    b_amount, b_charges, k_amount, k_charges, grand_charges, remarks
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateEntryParams struct {
	EntryDate    string
	EntryTime    string
	CustomerType string
	CustomerName string
	PaymentMode  string
	BAmount      string
	BCharges     string
	KAmount      string
	KCharges     string
	GrandCharges string
	Remarks      sql.NullString
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEntry,
		arg.EntryDate,
		arg.EntryTime,
		arg.CustomerType,
		arg.CustomerName,
		arg.PaymentMode,
		arg.BAmount,
		arg.BCharges,
		arg.KAmount,
		arg.KCharges,
		arg.GrandCharges,
		arg.Remarks,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateEntry = `UPDATE entries SET
    customer_name = ?, customer_type = ?, payment_mode = ?,
    b_amount = ?, b_charges = ?, k_amount = ?, k_charges = ?,
    grand_charges = ?, remarks = ?
WHERE id = ?`

type UpdateEntryParams struct {
	CustomerName string
	CustomerType string
	PaymentMode  string
	BAmount      string
	BCharges     string
	KAmount      string
	KCharges     string
	GrandCharges string
	Remarks      sql.NullString
	ID           int64
}

// UpdateEntry returns the number of rows changed.
func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateEntry,
		arg.CustomerName,
		arg.CustomerType,
		arg.PaymentMode,
		arg.BAmount,
		arg.BCharges,
		arg.KAmount,
		arg.KCharges,
		arg.GrandCharges,
		arg.Remarks,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteEntry = `DELETE FROM entries WHERE id = ?`

// DeleteEntry returns the number of rows removed.
func (q *Queries) DeleteEntry(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getEntry = `SELECT ` + entryColumns + ` FROM entries WHERE id = ?`

func (q *Queries) GetEntry(ctx context.Context, id int64) (Entry, error) {
	row := q.db.QueryRowContext(ctx, getEntry, id)
	var e Entry
	err := row.Scan(
		&e.ID,
		&e.EntryDate,
		&e.EntryTime,
		&e.CustomerType,
		&e.CustomerName,
		&e.PaymentMode,
		&e.BAmount,
		&e.BCharges,
		&e.KAmount,
		&e.KCharges,
		&e.GrandCharges,
		&e.Remarks,
	)
	return e, err
}

const listEntriesByDate = `SELECT ` + entryColumns + ` FROM entries
WHERE entry_date = ?
ORDER BY id DESC`

func (q *Queries) ListEntriesByDate(ctx context.Context, entryDate string) ([]Entry, error) {
	return q.list(ctx, listEntriesByDate, entryDate)
}

const listEntriesByRange = `SELECT ` + entryColumns + ` FROM entries
WHERE entry_date BETWEEN ? AND ?
ORDER BY entry_date DESC, id DESC`

func (q *Queries) ListEntriesByRange(ctx context.Context, start, end string) ([]Entry, error) {
	return q.list(ctx, listEntriesByRange, start, end)
}

const listEntriesByCustomer = `SELECT ` + entryColumns + ` FROM entries
WHERE customer_name = ? AND entry_date BETWEEN ? AND ?
ORDER BY entry_date DESC, id DESC`

func (q *Queries) ListEntriesByCustomer(ctx context.Context, name, start, end string) ([]Entry, error) {
	return q.list(ctx, listEntriesByCustomer, name, start, end)
}

const listEntriesForExport = `SELECT ` + entryColumns + ` FROM entries
WHERE entry_date BETWEEN ? AND ?
ORDER BY entry_date DESC, entry_time DESC, id DESC`

func (q *Queries) ListEntriesForExport(ctx context.Context, start, end string) ([]Entry, error) {
	return q.list(ctx, listEntriesForExport, start, end)
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.EntryDate,
			&e.EntryTime,
			&e.CustomerType,
			&e.CustomerName,
			&e.PaymentMode,
			&e.BAmount,
			&e.BCharges,
			&e.KAmount,
			&e.KCharges,
			&e.GrandCharges,
			&e.Remarks,
		); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
