package report

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"creditregister/internal/cache"
	"creditregister/internal/core"
	"creditregister/internal/export"
	"creditregister/internal/log"
	"creditregister/internal/ports"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SheetName is the worksheet holding exported rows.
const SheetName = "Entries"

// ErrNoData is returned by exports when the condition matches no entries.
var ErrNoData = errors.New("no data to export")

// Engine computes summaries and exports over a store.
type Engine struct {
	store    ports.EntryLister
	exporter ports.DocumentExporter
	logger   *log.Logger
	docs     cache.Cache[export.Document]
}

type EngineOption func(*Engine)

// WithDocumentCache reuses rendered documents while the exported rows are unchanged.
func WithDocumentCache(c cache.Cache[export.Document]) EngineOption {
	return func(e *Engine) { e.docs = c }
}

func NewEngine(store ports.EntryLister, exporter ports.DocumentExporter, logger *log.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = log.Discard()
	}
	e := &Engine{
		store:    store,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentReport),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) entries(ctx context.Context, cond Condition) ([]core.LedgerEntry, error) {
	if cond.IsDaily() {
		return e.store.ListByDate(ctx, cond.Start)
	}
	return e.store.ListByRange(ctx, cond.Start, cond.End)
}

// Summarize totals the entries matched by cond. No entries yields a zero summary.
func (e *Engine) Summarize(ctx context.Context, cond Condition) (core.Summary, error) {
	list, err := e.entries(ctx, cond)
	if err != nil {
		return core.Summary{}, err
	}
	var s core.Summary
	for _, entry := range list {
		s = s.Add(entry)
	}
	return s, nil
}

// BreakdownByPaymentMode groups count and charges per payment mode. Only modes
// that occur are returned, Cash before UPI.
func (e *Engine) BreakdownByPaymentMode(ctx context.Context, cond Condition) ([]core.ModeBreakdown, error) {
	list, err := e.entries(ctx, cond)
	if err != nil {
		return nil, err
	}

	byMode := make(map[core.PaymentMode]*core.ModeBreakdown)
	for _, entry := range list {
		b, ok := byMode[entry.PaymentMode]
		if !ok {
			b = &core.ModeBreakdown{Mode: entry.PaymentMode, TotalCharges: decimal.Zero}
			byMode[entry.PaymentMode] = b
		}
		b.Count++
		b.TotalCharges = b.TotalCharges.Add(entry.GrandCharges)
	}

	out := make([]core.ModeBreakdown, 0, len(byMode))
	for _, mode := range core.PaymentModes() {
		if b, ok := byMode[mode]; ok {
			out = append(out, *b)
			delete(byMode, mode)
		}
	}
	// Legacy rows with an unknown mode still count, after the known ones.
	rest := make([]core.ModeBreakdown, 0, len(byMode))
	for _, b := range byMode {
		rest = append(rest, *b)
	}
	slices.SortFunc(rest, func(a, b core.ModeBreakdown) int { return cmp.Compare(a.Mode, b.Mode) })
	return append(out, rest...), nil
}

// ExportRows projects the matched entries, newest first.
func (e *Engine) ExportRows(ctx context.Context, cond Condition) ([]core.ExportRow, error) {
	list, err := e.store.ListForExport(ctx, cond.Start, cond.End)
	if err != nil {
		return nil, err
	}
	rows := make([]core.ExportRow, len(list))
	for i, entry := range list {
		rows[i] = core.ExportRowOf(entry)
	}
	return rows, nil
}

// Export renders the matched entries in one format.
func (e *Engine) Export(ctx context.Context, cond Condition, format export.Format) (export.Document, error) {
	rows, err := e.exportRows(ctx, cond)
	if err != nil {
		return export.Document{}, err
	}
	return e.render(ctx, cond, format, rows)
}

// Result is the outcome of rendering one format.
type Result struct {
	Document export.Document
	Err      error
}

// ExportAll renders every format from a single read of the store. Formats render
// concurrently and independently: a failed format is reported in its Result and the
// others are still returned. The error is non-nil only when the rows could not be read.
func (e *Engine) ExportAll(ctx context.Context, cond Condition) (map[export.Format]Result, error) {
	rows, err := e.exportRows(ctx, cond)
	if err != nil {
		return nil, err
	}

	formats := export.Formats()
	results := make([]Result, len(formats))
	var g errgroup.Group
	for i, format := range formats {
		g.Go(func() error {
			doc, err := e.render(ctx, cond, format, rows)
			results[i] = Result{Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[export.Format]Result, len(formats))
	for i, format := range formats {
		out[format] = results[i]
	}
	return out, nil
}

func (e *Engine) exportRows(ctx context.Context, cond Condition) ([]core.ExportRow, error) {
	rows, err := e.ExportRows(ctx, cond)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows, nil
}

func (e *Engine) render(ctx context.Context, cond Condition, format export.Format, rows []core.ExportRow) (export.Document, error) {
	var key string
	if e.docs != nil {
		key = documentKey(cond, format, rows)
		if doc, ok := e.docs.Get(key); ok {
			e.logger.DebugContext(ctx, "Export served from cache",
				log.FieldFormat, string(format),
				log.FieldCondition, cond.Label())
			return doc, nil
		}
	}

	data, err := export.Render(e.exporter, format, rows, SheetName, cond.Title())
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to render export",
			log.FieldFormat, string(format),
			log.FieldCondition, cond.Label(),
			log.FieldError, err.Error(),
		)
		return export.Document{}, core.ExportError("render "+string(format), err)
	}
	e.logger.InfoContext(ctx, "Export rendered",
		log.FieldFormat, string(format),
		log.FieldCondition, cond.Label(),
		log.FieldRows, len(rows),
		log.FieldBytes, len(data),
	)
	doc := export.Document{
		Format:   format,
		Filename: cond.FileBase() + format.Extension(),
		Data:     data,
	}
	if e.docs != nil {
		e.docs.Set(key, doc)
	}
	return doc, nil
}

// documentKey identifies a rendering by its inputs: the condition (title and filename),
// the format and a digest of every exported value.
func documentKey(cond Condition, format export.Format, rows []core.ExportRow) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s\n",
			r.Date, r.Time, r.CustomerName, r.CustomerType, r.PaymentMode,
			r.BAmount, r.KAmount, r.Charges, r.Remarks)
	}
	return string(format) + "|" + cond.Label() + "|" + hex.EncodeToString(h.Sum(nil))
}
