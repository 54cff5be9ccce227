package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creditregister/internal/amqp"
	"creditregister/internal/core"
	"creditregister/internal/draft"
	"creditregister/internal/log"
	"creditregister/internal/ports"
)

// EventPublisher announces ledger mutations to other processes.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, evt *amqp.EntryEvent) error
}

// LedgerService validates and persists ledger entries and publishes a change event
// after every successful mutation.
type LedgerService struct {
	store     ports.EntryStore
	publisher EventPublisher
	now       func() time.Time
	logger    *log.Logger
	sl        *log.StructuredLogger
}

type Option func(*LedgerService)

// WithPublisher enables change events. Publish failures are logged and never fail the mutation.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock sets the source of "now" used to stamp saved drafts.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(store ports.EntryStore, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:  store,
		now:    time.Now,
		logger: log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.sl = log.NewStructuredLogger(s.logger)
	return s
}

// Now returns the service clock's current instant.
func (s *LedgerService) Now() time.Time { return s.now() }

// Today returns the current calendar day on the service clock.
func (s *LedgerService) Today() core.Date { return core.DateOf(s.now()) }

// CreateEntry validates n and inserts it. GrandCharges is always derived from the two
// charge totals. Nothing is written when validation fails.
func (s *LedgerService) CreateEntry(ctx context.Context, n core.NewEntry) (int64, error) {
	if err := n.Validate(); err != nil {
		return 0, err
	}
	e := n.Entry()

	id, err := s.store.Insert(ctx, e)
	if err != nil {
		s.sl.LogError(ctx, "Failed to save entry", err, log.ComponentLedger, log.OpCreate, nil)
		return 0, fmt.Errorf("save entry: %w", err)
	}

	s.sl.LogEntrySaved(ctx, log.OpCreate, id, e.CustomerName, e.Date.String(), string(e.PaymentMode), e.GrandCharges)
	s.publish(ctx, amqp.EntryCreated, id)
	return id, nil
}

// SaveDraft stamps the draft with the current date and time, saves it and resets the
// draft. The draft is left untouched when anything fails.
func (s *LedgerService) SaveDraft(ctx context.Context, d *draft.Draft) (int64, error) {
	if err := validateLines(d); err != nil {
		return 0, err
	}

	now := s.now()
	id, err := s.CreateEntry(ctx, core.NewEntry{
		Date:        core.DateOf(now),
		Time:        core.TimeOfDayOf(now),
		EntryFields: d.Fields(),
	})
	if err != nil {
		return 0, err
	}

	d.Reset()
	return id, nil
}

func validateLines(d *draft.Draft) error {
	for _, kind := range []draft.Kind{draft.Deposit, draft.Withdrawal} {
		for i, li := range d.Lines(kind).Items() {
			label := fmt.Sprintf("%s line %d", kind, i+1)
			if err := core.ValidateAmount(li.Amount, label+" amount"); err != nil {
				return err
			}
			if err := core.ValidateChargePct(li.ChargePct, label+" charge"); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateEntry overwrites the editable columns of entry id. Amounts and charges are taken
// as given; date and time keep their original values.
func (s *LedgerService) UpdateEntry(ctx context.Context, id int64, f core.EntryFields) error {
	if err := f.Validate(); err != nil {
		return err
	}

	e := core.LedgerEntry{ID: id}.WithFields(f)
	if err := s.store.Update(ctx, e); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.sl.LogError(ctx, "Failed to update entry", err, log.ComponentLedger, log.OpUpdate,
				log.NewFields().WithEntry(id, e.CustomerName, "", string(e.PaymentMode), e.GrandCharges))
		}
		return fmt.Errorf("update entry %d: %w", id, err)
	}

	s.sl.LogEntrySaved(ctx, log.OpUpdate, id, e.CustomerName, "", string(e.PaymentMode), e.GrandCharges)
	s.publish(ctx, amqp.EntryUpdated, id)
	return nil
}

// DeleteEntry removes entry id. A missing id is reported as core.ErrNotFound.
func (s *LedgerService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.sl.LogError(ctx, "Failed to delete entry", err, log.ComponentLedger, log.OpDelete, nil)
		}
		return fmt.Errorf("delete entry %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Ledger entry deleted", log.FieldEntryID, id, log.FieldOperation, log.OpDelete)
	s.publish(ctx, amqp.EntryDeleted, id)
	return nil
}

func (s *LedgerService) GetEntry(ctx context.Context, id int64) (core.LedgerEntry, error) {
	return s.store.Get(ctx, id)
}

// ListByDate returns one day's entries, newest first.
func (s *LedgerService) ListByDate(ctx context.Context, d core.Date) ([]core.LedgerEntry, error) {
	return s.store.ListByDate(ctx, d)
}

// ListByRange returns entries between start and end inclusive, by date then id descending.
func (s *LedgerService) ListByRange(ctx context.Context, start, end core.Date) ([]core.LedgerEntry, error) {
	return s.store.ListByRange(ctx, start, end)
}

// ListByCustomer returns one customer's entries in the range.
func (s *LedgerService) ListByCustomer(ctx context.Context, name string, start, end core.Date) ([]core.LedgerEntry, error) {
	return s.store.ListByCustomer(ctx, name, start, end)
}

func (s *LedgerService) publish(ctx context.Context, t amqp.EventType, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryEvent(ctx, amqp.NewEntryEvent(t, id)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			log.FieldEventType, t,
			log.FieldEntryID, id,
			log.FieldError, err)
		// Don't fail the request - the entry is saved locally
	}
}
