package http

import (
	"fmt"
	"net/http"

	"creditregister/internal/core"
)

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.leavePage()
	today := s.ledger.Today()
	entries, err := s.ledger.ListByDate(r.Context(), today)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	var sum core.Summary
	for _, e := range entries {
		sum = sum.Add(e)
	}

	s.render(w, r, "today.html", struct {
		page
		Date    core.Date
		Summary core.Summary
		Entries []core.LedgerEntry
	}{
		page:    page{Title: "Today's Entries", Active: "today"},
		Date:    today,
		Summary: sum,
		Entries: entries,
	})
}

type entriesTable struct {
	Start, End core.Date
	Entries    []core.LedgerEntry
}

// loadEntriesTable returns the entries in the requested range, or the response to send
// when the query is malformed or the store fails.
func (s *Server) loadEntriesTable(r *http.Request) (entriesTable, *HTMXResponseBuilder) {
	start, end, err := ParseRangeParams(r.URL.Query(), s.ledger.Today())
	if err != nil {
		return entriesTable{}, BadRequestError(err.Error())
	}
	entries, err := s.ledger.ListByRange(r.Context(), start, end)
	if err != nil {
		return entriesTable{}, errorResponse(r, err)
	}
	return entriesTable{Start: start, End: end, Entries: entries}, nil
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	s.leavePage()
	table, failure := s.loadEntriesTable(r)
	if failure != nil {
		failure.Write(w)
		return
	}
	s.render(w, r, "entries.html", struct {
		page
		entriesTable
	}{
		page:         page{Title: "All Entries", Active: "entries"},
		entriesTable: table,
	})
}

func (s *Server) handleEntriesTable(w http.ResponseWriter, r *http.Request) {
	table, failure := s.loadEntriesTable(r)
	if failure != nil {
		failure.Write(w)
		return
	}
	s.render(w, r, "entries_table", table)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	// The editor replaces any confirmation panel, so a pending delete is dropped.
	s.leavePage()
	entry, err := s.ledger.GetEntry(r.Context(), id)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	s.render(w, r, "edit_entry", struct {
		Entry         core.LedgerEntry
		CustomerTypes []core.CustomerType
		PaymentModes  []core.PaymentMode
	}{entry, core.CustomerTypes(), core.PaymentModes()})
}

// handleUpdateEntry saves edited columns as given. Charges are not re-derived from
// line items, only the grand total is recomputed.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	fields, err := ParseEntryFields(p)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	if err := s.ledger.UpdateEntry(r.Context(), id, fields); err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	SuccessResponse(fmt.Sprintf("Entry #%d updated.", id)).
		TriggerEntriesRefresh().
		Write(w)
}

func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	entry, err := s.ledger.GetEntry(r.Context(), id)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}

	s.mu.Lock()
	s.flow.Request(id)
	s.mu.Unlock()
	s.render(w, r, "delete_confirm", entry)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	id, err := s.flow.Confirm(r.Context())
	s.mu.Unlock()
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	SuccessResponse(fmt.Sprintf("Entry #%d deleted.", id)).
		TriggerEntryDeleted(id).
		TriggerEntriesRefresh().
		Write(w)
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.flow.Cancel()
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}
