package http

import (
	"fmt"
	"net/http"
	"strconv"

	"creditregister/internal/core"
	"creditregister/internal/draft"
	"creditregister/internal/log"

	"github.com/shopspring/decimal"
)

type lineView struct {
	ID        int
	Amount    string
	ChargePct string
	Charge    string
}

type lineSection struct {
	Kind      string
	Title     string
	Items     []lineView
	Removable bool
	Amount    string
	Charges   string
}

type draftView struct {
	CustomerType core.CustomerType
	CustomerName string
	PaymentMode  core.PaymentMode
	Remarks      string
	Sections     []lineSection
	GrandCharges string
}

// newDraftView snapshots d. Callers hold s.mu.
func newDraftView(d *draft.Draft) draftView {
	totals := d.Totals()
	section := func(kind draft.Kind, title string) lineSection {
		lines := d.Lines(kind)
		sec := lineSection{Kind: kind.String(), Title: title, Removable: lines.Len() > 1}
		for _, li := range lines.Items() {
			sec.Items = append(sec.Items, lineView{
				ID:        li.ID,
				Amount:    li.Amount.String(),
				ChargePct: li.ChargePct.String(),
				Charge:    core.FormatAmount(li.Charge()),
			})
		}
		return sec
	}
	b := section(draft.Deposit, "B deposits")
	b.Amount, b.Charges = core.FormatAmount(totals.BAmount), core.FormatAmount(totals.BCharges)
	k := section(draft.Withdrawal, "K withdrawals")
	k.Amount, k.Charges = core.FormatAmount(totals.KAmount), core.FormatAmount(totals.KCharges)

	return draftView{
		CustomerType: d.CustomerType,
		CustomerName: d.CustomerName,
		PaymentMode:  d.PaymentMode,
		Remarks:      d.Remarks,
		Sections:     []lineSection{b, k},
		GrandCharges: core.FormatRupees(totals.GrandCharges),
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.flow.Reset()
	view := newDraftView(s.draft)
	s.mu.Unlock()

	s.render(w, r, "index.html", struct {
		page
		Draft         draftView
		CustomerTypes []core.CustomerType
		PaymentModes  []core.PaymentMode
	}{
		page:          page{Title: "New Entry", Active: "new"},
		Draft:         view,
		CustomerTypes: core.CustomerTypes(),
		PaymentModes:  core.PaymentModes(),
	})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	view := newDraftView(s.draft)
	s.mu.Unlock()
	s.render(w, r, "draft", view)
}

// lineTarget resolves the {kind} and optional {id} path values.
func lineTarget(r *http.Request, withID bool) (draft.Kind, int, error) {
	kind, ok := draft.ParseKind(r.PathValue("kind"))
	if !ok {
		return kind, 0, fmt.Errorf("unknown line kind %q", r.PathValue("kind"))
	}
	if !withID {
		return kind, 0, nil
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return kind, 0, fmt.Errorf("invalid line id %q", r.PathValue("id"))
	}
	return kind, id, nil
}

func (s *Server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	kind, _, err := lineTarget(r, false)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.mu.Lock()
	s.draft.Lines(kind).Add()
	view := newDraftView(s.draft)
	s.mu.Unlock()
	s.render(w, r, "draft", view)
}

func (s *Server) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	kind, id, err := lineTarget(r, true)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	amount, pct, err := ParseLineParams(p)
	if err == nil {
		err = validateLineParams(kind, amount, pct)
	}
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}

	s.mu.Lock()
	err = s.draft.Lines(kind).Update(id, amount, pct)
	view := newDraftView(s.draft)
	s.mu.Unlock()
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	s.render(w, r, "draft", view)
}

// validateLineParams rejects out-of-range line input before it reaches the draft, which
// would otherwise clamp it silently.
func validateLineParams(kind draft.Kind, amount, pct *decimal.Decimal) error {
	if amount != nil {
		if err := core.ValidateAmount(*amount, kind.String()+" amount"); err != nil {
			return err
		}
	}
	if pct != nil {
		if err := core.ValidateChargePct(*pct, kind.String()+" charge"); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	kind, id, err := lineTarget(r, true)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.mu.Lock()
	s.draft.Lines(kind).Remove(id)
	view := newDraftView(s.draft)
	s.mu.Unlock()
	s.render(w, r, "draft", view)
}

func (s *Server) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.draft.Reset()
	view := newDraftView(s.draft)
	s.mu.Unlock()
	w.Header().Set("HX-Trigger", `{"form:reset":{}}`)
	s.render(w, r, "draft", view)
}

// handleSaveDraft copies the customer fields onto the draft and saves it. On failure the
// draft lines are kept so the operator can correct the input.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	s.draft.CustomerType = core.CustomerType(p.Get("customer_type"))
	s.draft.CustomerName = p.Get("customer_name")
	s.draft.PaymentMode = core.PaymentMode(p.Get("payment_mode"))
	s.draft.Remarks = p.Get("remarks")
	fields := s.draft.Fields().Normalized()
	id, err := s.ledger.SaveDraft(r.Context(), s.draft)
	s.mu.Unlock()

	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Draft saved", log.FieldEntryID, id)
	SuccessResponse(fmt.Sprintf("Entry #%d saved for %s. Charges %s.",
		id, fields.CustomerName, core.FormatRupees(fields.GrandCharges()))).
		TriggerEntrySaved(id).
		TriggerFormReset().
		TriggerDraftRefresh().
		Write(w)
}
