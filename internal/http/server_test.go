package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"creditregister/internal/core"
	"creditregister/internal/export"
	"creditregister/internal/log"
	"creditregister/internal/ports"
	"creditregister/internal/report"
	"creditregister/internal/services"
	"creditregister/internal/storage/memory"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func newTestServer(t *testing.T, health ports.Pinger) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	ledger := services.NewLedgerService(store,
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithLogger(log.Discard()))
	if health == nil {
		health = store
	}
	srv, err := NewServer(":0", Deps{
		Ledger:  ledger,
		Reports: report.NewEngine(store, export.NewRenderer(export.DefaultLayout), log.Discard()),
		Health:  health,
		Logger:  log.Discard(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, store
}

func do(t *testing.T, srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func seed(t *testing.T, store *memory.Store, d core.Date, name string, b, charges int64) int64 {
	t.Helper()
	id, err := store.Insert(context.Background(), core.NewEntry{
		Date: d,
		Time: core.TimeOfDay{Hour: 9},
		EntryFields: core.EntryFields{
			CustomerType: core.CustomerOffice,
			CustomerName: name,
			PaymentMode:  core.PaymentCash,
			BAmount:      decimal.NewFromInt(b),
			BCharges:     decimal.NewFromInt(charges),
		},
	}.Entry())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "New Entry") {
		t.Fatalf("index body missing heading")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyzReportsBackendFailure(t *testing.T) {
	srv, _ := newTestServer(t, failingPinger{})
	rr := do(t, srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d, want 503", rr.Code)
	}
}

func TestSecurityAndRequestIDHeaders(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := do(t, srv, http.MethodGet, "/healthz", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
}

func TestDraftLineEditing(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rr := do(t, srv, http.MethodPost, "/draft/lines/b/0", url.Values{"amount": {"1,000"}, "pct": {"2"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("update line status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "20.00") {
		t.Fatalf("draft should show the 20.00 line charge: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/draft/lines/k", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("add line status=%d", rr.Code)
	}
	if n := srv.draft.Withdrawals.Len(); n != 2 {
		t.Fatalf("withdrawal lines=%d, want 2", n)
	}

	rr = do(t, srv, http.MethodPost, "/draft/lines/b/0/remove", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("remove last line status=%d", rr.Code)
	}
	if n := srv.draft.Deposits.Len(); n != 1 {
		t.Fatalf("the last deposit line must stay, got %d lines", n)
	}

	// Out-of-range input is rejected and leaves the line as it was.
	rr = do(t, srv, http.MethodPost, "/draft/lines/b/0", url.Values{"amount": {"5000000"}, "pct": {"-3"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out-of-range status=%d, want 422", rr.Code)
	}
	line := srv.draft.Deposits.Items()[0]
	if !line.Amount.Equal(decimal.NewFromInt(1000)) || !line.ChargePct.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("line changed to amount=%s pct=%s", line.Amount, line.ChargePct)
	}

	rr = do(t, srv, http.MethodPost, "/draft/save", url.Values{
		"customer_name": {"Asha"},
		"customer_type": {"Office"},
		"payment_mode":  {"Cash"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	saved, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get saved entry: %v", err)
	}
	if !saved.BAmount.Equal(decimal.NewFromInt(1000)) || !saved.BCharges.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("saved b_amount=%s b_charges=%s", saved.BAmount, saved.BCharges)
	}
}

func TestDraftLineErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		form   url.Values
		status int
		body   string
	}{
		{"unknown kind", "/draft/lines/x", url.Values{}, http.StatusBadRequest, "unknown line kind"},
		{"bad line id", "/draft/lines/b/one", url.Values{"amount": {"1"}}, http.StatusBadRequest, "invalid line id"},
		{"invalid amount", "/draft/lines/b/0", url.Values{"amount": {"abc"}}, http.StatusUnprocessableEntity, "Amount: invalid amount"},
		{"unknown line", "/draft/lines/b/42", url.Values{"amount": {"1"}}, http.StatusNotFound, ""},
		{"amount above limit", "/draft/lines/b/0", url.Values{"amount": {"1000001"}}, http.StatusUnprocessableEntity, "B amount 1000001 is out of range"},
		{"negative pct", "/draft/lines/k/0", url.Values{"pct": {"-3"}}, http.StatusUnprocessableEntity, "K charge -3% is out of range"},
		{"pct above limit", "/draft/lines/b/0", url.Values{"pct": {"25"}}, http.StatusUnprocessableEntity, "B charge 25% is out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tt.target, tt.form)
			if rr.Code != tt.status {
				t.Fatalf("status=%d, want %d (body=%s)", rr.Code, tt.status, rr.Body.String())
			}
			if tt.body != "" && !strings.Contains(rr.Body.String(), tt.body) {
				t.Fatalf("body %q missing %q", rr.Body.String(), tt.body)
			}
		})
	}
}

func TestSaveDraft(t *testing.T) {
	srv, store := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/draft/lines/b/0", url.Values{"amount": {"1000"}, "pct": {"2"}})

	form := url.Values{
		"customer_type": {"Office"},
		"customer_name": {"  Asha  "},
		"payment_mode":  {"UPI"},
		"remarks":       {"counter 2"},
	}
	rr := do(t, srv, http.MethodPost, "/draft/save", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Entry #1 saved for Asha. Charges ₹20.00.") {
		t.Fatalf("unexpected message: %s", rr.Body.String())
	}
	trig := rr.Header().Get("HX-Trigger")
	for _, name := range []string{"entry:saved", "form:reset", "draft:refresh"} {
		if !strings.Contains(trig, name) {
			t.Fatalf("HX-Trigger %q missing %s", trig, name)
		}
	}

	e, err := store.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get saved entry: %v", err)
	}
	if e.CustomerName != "Asha" || e.PaymentMode != core.PaymentUPI {
		t.Fatalf("saved %+v", e)
	}
	if e.Date != core.DateOf(fixedNow) || e.Time.String() != "10:30:00" {
		t.Fatalf("stamp %s %s", e.Date, e.Time)
	}
	if !e.GrandCharges.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("grand charges=%s", e.GrandCharges)
	}
	if !srv.draft.Deposits.Items()[0].Amount.IsZero() {
		t.Fatalf("draft was not reset after save")
	}
}

func TestSaveDraftValidationKeepsDraft(t *testing.T) {
	srv, store := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/draft/lines/b/0", url.Values{"amount": {"500"}})

	rr := do(t, srv, http.MethodPost, "/draft/save", url.Values{
		"customer_type": {"Office"},
		"customer_name": {"   "},
		"payment_mode":  {"Cash"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Customer name is required") {
		t.Fatalf("body=%s", rr.Body.String())
	}
	if got := srv.draft.Deposits.Items()[0].Amount; !got.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("draft amount lost: %s", got)
	}
	entries, _ := store.ListByDate(context.Background(), core.DateOf(fixedNow))
	if len(entries) != 0 {
		t.Fatalf("nothing should be stored, got %d", len(entries))
	}
}

func TestTodayAndEntriesViews(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seed(t, store, core.DateOf(fixedNow), "Asha", 1000, 10)
	seed(t, store, core.NewDate(2025, 1, 2), "Ravi", 300, 3)

	rr := do(t, srv, http.MethodGet, "/today", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("today status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Asha") || strings.Contains(body, "Ravi") {
		t.Fatalf("today should list only today's entries: %s", body)
	}
	if !strings.Contains(body, "₹1,000.00") {
		t.Fatalf("today should show total B: %s", body)
	}

	rr = do(t, srv, http.MethodGet, "/entries", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Showing 2 entries") {
		t.Fatalf("entries status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/entries/table?start=2025-01-10&end=2025-01-31", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Showing 1 entries") {
		t.Fatalf("table status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/entries/table?start=yesterday", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date status=%d", rr.Code)
	}
}

func TestTodayEmpty(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rr := do(t, srv, http.MethodGet, "/today", nil)
	if !strings.Contains(rr.Body.String(), "No entries recorded today.") {
		t.Fatalf("missing placeholder: %s", rr.Body.String())
	}
}

func TestEditAndUpdateEntry(t *testing.T) {
	srv, store := newTestServer(t, nil)
	id := seed(t, store, core.NewDate(2025, 1, 2), "Asha", 1000, 10)

	rr := do(t, srv, http.MethodGet, "/entries/1/edit", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Asha") {
		t.Fatalf("edit status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/entries/99/edit", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("missing entry status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/entries/abc/edit", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", rr.Code)
	}

	form := url.Values{
		"customer_type": {"Others"},
		"customer_name": {"Asha K"},
		"payment_mode":  {"Cash"},
		"b_amount":      {"500"},
		"b_charges":     {"5"},
		"k_amount":      {"200"},
		"k_charges":     {"1.5"},
	}
	rr = do(t, srv, http.MethodPost, "/entries/1", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "entries:refresh") {
		t.Fatalf("update should refresh the table")
	}

	e, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !e.GrandCharges.Equal(decimal.RequireFromString("6.5")) {
		t.Fatalf("grand charges=%s, want 6.5", e.GrandCharges)
	}
	if e.Date != core.NewDate(2025, 1, 2) || e.CustomerType != core.CustomerOthers {
		t.Fatalf("updated %+v", e)
	}

	form.Set("payment_mode", "Card")
	if rr := do(t, srv, http.MethodPost, "/entries/1", form); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid mode status=%d", rr.Code)
	}
	form.Set("payment_mode", "Cash")
	form.Set("k_amount", "lots")
	rr = do(t, srv, http.MethodPost, "/entries/1", form)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "K amount") {
		t.Fatalf("invalid amount status=%d body=%s", rr.Code, rr.Body.String())
	}
	form.Set("k_amount", "200")
	if rr := do(t, srv, http.MethodPost, "/entries/99", form); rr.Code != http.StatusNotFound {
		t.Fatalf("update missing status=%d", rr.Code)
	}
}

func TestDeleteFlow(t *testing.T) {
	srv, store := newTestServer(t, nil)
	first := seed(t, store, core.NewDate(2025, 1, 2), "Asha", 1000, 10)
	second := seed(t, store, core.NewDate(2025, 1, 3), "Ravi", 300, 3)

	if rr := do(t, srv, http.MethodPost, "/entries/delete/confirm", url.Values{}); rr.Code != http.StatusConflict {
		t.Fatalf("confirm without request status=%d", rr.Code)
	}

	rr := do(t, srv, http.MethodPost, "/entries/1/delete", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("request status=%d", rr.Code)
	}
	if _, err := store.Get(context.Background(), first); err != nil {
		t.Fatalf("request alone must not delete: %v", err)
	}

	rr = do(t, srv, http.MethodPost, "/entries/delete/confirm", url.Values{})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Entry #1 deleted.") {
		t.Fatalf("confirm status=%d body=%s", rr.Code, rr.Body.String())
	}
	if _, err := store.Get(context.Background(), first); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("entry still present: %v", err)
	}

	do(t, srv, http.MethodPost, "/entries/2/delete", url.Values{})
	if rr := do(t, srv, http.MethodPost, "/entries/delete/cancel", url.Values{}); rr.Code != http.StatusOK {
		t.Fatalf("cancel status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/entries/delete/confirm", url.Values{}); rr.Code != http.StatusConflict {
		t.Fatalf("confirm after cancel status=%d", rr.Code)
	}

	// Leaving the page drops the pending request.
	do(t, srv, http.MethodPost, "/entries/2/delete", url.Values{})
	do(t, srv, http.MethodGet, "/today", nil)
	if rr := do(t, srv, http.MethodPost, "/entries/delete/confirm", url.Values{}); rr.Code != http.StatusConflict {
		t.Fatalf("confirm after navigation status=%d", rr.Code)
	}
	if _, err := store.Get(context.Background(), second); err != nil {
		t.Fatalf("second entry should survive: %v", err)
	}

	// Opening the editor replaces the confirmation panel and drops the request too.
	do(t, srv, http.MethodPost, "/entries/2/delete", url.Values{})
	if rr := do(t, srv, http.MethodGet, "/entries/2/edit", nil); rr.Code != http.StatusOK {
		t.Fatalf("edit status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/entries/delete/confirm", url.Values{}); rr.Code != http.StatusConflict {
		t.Fatalf("confirm after opening the editor status=%d", rr.Code)
	}
	if _, err := store.Get(context.Background(), second); err != nil {
		t.Fatalf("second entry should survive the editor: %v", err)
	}

	if rr := do(t, srv, http.MethodPost, "/entries/99/delete", url.Values{}); rr.Code != http.StatusNotFound {
		t.Fatalf("request missing status=%d", rr.Code)
	}
}

func TestSummaryView(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seed(t, store, core.NewDate(2025, 1, 2), "Asha", 1000, 10)
	seed(t, store, core.NewDate(2025, 1, 3), "Ravi", 300, 3)

	rr := do(t, srv, http.MethodGet, "/summary?mode=range&start=2025-01-01&end=2025-01-31", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"2025-01-01 to 2025-01-31", "₹1,300.00", "₹13.00", "/export/xlsx?"} {
		if !strings.Contains(body, want) {
			t.Fatalf("summary missing %q", want)
		}
	}

	rr = do(t, srv, http.MethodGet, "/summary", nil)
	if !strings.Contains(rr.Body.String(), "No entries for 2025-01-15.") {
		t.Fatalf("empty daily summary: %s", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodGet, "/summary?mode=weekly", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad mode status=%d", rr.Code)
	}
}

func TestExport(t *testing.T) {
	srv, store := newTestServer(t, nil)
	seed(t, store, core.NewDate(2025, 1, 2), "Asha", 1000, 10)

	rr := do(t, srv, http.MethodGet, "/export/xlsx?mode=range&start=2025-01-01&end=2025-01-31", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("xlsx status=%d body=%s", rr.Code, rr.Body.String())
	}
	cd := rr.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "Store_Report_2025-01-01_to_2025-01-31.xlsx") {
		t.Fatalf("Content-Disposition=%q", cd)
	}
	if got := rr.Header().Get("Content-Type"); got != export.FormatXLSX.ContentType() {
		t.Fatalf("Content-Type=%q", got)
	}
	if !strings.HasPrefix(rr.Body.String(), "PK") {
		t.Fatalf("xlsx body is not a zip archive")
	}

	rr = do(t, srv, http.MethodGet, "/export/pdf?start=2025-01-02", nil)
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("pdf status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/export/pdf?start=2024-06-01", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("no data status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/export/docx", nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad format status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/export/xlsx?start=soon", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date status=%d", rr.Code)
	}
}

func TestExportRateLimit(t *testing.T) {
	store := memory.New()
	srv, err := NewServer(":0", Deps{
		Ledger:           services.NewLedgerService(store, services.WithLogger(log.Discard())),
		Reports:          report.NewEngine(store, export.NewRenderer(export.DefaultLayout), log.Discard()),
		Logger:           log.Discard(),
		ExportsPerMinute: 2,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodGet, "/export/pdf?start=2024-06-01", nil); rr.Code != http.StatusNotFound {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodGet, "/export/pdf?start=2024-06-01", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}
	if !strings.Contains(rr.Body.String(), "Too many exports") {
		t.Fatalf("body=%q", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodGet, "/summary", nil); rr.Code != http.StatusOK {
		t.Fatalf("summary is not limited, status=%d", rr.Code)
	}
}
