package http

import (
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"creditregister/internal/core"
	"creditregister/internal/export"
	"creditregister/internal/report"
)

func conditionQuery(cond report.Condition) url.Values {
	q := url.Values{"start": {cond.Start.String()}}
	if cond.IsDaily() {
		q.Set("mode", "daily")
	} else {
		q.Set("mode", "range")
		q.Set("end", cond.End.String())
	}
	return q
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.leavePage()
	cond, err := ParseCondition(r.URL.Query(), s.ledger.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	summary, err := s.reports.Summarize(r.Context(), cond)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	breakdown, err := s.reports.BreakdownByPaymentMode(r.Context(), cond)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}

	// Encode escapes every value, so the result is safe as a URL query.
	query := template.URL(conditionQuery(cond).Encode())

	s.render(w, r, "summary.html", struct {
		page
		Daily      bool
		Start, End core.Date
		Label      string
		Summary    core.Summary
		Breakdown  []core.ModeBreakdown
		Query      template.URL
	}{
		page:      page{Title: "Summary & Export", Active: "summary"},
		Daily:     cond.IsDaily(),
		Start:     cond.Start,
		End:       cond.End,
		Label:     cond.Label(),
		Summary:   summary,
		Breakdown: breakdown,
		Query:     query,
	})
}

// handleExport streams the report for the requested condition as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	cond, err := ParseCondition(r.URL.Query(), s.ledger.Today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	doc, err := s.reports.Export(r.Context(), cond, format)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}
