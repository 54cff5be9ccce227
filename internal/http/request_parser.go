// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// It reduces code duplication by providing reusable functions for common
// form parsing, date extraction, and input sanitization patterns.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"creditregister/internal/core"
	"creditregister/internal/report"

	"github.com/shopspring/decimal"
)

// ParseDateParam parses key from values as YYYY-MM-DD, falling back to def when absent.
func ParseDateParam(values url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %s date %q", key, v)
	}
	return d, nil
}

// ParseRangeParams reads start/end from the query. The default range runs from the
// first of today's month through today.
func ParseRangeParams(query url.Values, today core.Date) (start, end core.Date, err error) {
	if start, err = ParseDateParam(query, "start", today.FirstOfMonth()); err != nil {
		return start, end, err
	}
	end, err = ParseDateParam(query, "end", today)
	return start, end, err
}

// ParseCondition builds a report condition from mode=daily|range plus start/end.
// Daily mode reads only start and defaults to today.
func ParseCondition(query url.Values, today core.Date) (report.Condition, error) {
	switch strings.TrimSpace(query.Get("mode")) {
	case "", "daily":
		d, err := ParseDateParam(query, "start", today)
		if err != nil {
			return report.Condition{}, err
		}
		return report.Daily(d), nil
	case "range":
		start, end, err := ParseRangeParams(query, today)
		if err != nil {
			return report.Condition{}, err
		}
		return report.Range(start, end), nil
	default:
		return report.Condition{}, fmt.Errorf("invalid mode %q", query.Get("mode"))
	}
}

// ParseID parses a positive entry id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

// ParseEntryFields reads the editable columns of an entry. Amount errors name the field.
func ParseEntryFields(p *RequestBodyParser) (core.EntryFields, error) {
	f := core.EntryFields{
		CustomerType: core.CustomerType(p.Get("customer_type")),
		CustomerName: p.Get("customer_name"),
		PaymentMode:  core.PaymentMode(p.Get("payment_mode")),
		Remarks:      p.Get("remarks"),
	}
	amounts := []struct {
		key, label string
		dst        *decimal.Decimal
	}{
		{"b_amount", "B amount", &f.BAmount},
		{"b_charges", "B charges", &f.BCharges},
		{"k_amount", "K amount", &f.KAmount},
		{"k_charges", "K charges", &f.KCharges},
	}
	for _, a := range amounts {
		d, err := core.ParseAmount(p.Get(a.key))
		if err != nil {
			return core.EntryFields{}, fmt.Errorf("%s: %w", a.label, err)
		}
		*a.dst = d
	}
	return f, nil
}

// ParseLineParams reads the optional amount and pct values of a draft line update.
// A value that is not present is returned as nil.
func ParseLineParams(p *RequestBodyParser) (amount, pct *decimal.Decimal, err error) {
	parse := func(key, label string) (*decimal.Decimal, error) {
		if !p.Has(key) {
			return nil, nil
		}
		d, err := core.ParseAmount(p.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		return &d, nil
	}
	if amount, err = parse("amount", "Amount"); err != nil {
		return nil, nil, err
	}
	if pct, err = parse("pct", "Charge %"); err != nil {
		return nil, nil, err
	}
	return amount, pct, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Has reports whether key was sent at all, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and parses the request body, writing a 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return nil, false
	}
	return p, true
}
