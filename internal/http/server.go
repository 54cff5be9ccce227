package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"creditregister/internal/core"
	"creditregister/internal/draft"
	"creditregister/internal/log"
	"creditregister/internal/middleware/ratelimit"
	"creditregister/internal/middleware/security"
	"creditregister/internal/middleware/trace"
	"creditregister/internal/ports"
	"creditregister/internal/report"
	"creditregister/internal/services"
	appweb "creditregister/web"
)

// Server serves the register's four views. It holds the single operator's draft and
// delete-confirmation state, both guarded by mu.
type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.LedgerService
	reports   *report.Engine
	health    ports.Pinger
	logger    *log.Logger

	mu    sync.Mutex
	draft *draft.Draft
	flow  *services.DeleteFlow
}

// Deps are the collaborators a Server renders from.
type Deps struct {
	Ledger  *services.LedgerService
	Reports *report.Engine
	// Health backs /readyz. Nil means always ready.
	Health ports.Pinger
	Logger *log.Logger
	// ExportsPerMinute caps report downloads per client IP. Zero uses the limiter default.
	ExportsPerMinute int
}

var templateFuncs = template.FuncMap{
	"amount": core.FormatAmount,
	"rupees": core.FormatRupees,
}

// ParseTemplates parses the embedded page and partial templates.
func ParseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	s := &Server{
		templates: t,
		ledger:    deps.Ledger,
		reports:   deps.Reports,
		health:    deps.Health,
		logger:    logger,
		draft:     draft.Default(),
		flow:      services.NewDeleteFlow(deps.Ledger),
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// New Entry
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /draft", s.handleDraft)
	mux.HandleFunc("POST /draft/lines/{kind}", s.handleAddLine)
	mux.HandleFunc("POST /draft/lines/{kind}/{id}", s.handleUpdateLine)
	mux.HandleFunc("POST /draft/lines/{kind}/{id}/remove", s.handleRemoveLine)
	mux.HandleFunc("POST /draft/reset", s.handleResetDraft)
	mux.HandleFunc("POST /draft/save", s.handleSaveDraft)

	// Today's Entries
	mux.HandleFunc("GET /today", s.handleToday)

	// All Entries
	mux.HandleFunc("GET /entries", s.handleEntries)
	mux.HandleFunc("GET /entries/table", s.handleEntriesTable)
	mux.HandleFunc("GET /entries/{id}/edit", s.handleEditEntry)
	mux.HandleFunc("POST /entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("POST /entries/{id}/delete", s.handleRequestDelete)
	mux.HandleFunc("POST /entries/delete/confirm", s.handleConfirmDelete)
	mux.HandleFunc("POST /entries/delete/cancel", s.handleCancelDelete)

	// Summary & Export
	mux.HandleFunc("GET /summary", s.handleSummary)
	resolver := security.NewIPResolver()
	exportLimiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.ExportsPerMinute})
	limitExports := exportLimiter.Middleware(resolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("Export rate limit exceeded", "client_ip", resolver.ClientIP(r), "path", r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many exports. Please wait a minute and try again.").Write(w)
	})
	mux.Handle("GET /export/{format}", limitExports(http.HandlerFunc(s.handleExport)))

	tracer := trace.NewMiddleware(logger, resolver.ClientIP)

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// render executes a template into a buffer first so a failing template never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name, log.FieldError, err.Error())
		InternalServerError("Could not render page").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// page carries the fields the layout header needs.
type page struct {
	Title  string
	Active string
}

// leavePage drops any pending delete confirmation when the operator opens another view.
func (s *Server) leavePage() {
	s.mu.Lock()
	s.flow.Reset()
	s.mu.Unlock()
}
