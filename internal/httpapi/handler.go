// Package httpapi exposes the invoice admin REST API.
package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ledgerline/invoiceadmin/internal/app"
	"github.com/ledgerline/invoiceadmin/internal/domain/invoice"
	"github.com/ledgerline/invoiceadmin/internal/errors"
	"github.com/ledgerline/invoiceadmin/internal/httputil"
	"github.com/ledgerline/invoiceadmin/internal/metrics"
	"github.com/ledgerline/invoiceadmin/internal/middleware"
	"github.com/ledgerline/invoiceadmin/internal/services/invoices"
	"github.com/ledgerline/invoiceadmin/pkg/logger"
)

// Config controls handler construction.
type Config struct {
	CORSOrigins  string
	RateLimitRPS int
	RateBurst    int
	AuditLogPath string
}

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *auditLog
	log   *logger.Logger
}

// SkipAuthPaths are served without a session token.
var SkipAuthPaths = []string{"/healthz", "/metrics", "/api/auth/login"}

// NewHandler returns the fully assembled router with middleware applied.
func NewHandler(application *app.Application, cfg Config, log *logger.Logger) (http.Handler, error) {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	sink, err := newFileAuditSink(cfg.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	h := &handler{
		app:   application,
		audit: newAuditLog(200, sink),
		log:   log,
	}

	r := mux.NewRouter()
	r.Use(middleware.Metrics())
	r.Use(middleware.Logging(log))

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", h.me).Methods(http.MethodGet)

	r.HandleFunc("/api/dashboard", h.dashboard).Methods(http.MethodGet)

	r.HandleFunc("/api/invoices", h.listInvoices).Methods(http.MethodGet)
	r.HandleFunc("/api/invoices", h.createInvoice).Methods(http.MethodPost)
	r.HandleFunc("/api/invoices/{id}", h.getInvoice).Methods(http.MethodGet)
	r.HandleFunc("/api/invoices/{id}", h.updateInvoice).Methods(http.MethodPut)
	r.HandleFunc("/api/invoices/{id}", h.deleteInvoice).Methods(http.MethodDelete)

	r.HandleFunc("/api/customers", h.listCustomers).Methods(http.MethodGet)
	r.HandleFunc("/api/customers/summaries", h.customerSummaries).Methods(http.MethodGet)

	r.HandleFunc("/api/audit", h.auditEntries).Methods(http.MethodGet)

	authMw := middleware.NewAuthMiddleware(application.Auth, log, SkipAuthPaths)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateBurst, log)
	limiter.StartCleanup(10 * time.Minute)

	var chain http.Handler = r
	chain = limiter.Handler(chain)
	chain = authMw.Handler(chain)
	chain = middleware.CORS(cfg.CORSOrigins)(chain)
	return chain, nil
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "invoice-admin",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// --- Auth -------------------------------------------------------------------

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r.Body, &payload); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	u, token, err := h.app.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		metrics.RecordLoginAttempt("failure")
		h.writeErr(w, err)
		return
	}
	metrics.RecordLoginAttempt("success")

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"token":   token,
	})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Auth.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
		h.log.WithError(err).Warn("logout failed")
	}
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.TokenCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Auth.User(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": u.ID,
		"name":    u.Name,
		"email":   u.Email,
	})
}

// --- Dashboard --------------------------------------------------------------

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.app.Dashboard.Summary(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// --- Invoices ---------------------------------------------------------------

func (h *handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}

	result, err := h.app.Invoices.List(r.Context(), r.URL.Query().Get("query"), page)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPageResponse(result))
}

func (h *handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var form invoices.Form
	if err := httputil.DecodeJSON(r.Body, &form); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Invoices.Create(r.Context(), form)
	if err != nil {
		metrics.RecordInvoiceMutation("create", "failure")
		h.writeErr(w, err)
		return
	}
	metrics.RecordInvoiceMutation("create", "success")
	h.recordAudit(r, "invoice.create", created.ID, http.StatusCreated)
	httputil.WriteJSON(w, http.StatusCreated, toInvoiceResponse(created))
}

func (h *handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.app.Invoices.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var form invoices.Form
	if err := httputil.DecodeJSON(r.Body, &form); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Invoices.Update(r.Context(), id, form)
	if err != nil {
		metrics.RecordInvoiceMutation("update", "failure")
		h.writeErr(w, err)
		return
	}
	metrics.RecordInvoiceMutation("update", "success")
	h.recordAudit(r, "invoice.update", id, http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, toInvoiceResponse(updated))
}

func (h *handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.app.Invoices.Delete(r.Context(), id); err != nil {
		metrics.RecordInvoiceMutation("delete", "failure")
		h.writeErr(w, err)
		return
	}
	metrics.RecordInvoiceMutation("delete", "success")
	h.recordAudit(r, "invoice.delete", id, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

// --- Customers --------------------------------------------------------------

func (h *handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Customers.List(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *handler) customerSummaries(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Customers.Summaries(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// --- Audit ------------------------------------------------------------------

func (h *handler) auditEntries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	httputil.WriteJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

func (h *handler) recordAudit(r *http.Request, action, subject string, status int) {
	h.audit.add(auditEntry{
		Time:       time.Now().UTC(),
		User:       middleware.GetUserID(r.Context()),
		Action:     action,
		Subject:    subject,
		Path:       r.URL.Path,
		Method:     r.Method,
		Status:     status,
		RemoteAddr: r.RemoteAddr,
	})
}

// --- Helpers ----------------------------------------------------------------

func (h *handler) writeErr(w http.ResponseWriter, err error) {
	if serviceErr := errors.GetServiceError(err); serviceErr != nil {
		if serviceErr.HTTPStatus >= http.StatusInternalServerError {
			h.log.WithError(err).Error("request failed")
		}
		httputil.WriteServiceError(w, serviceErr)
		return
	}
	h.log.WithError(err).Error("request failed")
	httputil.WriteError(w, http.StatusInternalServerError, err)
}

type invoiceResponse struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerImage string `json:"customer_image,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Date          string `json:"date"`
}

type pageResponse struct {
	Invoices   []invoiceResponse `json:"invoices"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Total      int               `json:"total"`
}

func toInvoiceResponse(inv invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:          inv.ID,
		CustomerID:  inv.CustomerID,
		AmountCents: inv.AmountCents,
		Amount:      formatCents(inv.AmountCents),
		Status:      string(inv.Status),
		Date:        inv.Date.Format("2006-01-02"),
	}
}

func toPageResponse(page invoice.Page) pageResponse {
	out := pageResponse{
		Invoices:   make([]invoiceResponse, 0, len(page.Invoices)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	}
	for _, rec := range page.Invoices {
		resp := toInvoiceResponse(rec.Invoice)
		resp.CustomerName = rec.CustomerName
		resp.CustomerEmail = rec.CustomerEmail
		resp.CustomerImage = rec.CustomerImage
		out.Invoices = append(out.Invoices, resp)
	}
	return out
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
