package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"cable_billing_engine/internal/app"
	"cable_billing_engine/internal/domain/audit"
	"cable_billing_engine/internal/domain/backup"
	"cable_billing_engine/internal/domain/billing"
	idb "cable_billing_engine/internal/infra/database"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// CycleService is the cycle surface the API needs from the reset engine.
type CycleService interface {
	EvaluateCycle(ctx context.Context) (app.EvaluateOutcome, error)
	RunMonthlyReset(ctx context.Context, silent bool) (app.ResetResult, error)
	CycleConfig(ctx context.Context) (billing.CycleConfig, error)
	UpdateCycleConfig(ctx context.Context, cfg billing.CycleConfig) error
}

// ExpireService runs the recharge-window sweep.
type ExpireService interface {
	RunAutoExpire(ctx context.Context) (app.ExpireResult, error)
}

// SnapshotService exports and reconciles backups.
type SnapshotService interface {
	CreateSnapshot(ctx context.Context, scope backup.Scope) (backup.Snapshot, error)
	ExportCSV(ctx context.Context, scope backup.Scope) (string, error)
	Restore(ctx context.Context, snap backup.Snapshot) (app.RestoreResult, error)
	RestoreFromCSV(ctx context.Context, text string) (app.RestoreResult, error)
}

// EligibilityService edits reset-exclusion flags in bulk.
type EligibilityService interface {
	SetExcluded(ctx context.Context, ids []string, excluded bool) (int64, error)
}

// AuditReader serves the audit trail views.
type AuditReader interface {
	History(ctx context.Context, customerID string) ([]*audit.Entry, error)
	RecentByAction(ctx context.Context, action audit.Action, limit int) ([]*audit.Entry, error)
}

// Handlers provides the HTTP handlers for the billing engine API.
type Handlers struct {
	cycle       CycleService
	expire      ExpireService
	snapshots   SnapshotService
	eligibility EligibilityService
	auditLog    AuditReader
	logger      *logrus.Entry
}

func NewHandlers(
	cycle CycleService,
	expire ExpireService,
	snapshots SnapshotService,
	eligibility EligibilityService,
	auditLog AuditReader,
	logger *logrus.Entry,
) *Handlers {
	return &Handlers{
		cycle:       cycle,
		expire:      expire,
		snapshots:   snapshots,
		eligibility: eligibility,
		auditLog:    auditLog,
		logger:      logger,
	}
}

// NewRouter builds the full router including the operational endpoints.
func NewRouter(h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	h.RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())
	return router
}

// RegisterRoutes registers the billing API routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Cycle routes
	router.HandleFunc("/cycle/reset", h.runReset).Methods("POST")
	router.HandleFunc("/cycle/evaluate", h.evaluateCycle).Methods("POST")
	router.HandleFunc("/cycle/config", h.getCycleConfig).Methods("GET")
	router.HandleFunc("/cycle/config", h.putCycleConfig).Methods("PUT")
	router.HandleFunc("/expire", h.runExpire).Methods("POST")

	// Backup routes
	router.HandleFunc("/backup", h.createSnapshot).Methods("GET")
	router.HandleFunc("/restore", h.restoreSnapshot).Methods("POST")
	router.HandleFunc("/export/csv", h.exportCSV).Methods("GET")
	router.HandleFunc("/import/csv", h.importCSV).Methods("POST")

	// Customer routes
	router.HandleFunc("/customers/exclusion", h.setExclusion).Methods("PUT")
	router.HandleFunc("/customers/{id}/audit", h.customerAudit).Methods("GET")
	router.HandleFunc("/audit", h.recentAudit).Methods("GET")
}

// runReset handles POST /cycle/reset. The run is silent: the caller gets
// the result in the response body instead of an operator notification.
func (h *Handlers) runReset(w http.ResponseWriter, r *http.Request) {
	res, err := h.cycle.RunMonthlyReset(r.Context(), true)
	if err != nil {
		h.logger.WithError(err).Error("Monthly reset via API failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    res.Count,
		"monthKey": res.MonthKey.String(),
	})
}

// evaluateCycle handles POST /cycle/evaluate
func (h *Handlers) evaluateCycle(w http.ResponseWriter, r *http.Request) {
	out, err := h.cycle.EvaluateCycle(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Cycle evaluation via API failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// runExpire handles POST /expire
func (h *Handlers) runExpire(w http.ResponseWriter, r *http.Request) {
	res, err := h.expire.RunAutoExpire(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Auto-expire via API failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type cycleConfigPayload struct {
	DueDay           int    `json:"dueDay"`
	LastResetMonth   string `json:"lastResetMonth,omitempty"`
	AutoResetEnabled bool   `json:"autoResetEnabled"`
}

// getCycleConfig handles GET /cycle/config
func (h *Handlers) getCycleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.cycle.CycleConfig(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload := cycleConfigPayload{
		DueDay:           cfg.DueDay,
		AutoResetEnabled: cfg.AutoResetEnabled,
	}
	if !cfg.LastResetMonthKey.IsZero() {
		payload.LastResetMonth = cfg.LastResetMonthKey.String()
	}
	writeJSON(w, http.StatusOK, payload)
}

// putCycleConfig handles PUT /cycle/config. Only the due day and the
// auto-reset flag are writable; the cycle marker belongs to the engine.
func (h *Handlers) putCycleConfig(w http.ResponseWriter, r *http.Request) {
	var payload cycleConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid config payload", http.StatusBadRequest)
		return
	}

	current, err := h.cycle.CycleConfig(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	current.DueDay = payload.DueDay
	current.AutoResetEnabled = payload.AutoResetEnabled

	if err := h.cycle.UpdateCycleConfig(r.Context(), current); err != nil {
		if errors.Is(err, billing.ErrInvalidDueDay) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createSnapshot handles GET /backup?scope=
func (h *Handlers) createSnapshot(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.parseScope(w, r)
	if !ok {
		return
	}

	snap, err := h.snapshots.CreateSnapshot(r.Context(), scope)
	if err != nil {
		h.logger.WithError(err).Error("Snapshot export failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := backup.EncodeJSON(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=billing-backup.json")
	w.Write(data)
}

// restoreSnapshot handles POST /restore
func (h *Handlers) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	snap, err := backup.DecodeJSON(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.snapshots.Restore(r.Context(), snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeRestoreResult(w, res)
}

// exportCSV handles GET /export/csv?scope=
func (h *Handlers) exportCSV(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.parseScope(w, r)
	if !ok {
		return
	}

	text, err := h.snapshots.ExportCSV(r.Context(), scope)
	if err != nil {
		h.logger.WithError(err).Error("CSV export failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=customers.csv")
	w.Write([]byte(text))
}

// importCSV handles POST /import/csv
func (h *Handlers) importCSV(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	res, err := h.snapshots.RestoreFromCSV(r.Context(), string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeRestoreResult(w, res)
}

type exclusionPayload struct {
	IDs      []string `json:"ids"`
	Excluded bool     `json:"excluded"`
}

// setExclusion handles PUT /customers/exclusion
func (h *Handlers) setExclusion(w http.ResponseWriter, r *http.Request) {
	var payload exclusionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid exclusion payload", http.StatusBadRequest)
		return
	}

	count, err := h.eligibility.SetExcluded(r.Context(), payload.IDs, payload.Excluded)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"updated":  count,
		"excluded": payload.Excluded,
	})
}

// customerAudit handles GET /customers/{id}/audit
func (h *Handlers) customerAudit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	entries, err := h.auditLog.History(r.Context(), vars["id"])
	if err != nil {
		h.auditReadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// recentAudit handles GET /audit?action=&limit=
func (h *Handlers) recentAudit(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	action := audit.Action(query.Get("action"))
	if action == "" {
		http.Error(w, "action query parameter is required", http.StatusBadRequest)
		return
	}

	limit := 100 // Default limit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.auditLog.RecentByAction(r.Context(), action, limit)
	if err != nil {
		h.auditReadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// auditReadError keeps "the audit table was never provisioned" apart from
// ordinary store failures: the former is an operator setup task, not an
// outage.
func (h *Handlers) auditReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, idb.ErrSchemaMissing) {
		http.Error(w, "audit log schema not provisioned", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (h *Handlers) parseScope(w http.ResponseWriter, r *http.Request) (backup.Scope, bool) {
	scopeStr := r.URL.Query().Get("scope")
	if scopeStr == "" {
		return backup.ScopeAll, true
	}
	scope, err := backup.ParseScope(scopeStr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return scope, true
}

// writeRestoreResult reports per-collection outcomes. Collections restore
// independently, so a partial failure still carries a full result body.
func (h *Handlers) writeRestoreResult(w http.ResponseWriter, res app.RestoreResult) {
	status := http.StatusOK
	if res.Failed() {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
