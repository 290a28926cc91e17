package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"sync-bridge/internal/common/config"
	apperrors "sync-bridge/internal/common/errors"
	httpclient "sync-bridge/internal/common/http"
	"sync-bridge/internal/common/logger"
	"sync-bridge/internal/common/metrics"
	"sync-bridge/internal/common/observability"
	"sync-bridge/internal/common/validation"
	"sync-bridge/internal/onspring"
	"sync-bridge/internal/servicenow"
	"sync-bridge/internal/sync"
)

type Handler struct {
	cfg    *config.Config
	logger logger.Logger
	obs    *observability.Observability
}

func NewHandler(cfg *config.Config, log logger.Logger, obs *observability.Observability) *Handler {
	return &Handler{
		cfg:    cfg,
		logger: log,
		obs:    obs,
	}
}

// Live is the liveness probe.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello!"})
}

// Sync runs one reconciliation pass. Clients are built per request from the
// caller's credentials, so concurrent requests share no mutable state.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := h.logger.WithFields(map[string]interface{}{
		"requestId": requestIDFromContext(ctx),
	})

	metrics.SyncsInFlight.Inc()
	defer metrics.SyncsInFlight.Dec()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(ctx, w, log, apperrors.NewValidationFailedError("failed to read request body"))
		return
	}

	result, err := validation.ValidateJSON(body, sync.RequestSchema)
	if err != nil {
		h.fail(ctx, w, log, err)
		return
	}
	if !result.Valid {
		log.Warn("rejected invalid sync request", map[string]interface{}{
			"errors": result.Errors,
		})
		metrics.SyncRequestsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": result.Errors,
		})
		return
	}

	var req sync.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(ctx, w, log, apperrors.NewValidationFailedError(err.Error()))
		return
	}

	httpc := httpclient.NewClient(config.GetDuration(h.cfg.Upstream.Timeout))
	catalog := servicenow.NewClient(req.ServiceNowBaseURL, r.Header.Get("Authorization"), httpc)
	registry := onspring.NewClient(r.Header.Get("x-apikey"), h.cfg.Upstream.OnspringBaseURL, httpc)

	orch := sync.NewOrchestrator(catalog, registry, log)

	resp, err := orch.Execute(ctx, &req)
	if err != nil {
		h.fail(ctx, w, log, err)
		return
	}

	metrics.SyncRequestsTotal.WithLabelValues("success").Inc()
	h.obs.RecordSyncProcessed(ctx, "success")
	h.obs.RecordSyncDuration(ctx, time.Since(start))

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	log.WithError(err).Error("sync request failed", map[string]interface{}{
		"status": status,
	})
	metrics.SyncRequestsTotal.WithLabelValues("error").Inc()
	h.obs.RecordSyncProcessed(ctx, "error")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
