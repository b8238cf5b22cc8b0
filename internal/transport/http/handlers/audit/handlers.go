package audithandler

import (
	"encoding/csv"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/platform/logger"
	"profitlens/internal/transport/http/api"
	"profitlens/internal/transport/http/middleware"
	"profitlens/internal/transport/http/shared"
)

// Handler serves the audit trail on backends that keep one.
type Handler struct {
	Lister audit.Lister
	Perms  middleware.PermissionChecker
}

func NewHandler(lister audit.Lister, perms middleware.PermissionChecker) *Handler {
	return &Handler{Lister: lister, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/events", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/events/export", h.handleExportEvents)
	})
}

func filterFrom(r *http.Request) audit.Filter {
	return audit.Filter{Action: r.URL.Query().Get("action"), EntityType: r.URL.Query().Get("entityType")}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	events, err := h.Lister.List(r.Context(), user.CompanyID, filterFrom(r), page.Limit, page.Offset)
	if err != nil {
		shared.InternalError(w, r, err, "audit_list_failed", "failed to list audit events")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.RequireUser(w, r)
	if !ok {
		return
	}
	events, err := h.Lister.List(r.Context(), user.CompanyID, filterFrom(r), 10000, 0)
	if err != nil {
		shared.InternalError(w, r, err, "audit_export_failed", "failed to export audit events")
		return
	}

	log := logger.FromContext(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_id", "action", "entity_type", "entity_id", "request_id", "created_at"}); err != nil {
		log.Warn().Err(err).Msg("audit export header failed")
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			log.Warn().Err(err).Msg("audit export row failed")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Warn().Err(err).Msg("audit export flush failed")
	}
}
