package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"profitlens/internal/domain/audit"
	"profitlens/internal/domain/auth"
	"profitlens/internal/platform/logger"
	"profitlens/internal/transport/http/api"
	"profitlens/internal/transport/http/middleware"
)

type Pagination struct {
	Limit  int
	Offset int
}

func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// RequireUser returns the caller or writes a 401.
func RequireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.CompanyID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.UserContext{}, false
	}
	return user, true
}

// DecodeJSON decodes the body into dst or writes a 400/413.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := middleware.GetRequestID(r.Context())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	return true
}

// Audit records a mutation. A failed write is logged and never fails the request.
func Audit(ctx context.Context, recorder audit.Recorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	log := logger.FromContext(ctx)
	evt, err := audit.NewEvent(user.CompanyID, user.UserID, action, entityType, entityID, middleware.GetRequestID(ctx), before, after)
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit event encoding failed")
		return
	}
	if err := recorder.Record(ctx, evt); err != nil {
		log.Warn().Err(err).Str("action", action).Str("entity_type", entityType).Msg("audit record failed")
	}
}

// InternalError logs err against the request and writes a 500 with code.
func InternalError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	logger.FromContext(r.Context()).Error().Err(err).Str("code", code).Msg(message)
	api.Fail(w, http.StatusInternalServerError, code, message, middleware.GetRequestID(r.Context()))
}
