package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"profitlens/internal/platform/cache"
	"profitlens/internal/platform/logger"
	"profitlens/internal/transport/http/api"
)

const IdempotencyHeader = "Idempotency-Key"

type storedResponse struct {
	RequestHash string `json:"requestHash"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
}

type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Idempotency replays the first successful response of a POST that carries an
// Idempotency-Key. Reusing a key with a different body is a 409. Keys are
// scoped to the caller and the route and live for ttl in store.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			user, ok := GetUser(r.Context())
			if r.Method != http.MethodPost || key == "" || !ok || len(key) > 200 {
				next.ServeHTTP(w, r)
				return
			}
			log := logger.FromContext(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", GetRequestID(r.Context()))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := RequestHash(body)
			cacheKey := "idem:" + user.CompanyID + ":" + user.UserID + ":" + r.URL.Path + ":" + key

			var stored storedResponse
			found, err := store.GetJSON(r.Context(), cacheKey, &stored)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency lookup failed")
			}
			if found {
				if stored.RequestHash != hash {
					api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", GetRequestID(r.Context()))
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			recorder := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			if recorder.status < 200 || recorder.status >= 300 {
				return
			}
			entry := storedResponse{RequestHash: hash, Status: recorder.status, Body: recorder.body.Bytes()}
			if err := store.SetJSON(r.Context(), cacheKey, entry, ttl); err != nil {
				log.Warn().Err(err).Msg("idempotency save failed")
			}
		})
	}
}
