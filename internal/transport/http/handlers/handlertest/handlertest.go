// Package handlertest drives handlers through a chi router the way the server
// mounts them, with the caller identity injected directly.
package handlertest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"profitlens/internal/domain/auth"
	"profitlens/internal/requestctx"
)

type Routable interface {
	RegisterRoutes(r chi.Router)
}

// Response is the decoded envelope with the payload left raw.
type Response struct {
	Status  int
	Header  http.Header
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Body []byte `json:"-"`
}

func Owner(companyID string) *auth.UserContext {
	return &auth.UserContext{UserID: "user-" + companyID, CompanyID: companyID, Role: auth.RoleOwner}
}

func As(role, companyID string) *auth.UserContext {
	return &auth.UserContext{UserID: "user-" + companyID, CompanyID: companyID, Role: role}
}

func Router(h Routable) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// Do sends body (marshalled unless it is already a string) as user. A nil
// user makes an anonymous request.
func Do(t *testing.T, handler http.Handler, method, path string, body any, user *auth.UserContext) Response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := requestctx.WithRequestID(req.Context(), "req-test")
	if user != nil {
		ctx = requestctx.WithUser(ctx, *user)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))

	out := Response{Status: rec.Code, Header: rec.Header(), Body: rec.Body.Bytes()}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(out.Body, &out), string(out.Body))
	}
	return out
}

func (r Response) Decode(t *testing.T, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, target), string(r.Data))
}

func (r Response) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// Fields returns the field names of a validation_error response.
func (r Response) Fields() []string {
	if r.Error == nil || r.Error.Details == nil {
		return nil
	}
	list, _ := r.Error.Details["fields"].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if f, ok := m["field"].(string); ok {
				out = append(out, f)
			}
		}
	}
	return out
}
