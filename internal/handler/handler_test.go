package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/middleware"
	"github.com/hitoshi/careerflow/internal/model"
)

// --- テストヘルパー ---

// withUser はテスト用にリクエストコンテキストへ認証済みユーザーを注入するヘルパー。
func withUser(r *http.Request, userID string, role model.Role) *http.Request {
	ctx := middleware.ContextWithUser(r.Context(), userID, role)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// decodeBody はレスポンスボディをデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dest); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// errorCode はエラーレスポンスのコードを取り出すヘルパー。
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeBody(t, w, &body)
	return body.Code
}

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeValidationFailed, http.StatusBadRequest},
		{model.ErrCodeInvalidURL, http.StatusBadRequest},
		{model.ErrCodeDeadlinePassed, http.StatusBadRequest},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeForbidden, http.StatusForbidden},
		{model.ErrCodeJobNotFound, http.StatusNotFound},
		{model.ErrCodeSessionNotFound, http.StatusNotFound},
		{model.ErrCodeEmailTaken, http.StatusConflict},
		{model.ErrCodeAlreadyApplied, http.StatusConflict},
		{model.ErrCodeSessionStateInvalid, http.StatusConflict},
		{model.ErrCodeAIUnavailable, http.StatusServiceUnavailable},
		{model.ErrCodeInternal, http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code})
			if got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
