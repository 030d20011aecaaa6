package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/careerflow/internal/model"
)

// エラーレスポンスが統一フォーマットで書き込まれることを検証
func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, http.StatusConflict, model.NewEmailTakenError())

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmailTaken)
	}
	if body.Category != "conflict" {
		t.Errorf("category = %q, want conflict", body.Category)
	}
	if len(body.Fields) != 0 {
		t.Errorf("fields must be empty, got %+v", body.Fields)
	}
}

// バリデーションエラーのフィールド詳細が含まれることを検証
func TestWriteErrorResponse_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	apiErr := model.NewValidationError("Full name must be between 2 and 100 characters.",
		model.FieldIssue{Field: "fullName", Message: "Full name must be between 2 and 100 characters."},
	)
	WriteErrorResponse(rec, http.StatusBadRequest, apiErr)

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "fullName" {
		t.Errorf("fields = %+v, want single fullName issue", body.Fields)
	}
}

// フィールドなしのレスポンスでfieldsキーが省略されることを検証
func TestWriteErrorResponse_OmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, http.StatusNotFound, model.NewJobNotFoundError())

	if strings.Contains(rec.Body.String(), `"fields"`) {
		t.Errorf("fields key must be omitted: %s", rec.Body.String())
	}
}

// 内部エラーレスポンスが詳細を漏らさないことを検証
func TestWriteInternalServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternalServerError(rec)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeInternal || body.Category != "system" {
		t.Errorf("unexpected body: %+v", body)
	}
}
