// Package model はドメインモデルを定義する。
package model

import "fmt"

// FieldIssue はバリデーションエラーのフィールド単位の詳細を表す。
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError は統一エラーフォーマットを表す。
// クライアントに表示する原因カテゴリと、バリデーション失敗時のフィールド詳細を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: validation, auth, not_found, conflict, upstream, system
	Fields   []FieldIssue // バリデーション失敗時のフィールド単位の詳細
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeCounselorNotFound   = "COUNSELOR_NOT_FOUND"
	ErrCodeJobNotFound         = "JOB_NOT_FOUND"
	ErrCodePostNotFound        = "POST_NOT_FOUND"
	ErrCodeReplyNotFound       = "REPLY_NOT_FOUND"
	ErrCodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
	ErrCodeDeadlinePassed      = "DEADLINE_PASSED"
	ErrCodeAlreadyApplied      = "ALREADY_APPLIED"
	ErrCodeSessionStateInvalid = "SESSION_STATE_CONFLICT"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeAIUnavailable       = "AI_UNAVAILABLE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body could not be parsed.",
		Category: "validation",
	}
}

// NewValidationError はフィールド単位の詳細付きバリデーションエラーを生成する。
// messageには先頭フィールドの人間可読なメッセージを渡す。
func NewValidationError(message string, fields ...FieldIssue) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Fields:   fields,
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email already in use.",
		Category: "conflict",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー列挙を防ぐため、メール不明とパスワード不一致で同一メッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: "auth",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Missing or invalid authorization token.",
		Category: "auth",
	}
}

// NewForbiddenError はロール・所有権による拒否エラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: "auth",
	}
}

// NewNotFoundError は指定コードの未検出エラーを生成する。
func NewNotFoundError(code, message string) *APIError {
	return &APIError{
		Code:     code,
		Message:  message,
		Category: "not_found",
	}
}

// NewJobNotFoundError は求人未検出エラーを生成する。
func NewJobNotFoundError() *APIError {
	return NewNotFoundError(ErrCodeJobNotFound, "Job not found.")
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError() *APIError {
	return NewNotFoundError(ErrCodePostNotFound, "Post not found.")
}

// NewReplyNotFoundError は返信未検出エラーを生成する。
func NewReplyNotFoundError() *APIError {
	return NewNotFoundError(ErrCodeReplyNotFound, "Reply not found.")
}

// NewResourceNotFoundError はリソース未検出エラーを生成する。
func NewResourceNotFoundError() *APIError {
	return NewNotFoundError(ErrCodeResourceNotFound, "Resource not found.")
}

// NewSessionNotFoundError はセッション未検出エラーを生成する。
func NewSessionNotFoundError() *APIError {
	return NewNotFoundError(ErrCodeSessionNotFound, "Session not found.")
}

// NewCounselorNotFoundError はカウンセラー未検出エラーを生成する。
// 対象が存在しない場合と非アクティブ・別ロールの場合で同一のエラーを返す。
func NewCounselorNotFoundError() *APIError {
	return NewNotFoundError(ErrCodeCounselorNotFound, "Counselor not found.")
}

// NewDeadlinePassedError は応募締切超過エラーを生成する。
func NewDeadlinePassedError() *APIError {
	return &APIError{
		Code:     ErrCodeDeadlinePassed,
		Message:  "Application deadline has passed.",
		Category: "validation",
	}
}

// NewAlreadyAppliedError は重複応募エラーを生成する。
func NewAlreadyAppliedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyApplied,
		Message:  "You have already applied for this job.",
		Category: "conflict",
	}
}

// NewSessionStateError は現在の状態では実行できない操作のエラーを生成する。
// メッセージにはクライアント表示用に実際の現在状態を含める。
func NewSessionStateError(op string, current SessionStatus) *APIError {
	return &APIError{
		Code:     ErrCodeSessionStateInvalid,
		Message:  fmt.Sprintf("Cannot %s a session that is %s.", op, current),
		Category: "conflict",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  "Please provide a valid URL.",
		Category: "validation",
	}
}

// NewAIUnavailableError はAIサービス利用不可エラーを生成する。
// 外部モデルの失敗詳細は診断ログにのみ残し、クライアントには汎用メッセージを返す。
func NewAIUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeAIUnavailable,
		Message:  "AI service is temporarily unavailable. Please try again.",
		Category: "upstream",
	}
}
