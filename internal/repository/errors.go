package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateEmail は既に登録済みのメールアドレスで作成を試みた場合に返る。
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateApplication は同一求人への重複応募を試みた場合に返る。
var ErrDuplicateApplication = errors.New("application already exists")

// isUniqueViolation は指定した制約のユニーク制約違反かどうかを判定する。
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
