// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService はユーザー投稿テキスト（フォーラム投稿・返信・
// プロフィール・リソース説明など）をサニタイズし、XSS攻撃などの
// セキュリティリスクからユーザーを保護する。
// bluemondayライブラリの厳格ポリシーを使用し、HTMLタグを一切通過させない。
package security

import "github.com/microcosm-cc/bluemonday"

// ContentSanitizerService はテキストコンテンツのサニタイズ機能のインターフェースを定義する。
// ユーザー入力の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力テキストからすべてのHTMLタグを除去する。
	// 投稿本文はプレーンテキストとして扱うため、許可タグは存在しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグ・属性を一切許可せず、テキストのみを残す。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからすべてのHTMLタグを除去する。
func (s *contentSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
