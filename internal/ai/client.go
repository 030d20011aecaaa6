// Package ai はGeminiを使ったキャリアコーチ機能を提供する。
//
// 外部モデルの呼び出しはすべてリクエストのcontextとクライアント側の
// タイムアウトで制限される。構造化出力のパース失敗は呼び出し元には
// 汎用的なエラーとしてのみ現れ、詳細はログに残す。
package ai

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultModel はデフォルトで使用するGeminiのモデル名。
const DefaultModel = "gemini-2.5-flash"

// NewGeminiClient はGemini APIのクライアントを生成する。
// アプリの起動時に一度だけ生成してServiceへ注入すること。
func NewGeminiClient(ctx context.Context, apiKey, model string) (llms.Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}
