package matching

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter はプロンプトに載せる候補テキストのトークン数を管理する
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTokenCounter は新しいTokenCounterを作成する
// cl100k_baseエンコーダを使用（text-embedding-3-small / gpt-4o系と互換）
func NewTokenCounter() (*TokenCounter, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("tiktokenエンコーダの取得に失敗: %w", err)
	}
	return &TokenCounter{encoder: encoder}, nil
}

// CountTokens はテキストのトークン数をカウントする
func (c *TokenCounter) CountTokens(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

// TrimToTokenLimit はテキストを指定トークン数に収まるようトリミングする
func (c *TokenCounter) TrimToTokenLimit(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	tokens := c.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return c.encoder.Decode(tokens[:maxTokens])
}
