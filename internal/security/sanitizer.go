// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DisplaySanitizerService はユーザー入力の表示用文字列をサニタイズする
// インターフェースを定義する。ユーザー名・アセット名など、後続のクライアントが
// そのまま表示しうる文字列の保存前に使用される。
type DisplaySanitizerService interface {
	// Clean は入力からすべてのHTMLタグを除去し、前後の空白を取り除いた
	// プレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Clean(raw string) string
}

// displaySanitizer はDisplaySanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持し、スレッドセーフに動作する。
type displaySanitizer struct {
	policy *bluemonday.Policy
}

// NewDisplaySanitizer はDisplaySanitizerServiceの新しいインスタンスを生成する。
// 表示用文字列にマークアップを許可する理由はないため、許可リストは空で構築する。
func NewDisplaySanitizer() *displaySanitizer {
	return &displaySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean は入力をサニタイズしてプレーンテキストを返す。
func (s *displaySanitizer) Clean(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ DisplaySanitizerService = (*displaySanitizer)(nil)
