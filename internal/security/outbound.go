// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// OutboundClientFactory は外部サービスへのHTTPクライアント生成のインターフェース。
// 現状の外向き通信はFirebase公開鍵セットの取得のみだが、
// 宛先にかかわらず同じ防御（スキーム・ポート制限、内部IP遮断）を適用する。
type OutboundClientFactory interface {
	// NewClient は外向きリクエスト用の防御付きHTTPクライアントを生成する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストが自動的にブロックされる。
	// DNS再バインディング攻撃への対策も有効化される。
	NewClient(timeout time.Duration) *http.Client
}

// allowedSchemes は外向き通信で許可されるURLスキーム。
var allowedSchemes = []string{"https"}

// outboundGuard はOutboundClientFactoryの実装。
type outboundGuard struct{}

// NewOutboundGuard はOutboundClientFactoryの新しいインスタンスを生成する。
func NewOutboundGuard() *outboundGuard {
	return &outboundGuard{}
}

// NewClient は防御付きHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
func (g *outboundGuard) NewClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// compile-time interface check
var _ OutboundClientFactory = (*outboundGuard)(nil)
