// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/WiMProject/backend-hamim/internal/metrics"
	"github.com/WiMProject/backend-hamim/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// bearerTokenContextKey はリクエストコンテキストに提示トークンを格納するためのキー。
// ログアウトで提示トークン自身を失効させるために保持する。
var bearerTokenContextKey = contextKey("bearer_token")

// TokenFinder はアクセストークンの検索に必要なインターフェース。
// repository.AccessTokenRepositoryの部分集合として定義する。
type TokenFinder interface {
	FindByToken(ctx context.Context, token string) (*model.AccessToken, error)
}

// UserFinder はトークン所有者の検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証する
// ミドルウェアを返す。検証は3段階で行い、それぞれ固有の401を返す:
//
//  1. Bearerトークンが提示されていない → "Token required"
//  2. トークンが未発行または失効済み → "Invalid token"
//  3. トークン所有者が存在しない → "User not found"
//
// 通過したリクエストのコンテキストには認証済みユーザーIDと提示トークンが
// 注入される。collectorはnil可。
func NewAuthMiddleware(tokens TokenFinder, users UserFinder, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	recordFailure := func(reason string) {
		if collector != nil {
			collector.RecordAuthFailure(reason)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			raw := bearerToken(r)
			if raw == "" {
				recordFailure("token_missing")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenRequiredError())
				return
			}

			// 2. トークンの有効性を検証
			token, err := tokens.FindByToken(r.Context(), raw)
			if err != nil {
				slog.Error("failed to find access token",
					slog.String("error", err.Error()),
				)
				recordFailure("token_lookup_error")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}
			if token == nil {
				recordFailure("token_invalid")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			// 3. トークン所有者の存在を検証
			user, err := users.FindByID(r.Context(), token.UserID)
			if err != nil {
				slog.Error("failed to find token owner",
					slog.String("error", err.Error()),
				)
				recordFailure("user_lookup_error")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
				return
			}
			if user == nil {
				recordFailure("user_not_found")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
				return
			}

			// 4. 認証済みユーザーIDと提示トークンをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, user.ID)
			ctx = context.WithValue(ctx, bearerTokenContextKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
// ヘッダーが無い、またはBearerスキームでない場合は空文字列を返す。
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// BearerTokenFromContext はリクエストコンテキストから提示トークンを取得する。
func BearerTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(bearerTokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("bearer token not found in context")
	}
	return token, nil
}

// ContextWithBearerToken はコンテキストに提示トークンを注入する。テスト用。
func ContextWithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenContextKey, token)
}
