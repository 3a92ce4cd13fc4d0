package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// --- モック定義 ---

// mockTokenFinder はTokenFinderのモック実装。
type mockTokenFinder struct {
	findByTokenFn func(ctx context.Context, token string) (*model.AccessToken, error)
}

func (m *mockTokenFinder) FindByToken(ctx context.Context, token string) (*model.AccessToken, error) {
	if m.findByTokenFn != nil {
		return m.findByTokenFn(ctx, token)
	}
	return nil, nil
}

// mockUserFinder はUserFinderのモック実装。
type mockUserFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// decodeError はレスポンスボディをエラーフォーマットとして読み出す。
func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// Authorizationヘッダーなしで"Token required"の401が返ることを検証
func TestAuthMiddleware_NoToken(t *testing.T) {
	mw := NewAuthMiddleware(&mockTokenFinder{}, &mockUserFinder{}, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer scheme", "Basic dXNlcjpwYXNz"},
		{"bearer without value", "Bearer "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if body := decodeError(t, w); body.Message != "Token required" {
				t.Errorf("message = %q, want %q", body.Message, "Token required")
			}
		})
	}
}

// 未発行トークンで"Invalid token"の401が返ることを検証
func TestAuthMiddleware_UnknownToken(t *testing.T) {
	tokens := &mockTokenFinder{
		findByTokenFn: func(ctx context.Context, token string) (*model.AccessToken, error) {
			return nil, nil
		},
	}

	mw := NewAuthMiddleware(tokens, &mockUserFinder{}, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer unknown-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if body := decodeError(t, w); body.Message != "Invalid token" {
		t.Errorf("message = %q, want %q", body.Message, "Invalid token")
	}
}

// トークン検索のDBエラーも"Invalid token"に収束することを検証
func TestAuthMiddleware_TokenLookupError(t *testing.T) {
	tokens := &mockTokenFinder{
		findByTokenFn: func(ctx context.Context, token string) (*model.AccessToken, error) {
			return nil, errors.New("connection refused")
		},
	}

	mw := NewAuthMiddleware(tokens, &mockUserFinder{}, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if body := decodeError(t, w); body.Message != "Invalid token" {
		t.Errorf("message = %q, want %q", body.Message, "Invalid token")
	}
}

// トークン所有者が存在しない場合に"User not found"の401が返ることを検証
func TestAuthMiddleware_OwnerMissing(t *testing.T) {
	tokens := &mockTokenFinder{
		findByTokenFn: func(ctx context.Context, token string) (*model.AccessToken, error) {
			return &model.AccessToken{ID: "t-1", Token: token, UserID: "ghost-user"}, nil
		},
	}
	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	mw := NewAuthMiddleware(tokens, users, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer orphan-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if body := decodeError(t, w); body.Message != "User not found" {
		t.Errorf("message = %q, want %q", body.Message, "User not found")
	}
}

// 有効なトークンでユーザーIDと提示トークンがコンテキストに注入されることを検証
func TestAuthMiddleware_Success(t *testing.T) {
	tokens := &mockTokenFinder{
		findByTokenFn: func(ctx context.Context, token string) (*model.AccessToken, error) {
			return &model.AccessToken{ID: "t-1", Token: token, UserID: "user-1"}, nil
		},
	}
	users := &mockUserFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "Budi"}, nil
		},
	}

	mw := NewAuthMiddleware(tokens, users, nil)

	var gotUserID, gotToken string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		gotToken, _ = BearerTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "user-1" {
		t.Errorf("user ID in context = %q, want user-1", gotUserID)
	}
	if gotToken != "valid-token" {
		t.Errorf("bearer token in context = %q, want valid-token", gotToken)
	}
}

// コンテキストにユーザーIDが無い場合のエラーを検証
func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID")
	}
}
