package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// Errorsはバリデーションエラーでのみ設定され、フィールド名をキーとする。
// Errorは外部依存エラーで上流のエラーテキストを保持する。
type ErrorResponseBody struct {
	Message  string              `json:"message"`
	Code     string              `json:"code"`
	Category string              `json:"category"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	body := ErrorResponseBody{
		Message:  apiErr.Message,
		Code:     apiErr.Code,
		Category: apiErr.Category,
		Error:    apiErr.Detail,
	}
	if apiErr.Field != "" {
		body.Errors = map[string][]string{
			apiErr.Field: {apiErr.Message},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "An internal error occurred.",
		Category: "system",
	})
}

// StatusForAPIError はAPIErrorのカテゴリとコードからHTTPステータスコードを決定する。
func StatusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Category {
	case "auth":
		switch apiErr.Code {
		case model.ErrCodeInvalidCredentials:
			// ログイン失敗はバリデーション失敗と同じ扱い
			return http.StatusUnprocessableEntity
		case model.ErrCodeInvalidResetToken, model.ErrCodeWrongPassword:
			return http.StatusBadRequest
		default:
			return http.StatusUnauthorized
		}
	case "validation":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "external":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
