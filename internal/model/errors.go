// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// Fieldはバリデーションエラーで対象フィールドを示す（それ以外は空）。
// Detailは外部依存エラーで上流のエラーテキストを保持する。
type APIError struct {
	Code     string // エラーコード
	Message  string // クライアントに返すメッセージ
	Category string // カテゴリ: auth, validation, not_found, external, system
	Field    string // バリデーション対象フィールド名
	Detail   string // 上流エラーの詳細テキスト
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeTokenRequired       = "TOKEN_REQUIRED"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeInvalidResetToken   = "INVALID_RESET_TOKEN"
	ErrCodeWrongPassword       = "WRONG_PASSWORD"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeDuplicateField      = "DUPLICATE_FIELD"
	ErrCodeAssetNotFound       = "ASSET_NOT_FOUND"
	ErrCodeTranslationNotFound = "TRANSLATION_NOT_FOUND"
	ErrCodeFileNotFound        = "FILE_NOT_FOUND"
	ErrCodeExternalAuth        = "EXTERNAL_AUTH_FAILED"
)

// NewTokenRequiredError はAuthorizationヘッダー欠落エラーを生成する。
func NewTokenRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenRequired,
		Message:  "Token required",
		Category: "auth",
	}
}

// NewInvalidTokenError は未発行・失効済みトークンのエラーを生成する。
// どの検証で落ちたかは意図的に区別しない。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid token",
		Category: "auth",
	}
}

// NewUserNotFoundError はトークン所有者が存在しない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレス不存在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "The provided credentials are incorrect.",
		Category: "auth",
		Field:    "email",
	}
}

// NewInvalidResetTokenError はパスワードリセットトークン不一致エラーを生成する。
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResetToken,
		Message:  "Invalid reset token",
		Category: "auth",
	}
}

// NewWrongPasswordError は現在パスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "Current password is incorrect",
		Category: "auth",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Field:    field,
	}
}

// NewDuplicateFieldError は一意制約違反をフィールドエラーとして生成する。
func NewDuplicateFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateField,
		Message:  fmt.Sprintf("The %s has already been taken.", field),
		Category: "validation",
		Field:    field,
	}
}

// NewAssetNotFoundError はアセット未検出エラーを生成する。
func NewAssetNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAssetNotFound,
		Message:  "Asset not found",
		Category: "not_found",
	}
}

// NewTranslationNotFoundError は翻訳アセット未検出エラーを生成する。
func NewTranslationNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTranslationNotFound,
		Message:  "Translation not found",
		Category: "not_found",
	}
}

// NewFileNotFoundError はストレージ上のファイル未検出エラーを生成する。
func NewFileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeFileNotFound,
		Message:  "File not found",
		Category: "not_found",
	}
}

// NewExternalAuthError は外部IDプロバイダー検証失敗のエラーを生成する。
// 上流のエラーテキストをDetailとして添付するが、検証のどの段階で
// 失敗したかは含めない。
func NewExternalAuthError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeExternalAuth,
		Message:  "Firebase login failed",
		Category: "external",
		Detail:   detail,
	}
}
