// Package model はドメインモデルを定義する。
package model

import "time"

// ExternalIdentity は外部IdPとの紐付け情報を表す。
// 1ユーザーにつき最大1つのプロバイダーのみ紐付け可能な構造とすることで、
// 複数プロバイダーIDが同時に設定される状態を型レベルで排除する。
type ExternalIdentity struct {
	Provider  string `json:"provider"`   // "firebase" 等
	SubjectID string `json:"subject_id"` // プロバイダー側のユーザーID
}

// User はサービス利用ユーザーを表す。
// PasswordHashとResetTokenはJSONシリアライズから常に除外される。
type User struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	PasswordHash   string            `json:"-"`
	PhoneNumber    *string           `json:"phone_number"`
	Address        *string           `json:"address,omitempty"`
	ProfilePicture *string           `json:"profile_picture,omitempty"`
	External       *ExternalIdentity `json:"external_identity,omitempty"`
	ResetToken     *string           `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// AccessToken はユーザーに紐づくopaqueなBearer認証トークンを表す。
// 有効期限は持たず、明示的な失効（ログアウト）またはユーザー削除まで有効。
// 1ユーザーが複数トークンを同時に保持できる。
type AccessToken struct {
	ID        string
	Token     string
	UserID    string
	CreatedAt time.Time
}
