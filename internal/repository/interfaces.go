// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// email・phone_numberの一意制約違反はmodel.APIErrorとして返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// UpsertExternal は外部IdP経由ログインのユーザーを冪等に確保する。
	// 同一メールアドレスのユーザーが存在すれば外部identity情報を紐付けて返し、
	// 存在しなければ新規作成する。
	UpsertExternal(ctx context.Context, user *model.User) (*model.User, error)

	// UpdateProfile はname・phone_number・address・profile_pictureを更新する。
	// phone_numberの一意制約違反はmodel.APIErrorとして返す。
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdatePassword はパスワードハッシュを更新し、reset_tokenをクリアする。
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// UpdateResetToken はパスワードリセットトークンを設定する。nilでクリア。
	UpdateResetToken(ctx context.Context, userID string, token *string) error
}

// AccessTokenRepository はアクセストークンの永続化インターフェース。
type AccessTokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.AccessToken) error

	// FindByToken はトークン文字列で検索する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.AccessToken, error)

	// DeleteByToken は指定トークンを失効させる。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByUserID は指定ユーザーの全トークンを失効させる。
	DeleteByUserID(ctx context.Context, userID string) error
}

// AssetRepository はアセットデータの永続化インターフェース。
// 読み取り系は全てis_active = trueの行のみを対象とする。
type AssetRepository interface {
	// Create はアセットを作成する。
	Create(ctx context.Context, asset *model.Asset) error

	// FindByID は指定IDの有効なアセットを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Asset, error)

	// List は有効なアセット一覧を返す。assetType・categoryが空でない場合は
	// それぞれで絞り込む。作成日時の降順。
	List(ctx context.Context, assetType, category string) ([]*model.Asset, error)

	// ListTranslations は有効な翻訳アセット一覧を返す。
	// languageが空でない場合はmetadataのlanguageキーで絞り込む。
	ListTranslations(ctx context.Context, language string) ([]*model.Asset, error)

	// FindTranslationByLanguage は指定言語の有効な翻訳アセットを取得する。
	// 見つからない場合はnilを返す。複数ある場合は最新の1件。
	FindTranslationByLanguage(ctx context.Context, language string) (*model.Asset, error)
}
