package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したアクセストークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.AccessToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, token, user_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.Token, token.UserID, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create access token: %w", err)
	}
	return nil
}

// FindByToken はトークン文字列で検索する。見つからない場合はnilを返す。
func (r *PostgresTokenRepo) FindByToken(ctx context.Context, token string) (*model.AccessToken, error) {
	at := &model.AccessToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, created_at FROM access_tokens WHERE token = $1`,
		token,
	).Scan(&at.ID, &at.Token, &at.UserID, &at.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find access token: %w", err)
	}

	return at, nil
}

// DeleteByToken は指定トークンを失効させる。
func (r *PostgresTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete access token: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全トークンを失効させる。
func (r *PostgresTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user access tokens: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AccessTokenRepository = (*PostgresTokenRepo)(nil)
