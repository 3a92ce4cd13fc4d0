package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// pqUniqueViolation はPostgreSQLのunique_violationエラーコード。
const pqUniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// userColumns はユーザー取得系クエリで共通のSELECT列リスト。
const userColumns = `id, name, email, password_hash, phone_number, address,
	profile_picture, external_provider, external_subject_id, reset_token,
	created_at, updated_at`

// Create はユーザーを作成する。
// email・phone_numberの一意制約違反はmodel.APIErrorとして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	provider, subjectID := externalColumns(user)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, phone_number, address,
		 profile_picture, external_provider, external_subject_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PhoneNumber,
		user.Address, user.ProfilePicture, provider, subjectID,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if dup := translateUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

// UpsertExternal は外部IdP経由ログインのユーザーを冪等に確保する。
// メールアドレスをキーにINSERT ... ON CONFLICTで外部identity情報を紐付ける。
// 既存ユーザーのパスワードハッシュは変更しない。
func (r *PostgresUserRepo) UpsertExternal(ctx context.Context, user *model.User) (*model.User, error) {
	provider, subjectID := externalColumns(user)

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, profile_picture,
		 external_provider, external_subject_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (email) DO UPDATE SET
		   external_provider = EXCLUDED.external_provider,
		   external_subject_id = EXCLUDED.external_subject_id,
		   profile_picture = COALESCE(users.profile_picture, EXCLUDED.profile_picture),
		   updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.PasswordHash, user.ProfilePicture,
		provider, subjectID, user.CreatedAt, user.UpdatedAt,
	)

	upserted, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if upserted == nil {
		return nil, errors.New("upsert returned no row")
	}

	return upserted, nil
}

// UpdateProfile はname・phone_number・address・profile_pictureを更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $1, phone_number = $2, address = $3, profile_picture = $4,
		     updated_at = now()
		 WHERE id = $5`,
		user.Name, user.PhoneNumber, user.Address, user.ProfilePicture, user.ID,
	)
	if err != nil {
		if dup := translateUniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

// UpdatePassword はパスワードハッシュを更新し、reset_tokenをクリアする。
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = $1, reset_token = NULL, updated_at = now()
		 WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateResetToken はパスワードリセットトークンを設定する。nilでクリア。
func (r *PostgresUserRepo) UpdateResetToken(ctx context.Context, userID string, token *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET reset_token = $1, updated_at = now() WHERE id = $2`,
		token, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reset token: %w", err)
	}
	return nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser は1行をmodel.Userに読み出す。sql.ErrNoRowsはnilとして扱う。
func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var provider, subjectID sql.NullString

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.PhoneNumber, &user.Address, &user.ProfilePicture,
		&provider, &subjectID, &user.ResetToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	// CHECK制約により両方設定か両方NULLのどちらかしかない
	if provider.Valid && subjectID.Valid {
		user.External = &model.ExternalIdentity{
			Provider:  provider.String,
			SubjectID: subjectID.String,
		}
	}

	return user, nil
}

// externalColumns はExternalIdentityをnullableなカラム値の組に分解する。
func externalColumns(user *model.User) (provider, subjectID *string) {
	if user.External == nil {
		return nil, nil
	}
	return &user.External.Provider, &user.External.SubjectID
}

// translateUniqueViolation は一意制約違反をフィールド単位のAPIErrorに変換する。
// 一意制約違反でない場合はnilを返す。
func translateUniqueViolation(err error) *model.APIError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return nil
	}

	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return model.NewDuplicateFieldError("email")
	case strings.Contains(pqErr.Constraint, "phone"):
		return model.NewDuplicateFieldError("phone_number")
	default:
		return model.NewDuplicateFieldError(pqErr.Constraint)
	}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
