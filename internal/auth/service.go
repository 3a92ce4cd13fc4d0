// Package auth は認証・認可のドメインロジックを提供する。
//
// 認証はopaqueなBearerトークンによる。トークンは発行時にデータベースへ
// 保存され、失効はレコード削除で行う。外部IdP（Firebase）経由のログインも
// 最終的には同じopaqueトークンの発行に収束する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/WiMProject/backend-hamim/internal/model"
	"github.com/WiMProject/backend-hamim/internal/repository"
	"github.com/WiMProject/backend-hamim/internal/security"
)

// externalProviderFirebase は外部identityのプロバイダー識別子。
const externalProviderFirebase = "firebase"

// passwordMinLen はパスワードの最小文字数。
const passwordMinLen = 6

// ExternalVerifier は外部IdPのIDトークン検証インターフェース。
type ExternalVerifier interface {
	// Verify はIDトークンを検証し、含まれるユーザー情報を返す。
	Verify(ctx context.Context, idToken string) (*FirebaseIdentity, error)
}

// AuthResult は認証成功時のユーザーと発行トークンの組。
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

// AuthService は登録・ログイン・トークン管理・パスワード管理を提供する。
type AuthService struct {
	users     repository.UserRepository
	tokens    repository.AccessTokenRepository
	hasher    *PasswordHasher
	verifier  ExternalVerifier
	sanitizer security.DisplaySanitizerService
}

// NewAuthService はAuthServiceを生成する。
func NewAuthService(
	users repository.UserRepository,
	tokens repository.AccessTokenRepository,
	hasher *PasswordHasher,
	verifier ExternalVerifier,
	sanitizer security.DisplaySanitizerService,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		verifier:  verifier,
		sanitizer: sanitizer,
	}
}

// Register は新規ユーザーを登録し、アクセストークンを発行する。
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         s.sanitizer.Clean(input.Name),
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.PhoneNumber != "" {
		phone := input.PhoneNumber
		user.PhoneNumber = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(ctx, user)
}

// Login はメールアドレスとパスワードで認証し、アクセストークンを発行する。
// メールアドレス不存在とパスワード不一致は同一のエラーとして返す。
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, errMismatch) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, err
	}

	return s.issueToken(ctx, user)
}

// Logout は提示されたトークンを失効させる。
// ユーザーの他のトークンには影響しない。
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.DeleteByToken(ctx, token)
}

// FirebaseLogin はFirebase IDトークンを検証し、対応するローカルユーザーを
// 確保してアクセストークンを発行する。同一メールアドレスのユーザーが既に
// 存在する場合はそのユーザーにidentityを紐付ける（アカウントリンク）。
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, model.NewExternalAuthError(err.Error())
	}
	if identity.Email == "" {
		return nil, model.NewExternalAuthError("token does not include an email address")
	}

	name := s.sanitizer.Clean(identity.Name)
	if name == "" {
		name = identity.Email
	}

	now := time.Now()
	user := &model.User{
		ID:    uuid.New().String(),
		Name:  name,
		Email: identity.Email,
		External: &model.ExternalIdentity{
			Provider:  externalProviderFirebase,
			SubjectID: identity.UID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if identity.Picture != "" {
		picture := identity.Picture
		user.ProfilePicture = &picture
	}

	upserted, err := s.users.UpsertExternal(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.issueToken(ctx, upserted)
}

// ForgotPassword はパスワードリセットトークンを生成してユーザーに紐付ける。
// 発行済みトークンは上書きされ、常に最新の1つだけが有効となる。
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", model.NewValidationError("email", "We can't find a user with that email address.")
	}

	token, err := GenerateResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.users.UpdateResetToken(ctx, user.ID, &token); err != nil {
		return "", err
	}

	return token, nil
}

// ResetPassword はリセットトークンを検証してパスワードを更新する。
// トークンはワンタイムであり、成功時にクリアされる。あわせて発行済みの
// 全アクセストークンを失効させ、以降は新しいパスワードでのログインを要求する。
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.ResetToken == nil || *user.ResetToken != token {
		return model.NewInvalidResetTokenError()
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	return s.tokens.DeleteByUserID(ctx, user.ID)
}

// ChangePassword は現在のパスワードを検証した上で新しいパスワードに更新する。
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.hasher.Verify(user.PasswordHash, current); err != nil {
		if errors.Is(err, errMismatch) {
			return model.NewWrongPasswordError()
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// issueToken は新しいopaqueアクセストークンを発行して保存する。
func (s *AuthService) issueToken(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	record := &model.AccessToken{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// validateRegisterInput は登録入力のバリデーションを行う。
// 最初に見つかったフィールドのエラーを1件返す。
func validateRegisterInput(input RegisterInput) error {
	if input.Name == "" {
		return model.NewValidationError("name", "The name field is required.")
	}
	if len(input.Name) > 100 {
		return model.NewValidationError("name", "The name may not be greater than 100 characters.")
	}
	if input.Email == "" {
		return model.NewValidationError("email", "The email field is required.")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return model.NewValidationError("email", "The email must be a valid email address.")
	}
	if err := validatePassword(input.Password); err != nil {
		return err
	}
	if len(input.PhoneNumber) > 25 {
		return model.NewValidationError("phone_number", "The phone number may not be greater than 25 characters.")
	}
	return nil
}

// validatePassword はパスワードの最小要件を検証する。
func validatePassword(password string) error {
	if password == "" {
		return model.NewValidationError("password", "The password field is required.")
	}
	if len(password) < passwordMinLen {
		return model.NewValidationError("password", fmt.Sprintf("The password must be at least %d characters.", passwordMinLen))
	}
	return nil
}
