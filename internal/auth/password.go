package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxPasswordLen はbcryptが暗黙に切り詰めるパスワード長の上限。
const bcryptMaxPasswordLen = 72

// PasswordHasher はパスワードのハッシュ化と照合を提供する。
// コストをテストで下げられるよう構造体として保持する。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher は指定コストのPasswordHasherを生成する。
// コストが範囲外の場合はbcrypt.DefaultCostにフォールバックする。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードをbcryptでハッシュ化する。
// ソルトはハッシュ文字列に内包されるため別カラムは不要。
// 平文は呼び出し後に一切保持されない。
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > bcryptMaxPasswordLen {
		// bcryptは72バイト超を無言で切り詰めるため明示的に拒否する
		return "", fmt.Errorf("password must be %d bytes or fewer", bcryptMaxPasswordLen)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するか検証する。
// 一致すればnil、不一致ならerrMismatchを返す。
// bcryptの比較は内部で定数時間比較を行うためタイミング攻撃に安全。
func (h *PasswordHasher) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errMismatch
		}
		return fmt.Errorf("failed to compare password hash: %w", err)
	}
	return nil
}

// errMismatch はパスワード不一致を表す内部エラー。
var errMismatch = errors.New("password mismatch")
