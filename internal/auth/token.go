package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenByteLen はアクセストークンの乱数長（バイト）。
// hexエンコード後は64文字になる。
const tokenByteLen = 32

// GenerateToken は暗号的に安全なopaqueアクセストークンを生成する。
// トークンは発行ごとに独立しており、前のトークンから推測できない。
func GenerateToken() (string, error) {
	b := make([]byte, tokenByteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// resetTokenByteLen はパスワードリセットトークンの乱数長（バイト）。
const resetTokenByteLen = 30

// GenerateResetToken はパスワードリセット用のトークンを生成する。
// hexエンコード後は60文字になる。
func GenerateResetToken() (string, error) {
	b := make([]byte, resetTokenByteLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
