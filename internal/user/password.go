package user

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword はパスワードがハッシュと一致するか検証する。
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
