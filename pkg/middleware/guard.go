package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrUnauthorized はアクセスガードが前提条件を満たさないと判断した場合のエラー。
// 匿名と権限不足のいずれもこのエラーに集約し、呼び出し側からは区別できない。
var ErrUnauthorized = errors.New("認証が必要です")

// Guard はIdentityとルートパラメータからアクセス可否を判定する純粋な述語。
// 許可時はnil、拒否時はErrUnauthorizedを包んだエラーを返す。
// identは匿名リクエストの場合nilとなる。Guardはidentを変更してはならない。
type Guard func(ident *Identity, params gin.Params) error

// LoggedIn はIdentityが存在する場合のみ許可するガード。
func LoggedIn(ident *Identity, _ gin.Params) error {
	if ident == nil {
		return fmt.Errorf("ログインが必要です: %w", ErrUnauthorized)
	}
	return nil
}

// Admin は管理者のみ許可するガード。
// 匿名と非管理者は同じ種類のエラーで拒否する。
func Admin(ident *Identity, _ gin.Params) error {
	if ident == nil || !ident.IsAdmin {
		return fmt.Errorf("管理者権限が必要です: %w", ErrUnauthorized)
	}
	return nil
}

// AdminOrSelf は管理者または対象ユーザー本人のみ許可するガードを返す。
// paramには対象ユーザー名を保持するルートパラメータ名を指定する。
// Identityの存在確認を先に行い、匿名は即座に拒否する。
func AdminOrSelf(param string) Guard {
	return func(ident *Identity, params gin.Params) error {
		if ident == nil {
			return fmt.Errorf("ログインが必要です: %w", ErrUnauthorized)
		}
		if ident.IsAdmin {
			return nil
		}
		if username, ok := params.Get(param); ok && username == ident.Username {
			return nil
		}
		return fmt.Errorf("本人または管理者のみ操作できます: %w", ErrUnauthorized)
	}
}

// Require は指定されたガードを宣言順に評価するGinミドルウェアを返す。
// いずれかのガードが拒否した時点で401を返して処理を中断する。
func Require(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ident *Identity
		if i, ok := IdentityFrom(c); ok {
			ident = &i
		}

		for _, guard := range guards {
			if err := guard(ident, c.Params); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
				return
			}
		}
		c.Next()
	}
}
