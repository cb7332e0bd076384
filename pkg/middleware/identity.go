package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Identity は認証済みリクエストの主体を表す。
// 検証済みトークンからリクエストごとに再構築され、永続化はしない。
type Identity struct {
	// Username は認証済みユーザーのユーザー名。
	Username string
	// IsAdmin は管理者権限を持つかどうか。
	IsAdmin bool
	// IssuedAt はトークンの発行日時。
	IssuedAt time.Time
}

// Claims はJWTトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// Username はトークン発行対象のユーザー名。
	Username string `json:"username"`
	// IsAdmin は管理者権限を持つかどうか。
	IsAdmin bool `json:"is_admin"`
}

// identityKey はGinコンテキストにIdentityを格納するためのキー。
const identityKey = "identity"

// GenerateToken はユーザー情報からJWTトークンを生成する。
// 登録・ログイン成功時にauthサービスが呼び出す。
func GenerateToken(secret, username string, isAdmin bool, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "jobhub",
		},
		Username: username,
		IsAdmin:  isAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Authenticate はAuthorizationヘッダーのトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合のみコンテキストにIdentityを設定する。
//
// ヘッダーの欠落・Bearer形式の不一致・署名不一致・期限切れ・ペイロード不正は
// すべて「Identityなし」（匿名）として扱い、リクエストを中断しない。
// 匿名アクセスを拒否するかどうかの判断はガード側の責務とする。
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ident, ok := verify(secret, c.GetHeader("Authorization")); ok {
			c.Set(identityKey, ident)
		}
		c.Next()
	}
}

// verify はAuthorizationヘッダーの値を検証してIdentityへ変換する。
// 失敗理由は区別せず、すべて「Identityなし」として返す。
func verify(secret, header string) (Identity, bool) {
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return Identity{}, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, false
	}
	if claims.Username == "" {
		return Identity{}, false
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return Identity{
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
		IssuedAt: issuedAt,
	}, true
}

// IdentityFrom はGinコンテキストからIdentityを取得する。
// Authenticateミドルウェアが事前に適用されている必要がある。
// 匿名リクエストの場合は2番目の戻り値がfalseになる。
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
