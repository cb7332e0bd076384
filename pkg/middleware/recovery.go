package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時に内容をログに出力し、500エラーを返す。
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Any("panic", r).
					Msg("パニックから回復しました")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "内部サーバーエラーが発生しました",
				})
			}
		}()
		c.Next()
	}
}
