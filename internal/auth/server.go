// Package auth は認証APIを提供する。
// ユーザーの自己登録とログインを扱い、成功時にJWTトークンを発行する。
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/jobhub/internal/user"
	"github.com/nao1215/jobhub/pkg/middleware"
	"github.com/rs/zerolog"
)

// Handler は認証APIのHTTPハンドラ群。
type Handler struct {
	// store はユーザー情報の永続化層。
	store user.Store
	// secret はJWT署名用の共有秘密鍵。
	secret string
	// tokenTTL は発行するトークンの有効期間。
	tokenTTL time.Duration
	// log はアプリケーションロガー。
	log zerolog.Logger
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(store user.Store, secret string, tokenTTL time.Duration, log zerolog.Logger) *Handler {
	return &Handler{store: store, secret: secret, tokenTTL: tokenTTL, log: log}
}

// Register は認証APIのルーティングをグループに登録する。
// どちらのエンドポイントも認証不要で呼び出せる。
func (h *Handler) Register(g *gin.RouterGroup) {
	// ユーザーの自己登録
	g.POST("/register", h.handleRegister())
	// ログイン（トークン発行）
	g.POST("/token", h.handleToken())
}

// registerRequest は自己登録リクエストのJSON構造。
type registerRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Password は平文パスワード。保存前にハッシュ化する。
	Password string `json:"password" binding:"required,min=5"`
	// FirstName は名。
	FirstName string `json:"firstName" binding:"required"`
	// LastName は姓。
	LastName string `json:"lastName" binding:"required"`
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
}

// tokenRequest はログインリクエストのJSON構造。
type tokenRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Password は平文パスワード。
	Password string `json:"password" binding:"required"`
}

// handleRegister は自己登録を処理するハンドラを返す。
// この経路では管理者ユーザーは作成できない。
func (h *Handler) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}

		hash, err := user.HashPassword(req.Password)
		if err != nil {
			h.log.Error().Err(err).Msg("パスワードのハッシュ化に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			return
		}

		u := user.User{
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			IsAdmin:   false,
		}
		if err := h.store.Create(c.Request.Context(), u, hash); err != nil {
			if errors.Is(err, user.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "同じユーザー名またはメールアドレスが既に存在します"})
				return
			}
			h.log.Error().Err(err).Str("username", req.Username).Msg("ユーザーの登録に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			return
		}

		token, err := middleware.GenerateToken(h.secret, u.Username, u.IsAdmin, h.tokenTTL)
		if err != nil {
			h.log.Error().Err(err).Msg("トークンの生成に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの登録に失敗しました"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"token": token})
	}
}

// handleToken はログインを処理するハンドラを返す。
// ユーザーが存在しない場合とパスワード不一致は同じ401を返す。
func (h *Handler) handleToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}

		hash, isAdmin, err := h.store.Credentials(c.Request.Context(), req.Username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザー名またはパスワードが正しくありません"})
				return
			}
			h.log.Error().Err(err).Str("username", req.Username).Msg("認証情報の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			return
		}
		if !user.VerifyPassword(hash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザー名またはパスワードが正しくありません"})
			return
		}

		token, err := middleware.GenerateToken(h.secret, req.Username, isAdmin, h.tokenTTL)
		if err != nil {
			h.log.Error().Err(err).Msg("トークンの生成に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
