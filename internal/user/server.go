// Package user はユーザー管理APIを提供する。
// ユーザーの登録・取得・部分更新・削除と、求人への応募を扱う。
// 自分自身に関する操作は本人または管理者のみが実行できる。
package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/jobhub/pkg/middleware"
	"github.com/nao1215/jobhub/pkg/sqlbuild"
	"github.com/rs/zerolog"
)

// Handler はユーザーAPIのHTTPハンドラ群。
type Handler struct {
	// store はユーザー情報の永続化層。
	store Store
	// log はアプリケーションロガー。
	log zerolog.Logger
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Register はユーザーAPIのルーティングをグループに登録する。
// 一覧と新規作成は管理者のみ、個別操作は本人または管理者のみ許可する。
func (h *Handler) Register(g *gin.RouterGroup) {
	// ユーザー新規作成（管理者のみ）
	g.POST("", middleware.Require(middleware.Admin), h.handleCreate())
	// ユーザー一覧取得（管理者のみ）
	g.GET("", middleware.Require(middleware.Admin), h.handleList())
	// ユーザー詳細取得（応募済み求人IDを含む）
	g.GET("/:username", middleware.Require(middleware.AdminOrSelf("username")), h.handleGet())
	// ユーザーの部分更新
	g.PATCH("/:username", middleware.Require(middleware.AdminOrSelf("username")), h.handleUpdate())
	// ユーザー削除
	g.DELETE("/:username", middleware.Require(middleware.AdminOrSelf("username")), h.handleDelete())
	// 求人への応募
	g.POST("/:username/jobs/:id", middleware.Require(middleware.AdminOrSelf("username")), h.handleApply())
}

// createUserRequest はユーザー作成リクエストのJSON構造。
type createUserRequest struct {
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
	// IsAdmin は管理者として作成するかどうか。
	IsAdmin bool `json:"isAdmin"`
}

// updateUserRequest はユーザーの部分更新リクエストのJSON構造。
// 指定されたフィールドのみ更新する。ユーザー名と管理者フラグは変更できない。
type updateUserRequest struct {
	// Password は新しい平文パスワード。
	Password *string `json:"password" binding:"omitempty,min=5"`
	// FirstName は名。
	FirstName *string `json:"firstName"`
	// LastName は姓。
	LastName *string `json:"lastName"`
	// Email はメールアドレス。
	Email *string `json:"email" binding:"omitempty,email"`
}

// fields は設定済みのフィールドを宣言順で返す。
func (r updateUserRequest) fields() []sqlbuild.Field {
	var fields []sqlbuild.Field
	if r.Password != nil {
		fields = append(fields, sqlbuild.Field{Name: "password", Value: *r.Password})
	}
	if r.FirstName != nil {
		fields = append(fields, sqlbuild.Field{Name: "firstName", Value: *r.FirstName})
	}
	if r.LastName != nil {
		fields = append(fields, sqlbuild.Field{Name: "lastName", Value: *r.LastName})
	}
	if r.Email != nil {
		fields = append(fields, sqlbuild.Field{Name: "email", Value: *r.Email})
	}
	return fields
}

// userColumns はJSONフィールド名からカラム名への対応表。
var userColumns = map[string]string{
	"password":  "password_hash",
	"firstName": "first_name",
	"lastName":  "last_name",
}

// userWithJobs はユーザーと応募済み求人IDの一覧。
type userWithJobs struct {
	User
	// Jobs は応募済みの求人IDの一覧。
	Jobs []string `json:"jobs"`
}

// handleCreate はユーザー作成を処理するハンドラを返す。管理者ユーザーも作成できる。
func (h *Handler) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			h.log.Error().Err(err).Msg("パスワードのハッシュ化に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの作成に失敗しました"})
			return
		}

		u := User{
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			IsAdmin:   req.IsAdmin,
		}
		if err := h.store.Create(c.Request.Context(), u, hash); err != nil {
			if errors.Is(err, ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "同じユーザー名またはメールアドレスが既に存在します"})
				return
			}
			h.log.Error().Err(err).Str("username", req.Username).Msg("ユーザーの作成に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの作成に失敗しました"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"user": u})
	}
}

// handleList はユーザー一覧取得を処理するハンドラを返す。
func (h *Handler) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.store.List(c.Request.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("ユーザー一覧の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー一覧の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// handleGet はユーザー詳細取得を処理するハンドラを返す。
// レスポンスには応募済みの求人IDの一覧を含める。
func (h *Handler) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		u, err := h.store.Get(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
				return
			}
			h.log.Error().Err(err).Str("username", username).Msg("ユーザーの取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		jobIDs, err := h.store.Applications(c.Request.Context(), username)
		if err != nil {
			h.log.Error().Err(err).Str("username", username).Msg("応募一覧の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": userWithJobs{User: u, Jobs: jobIDs}})
	}
}

// handleUpdate はユーザーの部分更新を処理するハンドラを返す。
// パスワードが含まれる場合はハッシュ化してから保存する。
func (h *Handler) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}
		if req.Password != nil {
			hash, err := HashPassword(*req.Password)
			if err != nil {
				h.log.Error().Err(err).Msg("パスワードのハッシュ化に失敗")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの更新に失敗しました"})
				return
			}
			req.Password = &hash
		}

		setCols, args, err := sqlbuild.SetClause(req.fields(), userColumns)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "更新するフィールドがありません"})
			return
		}

		u, err := h.store.Update(c.Request.Context(), username, setCols, args)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			case errors.Is(err, ErrDuplicate):
				c.JSON(http.StatusConflict, gin.H{"error": "同じメールアドレスが既に存在します"})
			default:
				h.log.Error().Err(err).Str("username", username).Msg("ユーザーの更新に失敗")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの更新に失敗しました"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

// handleDelete はユーザー削除を処理するハンドラを返す。
func (h *Handler) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")

		if err := h.store.Delete(c.Request.Context(), username); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
				return
			}
			h.log.Error().Err(err).Str("username", username).Msg("ユーザーの削除に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの削除に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": username})
	}
}

// handleApply は求人への応募を処理するハンドラを返す。
func (h *Handler) handleApply() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		jobID := c.Param("id")

		if err := h.store.Apply(c.Request.Context(), username, jobID); err != nil {
			switch {
			case errors.Is(err, ErrJobNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "求人が見つかりません"})
			case errors.Is(err, ErrAlreadyApplied):
				c.JSON(http.StatusConflict, gin.H{"error": "既に応募済みです"})
			default:
				h.log.Error().Err(err).Str("username", username).Str("jobID", jobID).Msg("応募の登録に失敗")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "応募の登録に失敗しました"})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{"applied": jobID})
	}
}
