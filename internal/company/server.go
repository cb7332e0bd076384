// Package company は会社リソースのREST APIを提供する。
//
// 一覧取得と詳細取得は誰でも利用できるが、登録・更新・削除は
// 管理者のみに制限される。一覧取得は省略可能な検索条件
// （名前の部分一致・従業員数の範囲）による絞り込みに対応する。
package company

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/jobhub/pkg/middleware"
	"github.com/nao1215/jobhub/pkg/sqlbuild"
	"github.com/rs/zerolog"
)

// Handler は会社APIのHTTPハンドラ群。
type Handler struct {
	// store は会社情報の永続化層。
	store Store
	// log はアプリケーションロガー。
	log zerolog.Logger
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Register は会社APIのルーティングをグループに登録する。
// 変更系のエンドポイントには管理者ガードを適用する。
func (h *Handler) Register(g *gin.RouterGroup) {
	// 会社一覧取得（検索条件付き）
	g.GET("", h.handleList())
	// 会社詳細取得（求人一覧を含む）
	g.GET("/:handle", h.handleGet())
	// 会社登録
	g.POST("", middleware.Require(middleware.Admin), h.handleCreate())
	// 会社の部分更新
	g.PATCH("/:handle", middleware.Require(middleware.Admin), h.handleUpdate())
	// 会社削除
	g.DELETE("/:handle", middleware.Require(middleware.Admin), h.handleDelete())
}

// createCompanyRequest は会社登録リクエストのJSON構造。
type createCompanyRequest struct {
	// Handle は会社の一意なハンドル。
	Handle string `json:"handle" binding:"required"`
	// Name は会社名。
	Name string `json:"name" binding:"required"`
	// Description は会社の説明。
	Description string `json:"description"`
	// NumEmployees は従業員数。
	NumEmployees *int `json:"numEmployees" binding:"omitempty,gte=0"`
	// LogoURL はロゴ画像のURL。
	LogoURL string `json:"logoUrl"`
}

// updateCompanyRequest は会社の部分更新リクエストのJSON構造。
// 指定されたフィールドのみ更新する。
type updateCompanyRequest struct {
	// Name は会社名。
	Name *string `json:"name"`
	// Description は会社の説明。
	Description *string `json:"description"`
	// NumEmployees は従業員数。
	NumEmployees *int `json:"numEmployees" binding:"omitempty,gte=0"`
	// LogoURL はロゴ画像のURL。
	LogoURL *string `json:"logoUrl"`
}

// fields は設定済みのフィールドを宣言順で返す。
func (r updateCompanyRequest) fields() []sqlbuild.Field {
	var fields []sqlbuild.Field
	if r.Name != nil {
		fields = append(fields, sqlbuild.Field{Name: "name", Value: *r.Name})
	}
	if r.Description != nil {
		fields = append(fields, sqlbuild.Field{Name: "description", Value: *r.Description})
	}
	if r.NumEmployees != nil {
		fields = append(fields, sqlbuild.Field{Name: "numEmployees", Value: *r.NumEmployees})
	}
	if r.LogoURL != nil {
		fields = append(fields, sqlbuild.Field{Name: "logoUrl", Value: *r.LogoURL})
	}
	return fields
}

// companyColumns はAPI上のフィールド名からカラム名へのマッピング。
// ここに無いフィールドはフィールド名がそのままカラム名になる。
var companyColumns = map[string]string{
	"numEmployees": "num_employees",
	"logoUrl":      "logo_url",
}

// companyDetail は会社詳細レスポンスのJSON構造。
type companyDetail struct {
	Company
	// Jobs は会社の求人一覧。
	Jobs []Job `json:"jobs"`
}

// parseSearchFilter はクエリパラメータから検索条件を組み立てる。
func parseSearchFilter(c *gin.Context) (SearchFilter, error) {
	var filter SearchFilter
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}
	if v := c.Query("minEmployees"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return SearchFilter{}, fmt.Errorf("minEmployeesが数値ではありません: %w", err)
		}
		filter.MinEmployees = &n
	}
	if v := c.Query("maxEmployees"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return SearchFilter{}, fmt.Errorf("maxEmployeesが数値ではありません: %w", err)
		}
		filter.MaxEmployees = &n
	}
	return filter, nil
}

// handleList は会社一覧取得を処理するハンドラを返す。
// 検索条件はWHERE句に変換してからストアに渡す。
func (h *Handler) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseSearchFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// 範囲の逆転はビルダーを呼び出す前に検証する
		if filter.MinEmployees != nil && filter.MaxEmployees != nil &&
			*filter.MinEmployees > *filter.MaxEmployees {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "minEmployeesはmaxEmployees以下である必要があります",
			})
			return
		}

		where, args := filter.Clause()
		companies, err := h.store.List(c.Request.Context(), where, args)
		if err != nil {
			h.log.Error().Err(err).Msg("会社一覧の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会社一覧の取得に失敗しました"})
			return
		}

		if companies == nil {
			companies = []Company{}
		}
		c.JSON(http.StatusOK, gin.H{"companies": companies})
	}
}

// handleGet は会社詳細取得を処理するハンドラを返す。
// 会社に紐づく求人の一覧も含めて返す。
func (h *Handler) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := c.Param("handle")

		comp, err := h.store.Get(c.Request.Context(), handle)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "会社が見つかりません"})
			return
		}
		if err != nil {
			h.log.Error().Err(err).Str("handle", handle).Msg("会社の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会社の取得に失敗しました"})
			return
		}

		jobs, err := h.store.Jobs(c.Request.Context(), handle)
		if err != nil {
			h.log.Error().Err(err).Str("handle", handle).Msg("会社の求人一覧の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会社の取得に失敗しました"})
			return
		}
		if jobs == nil {
			jobs = []Job{}
		}

		c.JSON(http.StatusOK, gin.H{"company": companyDetail{Company: comp, Jobs: jobs}})
	}
}

// handleCreate は会社登録を処理するハンドラを返す。
func (h *Handler) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCompanyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		comp := Company{
			Handle:       req.Handle,
			Name:         req.Name,
			Description:  req.Description,
			NumEmployees: req.NumEmployees,
			LogoURL:      req.LogoURL,
		}
		if err := h.store.Create(c.Request.Context(), comp); err != nil {
			if errors.Is(err, ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "同じハンドルまたは会社名が既に存在します"})
				return
			}
			h.log.Error().Err(err).Str("handle", req.Handle).Msg("会社の登録に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会社の登録に失敗しました"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"company": comp})
	}
}

// handleUpdate は会社の部分更新を処理するハンドラを返す。
// リクエストに含まれるフィールドのみSET句に変換して更新する。
func (h *Handler) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCompanyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		setCols, args, err := sqlbuild.SetClause(req.fields(), companyColumns)
		if errors.Is(err, sqlbuild.ErrNoFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "更新するフィールドがありません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		handle := c.Param("handle")
		updated, err := h.store.Update(c.Request.Context(), handle, setCols, args)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "会社が見つかりません"})
			return
		}
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "同じ会社名が既に存在します"})
			return
		}
		if err != nil {
			h.log.Error().Err(err).Str("handle", handle).Msg("会社の更新に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会社の更新に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"company": updated})
	}
}

// handleDelete は会社削除を処理するハンドラを返す。
func (h *Handler) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		handle := c.Param("handle")

		if err := h.store.Delete(c.Request.Context(), handle); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "会社が見つかりません"})
				return
			}
			h.log.Error().Err(err).Str("handle", handle).Msg("会社の削除に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会社の削除に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": handle})
	}
}
