// Package job は求人リソースのREST APIを提供する。
//
// 一覧取得と詳細取得は誰でも利用できるが、登録・更新・削除は
// 管理者のみに制限される。一覧取得は省略可能な検索条件
// （タイトルの部分一致・給与の下限・持分の有無）による絞り込みに対応する。
package job

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/jobhub/pkg/middleware"
	"github.com/nao1215/jobhub/pkg/sqlbuild"
	"github.com/rs/zerolog"
)

// Handler は求人APIのHTTPハンドラ群。
type Handler struct {
	// store は求人情報の永続化層。
	store Store
	// log はアプリケーションロガー。
	log zerolog.Logger
}

// NewHandler は新しいHandlerを生成する。
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Register は求人APIのルーティングをグループに登録する。
// 変更系のエンドポイントには管理者ガードを適用する。
func (h *Handler) Register(g *gin.RouterGroup) {
	// 求人一覧取得（検索条件付き）
	g.GET("", h.handleList())
	// 求人詳細取得
	g.GET("/:id", h.handleGet())
	// 求人登録
	g.POST("", middleware.Require(middleware.Admin), h.handleCreate())
	// 求人の部分更新
	g.PATCH("/:id", middleware.Require(middleware.Admin), h.handleUpdate())
	// 求人削除
	g.DELETE("/:id", middleware.Require(middleware.Admin), h.handleDelete())
}

// createJobRequest は求人登録リクエストのJSON構造。
type createJobRequest struct {
	// Title は求人タイトル。
	Title string `json:"title" binding:"required"`
	// Salary は給与。
	Salary *int `json:"salary" binding:"omitempty,gte=0"`
	// Equity は持分比率（0〜1）。
	Equity *float64 `json:"equity" binding:"omitempty,gte=0,lte=1"`
	// CompanyHandle は募集している会社のハンドル。
	CompanyHandle string `json:"companyHandle" binding:"required"`
}

// updateJobRequest は求人の部分更新リクエストのJSON構造。
// 指定されたフィールドのみ更新する。会社ハンドルは変更できない。
type updateJobRequest struct {
	// Title は求人タイトル。
	Title *string `json:"title"`
	// Salary は給与。
	Salary *int `json:"salary" binding:"omitempty,gte=0"`
	// Equity は持分比率（0〜1）。
	Equity *float64 `json:"equity" binding:"omitempty,gte=0,lte=1"`
}

// fields は設定済みのフィールドを宣言順で返す。
func (r updateJobRequest) fields() []sqlbuild.Field {
	var fields []sqlbuild.Field
	if r.Title != nil {
		fields = append(fields, sqlbuild.Field{Name: "title", Value: *r.Title})
	}
	if r.Salary != nil {
		fields = append(fields, sqlbuild.Field{Name: "salary", Value: *r.Salary})
	}
	if r.Equity != nil {
		fields = append(fields, sqlbuild.Field{Name: "equity", Value: *r.Equity})
	}
	return fields
}

// parseSearchFilter はクエリパラメータから検索条件を組み立てる。
func parseSearchFilter(c *gin.Context) (SearchFilter, error) {
	var filter SearchFilter
	if title := c.Query("title"); title != "" {
		filter.Title = &title
	}
	if v := c.Query("minSalary"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return SearchFilter{}, fmt.Errorf("minSalaryが数値ではありません: %w", err)
		}
		filter.MinSalary = &n
	}
	if v := c.Query("hasEquity"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return SearchFilter{}, fmt.Errorf("hasEquityが真偽値ではありません: %w", err)
		}
		filter.HasEquity = b
	}
	return filter, nil
}

// handleList は求人一覧取得を処理するハンドラを返す。
func (h *Handler) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseSearchFilter(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		where, args := filter.Clause()
		jobs, err := h.store.List(c.Request.Context(), where, args)
		if err != nil {
			h.log.Error().Err(err).Msg("求人一覧の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人一覧の取得に失敗しました"})
			return
		}

		if jobs == nil {
			jobs = []Job{}
		}
		c.JSON(http.StatusOK, gin.H{"jobs": jobs})
	}
}

// handleGet は求人詳細取得を処理するハンドラを返す。
func (h *Handler) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		j, err := h.store.Get(c.Request.Context(), id)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "求人が見つかりません"})
			return
		}
		if err != nil {
			h.log.Error().Err(err).Str("job_id", id).Msg("求人の取得に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人の取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"job": j})
	}
}

// handleCreate は求人登録を処理するハンドラを返す。
func (h *Handler) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		j := Job{
			ID:            uuid.New().String(),
			Title:         req.Title,
			Salary:        req.Salary,
			CompanyHandle: req.CompanyHandle,
		}
		if req.Equity != nil {
			j.Equity = *req.Equity
		}

		if err := h.store.Create(c.Request.Context(), j); err != nil {
			if errors.Is(err, ErrCompanyNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "指定された会社が存在しません"})
				return
			}
			h.log.Error().Err(err).Str("company_handle", req.CompanyHandle).Msg("求人の登録に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人の登録に失敗しました"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"job": j})
	}
}

// handleUpdate は求人の部分更新を処理するハンドラを返す。
func (h *Handler) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		setCols, args, err := sqlbuild.SetClause(req.fields(), nil)
		if errors.Is(err, sqlbuild.ErrNoFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "更新するフィールドがありません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := c.Param("id")
		updated, err := h.store.Update(c.Request.Context(), id, setCols, args)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "求人が見つかりません"})
			return
		}
		if err != nil {
			h.log.Error().Err(err).Str("job_id", id).Msg("求人の更新に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人の更新に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"job": updated})
	}
}

// handleDelete は求人削除を処理するハンドラを返す。
func (h *Handler) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := h.store.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "求人が見つかりません"})
				return
			}
			h.log.Error().Err(err).Str("job_id", id).Msg("求人の削除に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "求人の削除に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}
