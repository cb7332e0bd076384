package job

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/jobhub/pkg/middleware"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWT共有秘密鍵。
const testSecret = "test-secret-key-for-unit-tests"

// fakeStore はテスト用のStore実装。
// 受け取ったWHERE句・SET句・パラメータ列を記録する。
type fakeStore struct {
	// jobs はIDをキーとした求人のマップ。
	jobs map[string]Job
	// missingCompany がtrueの場合、Createは会社不在エラーを返す。
	missingCompany bool
	// lastWhere は最後にListへ渡されたWHERE句。
	lastWhere string
	// lastArgs は最後に渡されたパラメータ列。
	lastArgs []any
	// lastSetCols は最後にUpdateへ渡されたSET句。
	lastSetCols string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]Job)}
}

func (s *fakeStore) Create(_ context.Context, j Job) error {
	if s.missingCompany {
		return ErrCompanyNotFound
	}
	s.jobs[j.ID] = j
	return nil
}

func (s *fakeStore) List(_ context.Context, where string, args []any) ([]Job, error) {
	s.lastWhere = where
	s.lastArgs = args
	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

func (s *fakeStore) Update(_ context.Context, id string, setCols string, args []any) (Job, error) {
	s.lastSetCols = setCols
	s.lastArgs = args
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

// setupTestRouter はテスト用のルーターとfakeStoreを構築する。
func setupTestRouter(t *testing.T) (*fakeStore, *gin.Engine) {
	t.Helper()

	store := newFakeStore()
	router := gin.New()
	router.Use(middleware.Authenticate(testSecret))
	NewHandler(store, zerolog.Nop()).Register(router.Group("/api/v1/jobs"))
	return store, router
}

// adminToken は管理者用のテストトークンを生成する。
func adminToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.GenerateToken(testSecret, "admin", true, time.Hour)
	if err != nil {
		t.Fatalf("トークンの生成に失敗: %v", err)
	}
	return token
}

// doRequest はテスト用リクエストを実行するヘルパー。
func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("リクエストボディのシリアライズに失敗: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHandleList は求人一覧取得を検証する。
func TestHandleList(t *testing.T) {
	t.Parallel()

	t.Run("検索条件が無い場合は空のWHERE句がストアに渡ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodGet, "/api/v1/jobs", "", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if store.lastWhere != "" {
			t.Errorf("where = %q, want 空文字列", store.lastWhere)
		}
	})

	t.Run("検索条件がWHERE句とパラメータに変換されてストアに渡ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodGet,
			"/api/v1/jobs?title=engineer&minSalary=100000&hasEquity=true", "", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		want := "WHERE title ILIKE $1 AND salary >= $2 AND equity > 0"
		if store.lastWhere != want {
			t.Errorf("where = %q, want %q", store.lastWhere, want)
		}
		if len(store.lastArgs) != 2 {
			t.Errorf("len(args) = %d, want 2", len(store.lastArgs))
		}
	})

	t.Run("hasEquityがfalseの場合は持分条件が付かないこと", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodGet, "/api/v1/jobs?hasEquity=false", "", nil)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if store.lastWhere != "" {
			t.Errorf("where = %q, want 空文字列", store.lastWhere)
		}
	})

	t.Run("hasEquityが真偽値でない場合は400が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodGet, "/api/v1/jobs?hasEquity=maybe", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleGet は求人詳細取得を検証する。
func TestHandleGet(t *testing.T) {
	t.Parallel()

	t.Run("求人を取得できること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.jobs["job-1"] = Job{ID: "job-1", Title: "Engineer", CompanyHandle: "acme"}

		w := doRequest(t, router, http.MethodGet, "/api/v1/jobs/job-1", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		var body struct {
			Job Job `json:"job"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body.Job.Title != "Engineer" {
			t.Errorf("title = %q, want %q", body.Job.Title, "Engineer")
		}
	})

	t.Run("存在しない求人には404が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodGet, "/api/v1/jobs/nope", "", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleCreate は求人登録を検証する。
func TestHandleCreate(t *testing.T) {
	t.Parallel()

	t.Run("管理者は求人を登録できること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodPost, "/api/v1/jobs", adminToken(t),
			gin.H{"title": "Engineer", "salary": 100000, "equity": 0.1, "companyHandle": "acme"})

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusCreated, w.Body.String())
		}
		if len(store.jobs) != 1 {
			t.Errorf("登録された求人数 = %d, want 1", len(store.jobs))
		}
		for _, j := range store.jobs {
			if j.ID == "" {
				t.Error("求人IDが採番されていない")
			}
		}
	})

	t.Run("存在しない会社ハンドルには400が返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.missingCompany = true

		w := doRequest(t, router, http.MethodPost, "/api/v1/jobs", adminToken(t),
			gin.H{"title": "Engineer", "companyHandle": "nope"})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("持分比率が1を超える場合は400が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodPost, "/api/v1/jobs", adminToken(t),
			gin.H{"title": "Engineer", "equity": 1.5, "companyHandle": "acme"})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("匿名には401が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodPost, "/api/v1/jobs", "",
			gin.H{"title": "Engineer", "companyHandle": "acme"})

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

// TestHandleUpdate は求人の部分更新を検証する。
func TestHandleUpdate(t *testing.T) {
	t.Parallel()

	t.Run("指定フィールドのみのSET句がストアに渡ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.jobs["job-1"] = Job{ID: "job-1", Title: "Engineer", CompanyHandle: "acme"}

		w := doRequest(t, router, http.MethodPatch, "/api/v1/jobs/job-1", adminToken(t),
			gin.H{"title": "Senior Engineer", "salary": 150000})

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}
		want := `"title"=$1, "salary"=$2`
		if store.lastSetCols != want {
			t.Errorf("setCols = %q, want %q", store.lastSetCols, want)
		}
	})

	t.Run("空のリクエストボディには400が返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.jobs["job-1"] = Job{ID: "job-1", Title: "Engineer"}

		w := doRequest(t, router, http.MethodPatch, "/api/v1/jobs/job-1", adminToken(t), gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("存在しない求人には404が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, http.MethodPatch, "/api/v1/jobs/nope", adminToken(t),
			gin.H{"title": "Nope"})

		if w.Code != http.StatusNotFound {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestHandleDelete は求人削除を検証する。
func TestHandleDelete(t *testing.T) {
	t.Parallel()

	t.Run("管理者は求人を削除できること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.jobs["job-1"] = Job{ID: "job-1", Title: "Engineer"}

		w := doRequest(t, router, http.MethodDelete, "/api/v1/jobs/job-1", adminToken(t), nil)
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if len(store.jobs) != 0 {
			t.Error("求人がストアから削除されていない")
		}
	})

	t.Run("一般ユーザーには401が返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.jobs["job-1"] = Job{ID: "job-1", Title: "Engineer"}

		token, err := middleware.GenerateToken(testSecret, "u1", false, time.Hour)
		if err != nil {
			t.Fatalf("トークンの生成に失敗: %v", err)
		}

		w := doRequest(t, router, http.MethodDelete, "/api/v1/jobs/job-1", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}
