package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nao1215/jobhub/internal/user"
	"github.com/nao1215/jobhub/pkg/middleware"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWT共有秘密鍵。
const testSecret = "test-secret-key-for-unit-tests"

// fakeStore はテスト用のuser.Store実装。認証で使うメソッドのみ動作する。
type fakeStore struct {
	users  map[string]user.User
	hashes map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]user.User),
		hashes: make(map[string]string),
	}
}

func (s *fakeStore) Create(_ context.Context, u user.User, passwordHash string) error {
	if _, ok := s.users[u.Username]; ok {
		return user.ErrDuplicate
	}
	s.users[u.Username] = u
	s.hashes[u.Username] = passwordHash
	return nil
}

func (s *fakeStore) List(_ context.Context) ([]user.User, error) { return nil, nil }

func (s *fakeStore) Get(_ context.Context, username string) (user.User, error) {
	u, ok := s.users[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) Credentials(_ context.Context, username string) (string, bool, error) {
	hash, ok := s.hashes[username]
	if !ok {
		return "", false, user.ErrNotFound
	}
	return hash, s.users[username].IsAdmin, nil
}

func (s *fakeStore) Update(_ context.Context, _ string, _ string, _ []any) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func (s *fakeStore) Delete(_ context.Context, _ string) error { return user.ErrNotFound }

func (s *fakeStore) Applications(_ context.Context, _ string) ([]string, error) { return nil, nil }

func (s *fakeStore) Apply(_ context.Context, _, _ string) error { return nil }

// setupTestRouter はテスト用のルーターとfakeStoreを構築する。
func setupTestRouter(t *testing.T) (*fakeStore, *gin.Engine) {
	t.Helper()

	store := newFakeStore()
	router := gin.New()
	NewHandler(store, testSecret, time.Hour, zerolog.Nop()).Register(router.Group("/auth"))
	return store, router
}

// doRequest はテスト用リクエストを実行するヘルパー。
func doRequest(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("リクエストボディのシリアライズに失敗: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseToken はレスポンスのトークンを検証してクレームを返す。
func parseToken(t *testing.T, w *httptest.ResponseRecorder) *middleware.Claims {
	t.Helper()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスボディのパースに失敗: %v", err)
	}
	if body.Token == "" {
		t.Fatal("トークンが空")
	}

	claims := &middleware.Claims{}
	_, err := jwt.ParseWithClaims(body.Token, claims, func(_ *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	if err != nil {
		t.Fatalf("トークンの検証に失敗: %v", err)
	}
	return claims
}

// TestHandleRegister はユーザーの自己登録を検証する。
func TestHandleRegister(t *testing.T) {
	t.Parallel()

	t.Run("登録に成功すると一般ユーザーのトークンが返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		w := doRequest(t, router, "/auth/register",
			gin.H{"username": "u1", "password": "secret1", "firstName": "Test",
				"lastName": "User", "email": "u1@example.com"})

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusCreated, w.Body.String())
		}

		claims := parseToken(t, w)
		if claims.Username != "u1" {
			t.Errorf("username = %q, want %q", claims.Username, "u1")
		}
		if claims.IsAdmin {
			t.Error("自己登録で管理者トークンが発行された")
		}
		if hash := store.hashes["u1"]; hash == "" || hash == "secret1" {
			t.Errorf("パスワードがハッシュ化されていない: %q", hash)
		}
	})

	t.Run("isAdminを送っても一般ユーザーとして登録されること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		w := doRequest(t, router, "/auth/register",
			gin.H{"username": "u1", "password": "secret1", "firstName": "Test",
				"lastName": "User", "email": "u1@example.com", "isAdmin": true})

		if w.Code != http.StatusCreated {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusCreated, w.Body.String())
		}
		if store.users["u1"].IsAdmin {
			t.Error("自己登録で管理者ユーザーが作成された")
		}
	})

	t.Run("ユーザー名が重複している場合は409が返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		store.users["u1"] = user.User{Username: "u1"}

		w := doRequest(t, router, "/auth/register",
			gin.H{"username": "u1", "password": "secret1", "firstName": "Test",
				"lastName": "User", "email": "u1@example.com"})

		if w.Code != http.StatusConflict {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusConflict)
		}
	})

	t.Run("パスワードが短すぎる場合は400が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, "/auth/register",
			gin.H{"username": "u1", "password": "abc", "firstName": "Test",
				"lastName": "User", "email": "u1@example.com"})

		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestHandleToken はログインを検証する。
func TestHandleToken(t *testing.T) {
	t.Parallel()

	// registerUser はfakeStoreへハッシュ済みのユーザーを登録する。
	registerUser := func(t *testing.T, store *fakeStore, username, password string, isAdmin bool) {
		t.Helper()
		hash, err := user.HashPassword(password)
		if err != nil {
			t.Fatalf("パスワードのハッシュ化に失敗: %v", err)
		}
		store.users[username] = user.User{Username: username, IsAdmin: isAdmin}
		store.hashes[username] = hash
	}

	t.Run("正しい認証情報でトークンが返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		registerUser(t, store, "u1", "secret1", false)

		w := doRequest(t, router, "/auth/token", gin.H{"username": "u1", "password": "secret1"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d (body=%s)", w.Code, http.StatusOK, w.Body.String())
		}

		claims := parseToken(t, w)
		if claims.Username != "u1" {
			t.Errorf("username = %q, want %q", claims.Username, "u1")
		}
	})

	t.Run("管理者には管理者フラグ付きトークンが返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		registerUser(t, store, "admin", "secret1", true)

		w := doRequest(t, router, "/auth/token", gin.H{"username": "admin", "password": "secret1"})
		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if claims := parseToken(t, w); !claims.IsAdmin {
			t.Error("管理者フラグがトークンに含まれていない")
		}
	})

	t.Run("パスワードが違う場合は401が返ること", func(t *testing.T) {
		t.Parallel()

		store, router := setupTestRouter(t)
		registerUser(t, store, "u1", "secret1", false)

		w := doRequest(t, router, "/auth/token", gin.H{"username": "u1", "password": "wrong"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("存在しないユーザーにも401が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, "/auth/token", gin.H{"username": "nope", "password": "secret1"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("必須フィールドが無い場合は400が返ること", func(t *testing.T) {
		t.Parallel()

		_, router := setupTestRouter(t)
		w := doRequest(t, router, "/auth/token", gin.H{"username": "u1"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}
