package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nao1215/jobhub/internal/database"
)

// ErrNotFound は指定されたユーザーが存在しない場合のエラー。
var ErrNotFound = errors.New("ユーザーが見つかりません")

// ErrDuplicate はユーザー名またはメールアドレスが既に使用されている場合のエラー。
var ErrDuplicate = errors.New("同じユーザー名またはメールアドレスが既に存在します")

// ErrJobNotFound は応募先の求人が存在しない場合のエラー。
var ErrJobNotFound = errors.New("求人が見つかりません")

// ErrAlreadyApplied は同じ求人に既に応募している場合のエラー。
var ErrAlreadyApplied = errors.New("既に応募済みです")

// User はユーザーを表す。パスワードハッシュはレスポンスに含めない。
type User struct {
	// Username はユーザー名。
	Username string `json:"username"`
	// FirstName は名。
	FirstName string `json:"firstName"`
	// LastName は姓。
	LastName string `json:"lastName"`
	// Email はメールアドレス。
	Email string `json:"email"`
	// IsAdmin は管理者権限を持つかどうか。
	IsAdmin bool `json:"isAdmin"`
}

// Store はユーザー情報の永続化層。
// 部分更新はフラグメントビルダーが生成した断片を受け取り、
// 番号を振り直さずそのままクエリに埋め込む。
type Store interface {
	// Create はユーザーを新規登録する。重複時はErrDuplicateを返す。
	Create(ctx context.Context, u User, passwordHash string) error
	// List はユーザー一覧を返す。
	List(ctx context.Context) ([]User, error)
	// Get はユーザー名でユーザーを取得する。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, username string) (User, error)
	// Credentials はユーザーのパスワードハッシュと管理者フラグを返す。
	// 存在しない場合はErrNotFoundを返す。
	Credentials(ctx context.Context, username string) (string, bool, error)
	// Update はSET句とパラメータ列でユーザーを部分更新し、更新後のユーザーを返す。
	// 存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, username string, setCols string, args []any) (User, error)
	// Delete はユーザーを削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, username string) error
	// Applications はユーザーが応募した求人IDの一覧を返す。
	Applications(ctx context.Context, username string) ([]string, error)
	// Apply はユーザーを求人に応募させる。
	// 求人が存在しない場合はErrJobNotFound、重複時はErrAlreadyAppliedを返す。
	Apply(ctx context.Context, username, jobID string) error
}

// PgStore はPostgreSQLを使用したStoreの実装。
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore は新しいPgStoreを生成する。
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create はユーザーを新規登録する。
func (s *PgStore) Create(ctx context.Context, u User, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, password_hash, first_name, last_name, email, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.Username, passwordHash, u.FirstName, u.LastName, u.Email, u.IsAdmin,
	)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("ユーザーの登録に失敗: %w", err)
	}
	return nil
}

// List はユーザー一覧をユーザー名順で返す。
func (s *PgStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, first_name, last_name, email, is_admin FROM users ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Get はユーザー名でユーザーを取得する。
func (s *PgStore) Get(ctx context.Context, username string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT username, first_name, last_name, email, is_admin FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return u, nil
}

// Credentials はユーザーのパスワードハッシュと管理者フラグを返す。
func (s *PgStore) Credentials(ctx context.Context, username string) (string, bool, error) {
	var hash string
	var isAdmin bool
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash, is_admin FROM users WHERE username = $1`,
		username,
	).Scan(&hash, &isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, fmt.Errorf("認証情報の取得に失敗: %w", err)
	}
	return hash, isAdmin, nil
}

// Update はSET句でユーザーを部分更新する。
// 生成済みのプレースホルダ番号に続く位置にユーザー名を追加する。
func (s *PgStore) Update(ctx context.Context, username string, setCols string, args []any) (User, error) {
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE username = $%d
		 RETURNING username, first_name, last_name, email, is_admin`,
		setCols, len(args)+1,
	)
	args = append(args, username)

	var u User
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if database.IsUniqueViolation(err) {
		return User{}, ErrDuplicate
	}
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの更新に失敗: %w", err)
	}
	return u, nil
}

// Delete はユーザーを削除する。
func (s *PgStore) Delete(ctx context.Context, username string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Applications はユーザーが応募した求人IDの一覧を返す。
func (s *PgStore) Applications(ctx context.Context, username string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id FROM applications WHERE username = $1 ORDER BY applied_at`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	var jobIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("応募行の読み取りに失敗: %w", err)
		}
		jobIDs = append(jobIDs, id)
	}
	return jobIDs, rows.Err()
}

// Apply はユーザーを求人に応募させる。
func (s *PgStore) Apply(ctx context.Context, username, jobID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applications (username, job_id) VALUES ($1, $2)`,
		username, jobID,
	)
	if database.IsForeignKeyViolation(err) {
		return ErrJobNotFound
	}
	if database.IsUniqueViolation(err) {
		return ErrAlreadyApplied
	}
	if err != nil {
		return fmt.Errorf("応募の登録に失敗: %w", err)
	}
	return nil
}
