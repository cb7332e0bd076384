package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nao1215/jobhub/internal/database"
)

// ErrNotFound は指定された会社が存在しない場合のエラー。
var ErrNotFound = errors.New("会社が見つかりません")

// ErrDuplicate はハンドルまたは会社名が既に使用されている場合のエラー。
var ErrDuplicate = errors.New("同じハンドルまたは会社名が既に存在します")

// Company は会社を表す。
type Company struct {
	// Handle は会社の一意なハンドル。
	Handle string `json:"handle"`
	// Name は会社名。
	Name string `json:"name"`
	// Description は会社の説明。
	Description string `json:"description"`
	// NumEmployees は従業員数。未登録の場合はnull。
	NumEmployees *int `json:"numEmployees"`
	// LogoURL はロゴ画像のURL。
	LogoURL string `json:"logoUrl"`
}

// Job は会社詳細に含める求人の概要。
type Job struct {
	// ID は求人の一意識別子。
	ID string `json:"id"`
	// Title は求人タイトル。
	Title string `json:"title"`
	// Salary は給与。未登録の場合はnull。
	Salary *int `json:"salary"`
	// Equity は持分比率。
	Equity float64 `json:"equity"`
}

// Store は会社情報の永続化層。
// 検索と更新はフィルタビルダー・フラグメントビルダーが生成した断片を
// 受け取り、番号を振り直さずそのままクエリに埋め込む。
type Store interface {
	// Create は会社を新規登録する。重複時はErrDuplicateを返す。
	Create(ctx context.Context, c Company) error
	// List はWHERE句とパラメータ列で絞り込んだ会社一覧を返す。
	List(ctx context.Context, where string, args []any) ([]Company, error)
	// Get はハンドルで会社を取得する。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, handle string) (Company, error)
	// Jobs は会社の求人一覧を返す。
	Jobs(ctx context.Context, handle string) ([]Job, error)
	// Update はSET句とパラメータ列で会社を部分更新し、更新後の会社を返す。
	// 存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, handle string, setCols string, args []any) (Company, error)
	// Delete は会社を削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, handle string) error
}

// PgStore はPostgreSQLを使用したStoreの実装。
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore は新しいPgStoreを生成する。
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create は会社を新規登録する。
func (s *PgStore) Create(ctx context.Context, c Company) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (handle, name, description, num_employees, logo_url)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.Handle, c.Name, c.Description, c.NumEmployees, c.LogoURL,
	)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("会社の登録に失敗: %w", err)
	}
	return nil
}

// List はWHERE句で絞り込んだ会社一覧を会社名順で返す。
func (s *PgStore) List(ctx context.Context, where string, args []any) ([]Company, error) {
	query := fmt.Sprintf(
		`SELECT handle, name, description, num_employees, logo_url FROM companies %s ORDER BY name`,
		where,
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("会社一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.Handle, &c.Name, &c.Description, &c.NumEmployees, &c.LogoURL); err != nil {
			return nil, fmt.Errorf("会社行の読み取りに失敗: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Get はハンドルで会社を取得する。
func (s *PgStore) Get(ctx context.Context, handle string) (Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx,
		`SELECT handle, name, description, num_employees, logo_url FROM companies WHERE handle = $1`,
		handle,
	).Scan(&c.Handle, &c.Name, &c.Description, &c.NumEmployees, &c.LogoURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	if err != nil {
		return Company{}, fmt.Errorf("会社の取得に失敗: %w", err)
	}
	return c, nil
}

// Jobs は会社の求人一覧を返す。
func (s *PgStore) Jobs(ctx context.Context, handle string) ([]Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, salary, equity FROM jobs WHERE company_handle = $1 ORDER BY title`,
		handle,
	)
	if err != nil {
		return nil, fmt.Errorf("会社の求人一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Salary, &j.Equity); err != nil {
			return nil, fmt.Errorf("求人行の読み取りに失敗: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Update はSET句で会社を部分更新する。
// 生成済みのプレースホルダ番号に続く位置にハンドルを追加する。
func (s *PgStore) Update(ctx context.Context, handle string, setCols string, args []any) (Company, error) {
	query := fmt.Sprintf(
		`UPDATE companies SET %s WHERE handle = $%d
		 RETURNING handle, name, description, num_employees, logo_url`,
		setCols, len(args)+1,
	)
	args = append(args, handle)

	var c Company
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&c.Handle, &c.Name, &c.Description, &c.NumEmployees, &c.LogoURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrNotFound
	}
	if database.IsUniqueViolation(err) {
		return Company{}, ErrDuplicate
	}
	if err != nil {
		return Company{}, fmt.Errorf("会社の更新に失敗: %w", err)
	}
	return c, nil
}

// Delete は会社を削除する。
func (s *PgStore) Delete(ctx context.Context, handle string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE handle = $1`, handle)
	if err != nil {
		return fmt.Errorf("会社の削除に失敗: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
