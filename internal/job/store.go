package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nao1215/jobhub/internal/database"
)

// ErrNotFound は指定された求人が存在しない場合のエラー。
var ErrNotFound = errors.New("求人が見つかりません")

// ErrCompanyNotFound は指定された会社ハンドルが存在しない場合のエラー。
var ErrCompanyNotFound = errors.New("指定された会社が存在しません")

// Job は求人を表す。
type Job struct {
	// ID は求人の一意識別子。
	ID string `json:"id"`
	// Title は求人タイトル。
	Title string `json:"title"`
	// Salary は給与。未登録の場合はnull。
	Salary *int `json:"salary"`
	// Equity は持分比率（0〜1）。
	Equity float64 `json:"equity"`
	// CompanyHandle は募集している会社のハンドル。
	CompanyHandle string `json:"companyHandle"`
}

// Store は求人情報の永続化層。
// 検索と更新はビルダーが生成した断片を受け取り、
// 番号を振り直さずそのままクエリに埋め込む。
type Store interface {
	// Create は求人を新規登録する。会社が存在しない場合はErrCompanyNotFoundを返す。
	Create(ctx context.Context, j Job) error
	// List はWHERE句とパラメータ列で絞り込んだ求人一覧を返す。
	List(ctx context.Context, where string, args []any) ([]Job, error)
	// Get はIDで求人を取得する。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, id string) (Job, error)
	// Update はSET句とパラメータ列で求人を部分更新し、更新後の求人を返す。
	// 存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, id string, setCols string, args []any) (Job, error)
	// Delete は求人を削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// PgStore はPostgreSQLを使用したStoreの実装。
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore は新しいPgStoreを生成する。
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Create は求人を新規登録する。
func (s *PgStore) Create(ctx context.Context, j Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, salary, equity, company_handle)
		 VALUES ($1, $2, $3, $4, $5)`,
		j.ID, j.Title, j.Salary, j.Equity, j.CompanyHandle,
	)
	if database.IsForeignKeyViolation(err) {
		return ErrCompanyNotFound
	}
	if err != nil {
		return fmt.Errorf("求人の登録に失敗: %w", err)
	}
	return nil
}

// List はWHERE句で絞り込んだ求人一覧をタイトル順で返す。
func (s *PgStore) List(ctx context.Context, where string, args []any) ([]Job, error) {
	query := fmt.Sprintf(
		`SELECT id, title, salary, equity, company_handle FROM jobs %s ORDER BY title`,
		where,
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Salary, &j.Equity, &j.CompanyHandle); err != nil {
			return nil, fmt.Errorf("求人行の読み取りに失敗: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Get はIDで求人を取得する。
func (s *PgStore) Get(ctx context.Context, id string) (Job, error) {
	var j Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, salary, equity, company_handle FROM jobs WHERE id = $1`,
		id,
	).Scan(&j.ID, &j.Title, &j.Salary, &j.Equity, &j.CompanyHandle)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("求人の取得に失敗: %w", err)
	}
	return j, nil
}

// Update はSET句で求人を部分更新する。
// 生成済みのプレースホルダ番号に続く位置にIDを追加する。
func (s *PgStore) Update(ctx context.Context, id string, setCols string, args []any) (Job, error) {
	query := fmt.Sprintf(
		`UPDATE jobs SET %s WHERE id = $%d
		 RETURNING id, title, salary, equity, company_handle`,
		setCols, len(args)+1,
	)
	args = append(args, id)

	var j Job
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&j.ID, &j.Title, &j.Salary, &j.Equity, &j.CompanyHandle)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("求人の更新に失敗: %w", err)
	}
	return j, nil
}

// Delete は求人を削除する。
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("求人の削除に失敗: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
