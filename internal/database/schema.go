package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS users (
    -- ユーザー名（主キー）
    username TEXT PRIMARY KEY,
    -- パスワードのハッシュ値
    password_hash TEXT NOT NULL,
    -- 名
    first_name TEXT NOT NULL,
    -- 姓
    last_name TEXT NOT NULL,
    -- メールアドレス
    email TEXT NOT NULL UNIQUE,
    -- 管理者権限を持つかどうか
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    -- 作成日時
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS companies (
    -- 会社の一意なハンドル（主キー）
    handle TEXT PRIMARY KEY,
    -- 会社名
    name TEXT NOT NULL UNIQUE,
    -- 会社の説明
    description TEXT NOT NULL DEFAULT '',
    -- 従業員数
    num_employees INTEGER,
    -- ロゴ画像のURL
    logo_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS jobs (
    -- 求人の一意識別子
    id TEXT PRIMARY KEY,
    -- 求人タイトル
    title TEXT NOT NULL,
    -- 給与
    salary INTEGER,
    -- 持分比率（0〜1）
    equity NUMERIC(4,3) NOT NULL DEFAULT 0 CHECK (equity >= 0 AND equity <= 1),
    -- 募集している会社のハンドル
    company_handle TEXT NOT NULL REFERENCES companies(handle) ON DELETE CASCADE,
    -- 作成日時
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS applications (
    -- 応募したユーザー名
    username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    -- 応募先の求人ID
    job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    -- 応募日時
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (username, job_id)
);

-- 会社ハンドルでの求人検索を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_jobs_company_handle
    ON jobs(company_handle);

-- 求人IDからの応募者逆引きを高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_applications_job_id
    ON applications(job_id);
`

// InitSchema はPostgreSQLデータベースにスキーマを適用する。
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
