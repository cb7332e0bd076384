// Package database はPostgreSQLへの接続プールとスキーマ管理を提供する。
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nao1215/jobhub/internal/config"
)

// connectTimeout は起動時の疎通確認の待ち時間。
const connectTimeout = 10 * time.Second

// New は設定からPostgreSQL接続プールを生成し、疎通確認を行う。
// パスワードはURLエスケープしてDSNに埋め込む。
func New(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	hostPort := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		hostPort,
		cfg.Name,
		cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("接続プールの作成に失敗: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}
	return pool, nil
}
