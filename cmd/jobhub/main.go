// 求人掲示板APIサーバーのエントリポイント。
// ユーザー・会社・求人のCRUDと、求人検索・応募を提供する。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/jobhub/internal/config"
	"github.com/nao1215/jobhub/internal/database"
	"github.com/nao1215/jobhub/internal/logger"
	"github.com/nao1215/jobhub/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jobhub: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	log := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("データベースへの接続に失敗: %w", err)
	}
	defer pool.Close()

	if err := database.InitSchema(ctx, pool); err != nil {
		return fmt.Errorf("スキーマの初期化に失敗: %w", err)
	}
	log.Info().Str("database", cfg.Database.Name).Msg("データベースの準備が完了")

	return server.New(cfg, pool, log).Run()
}
