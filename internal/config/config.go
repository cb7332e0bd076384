// Package config は環境変数からアプリケーション設定を読み込む。
//
// JOBHUB_ プレフィックス付きの環境変数をkoanfで構造体にマッピングし、
// 必須項目を検証する。.envファイルが存在する場合はgodotenvが
// プロセス起動時に自動で読み込む。
//
// JWT署名用の秘密鍵は起動時に一度だけ読み込まれ、プロセスの生存期間中は
// 読み取り専用として各コンポーネントへ明示的に渡される。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config はアプリケーション全体の設定。
type Config struct {
	// Env は実行環境名（local, production等）。
	Env string `koanf:"env"`
	// Server はHTTPサーバーの設定。
	Server Server `koanf:"server"`
	// Database はPostgreSQLの接続設定。
	Database Database `koanf:"database"`
	// Auth は認証関連の設定。
	Auth Auth `koanf:"auth"`
}

// Server はHTTPサーバーの設定。
type Server struct {
	// Port はリッスンポート。
	Port string `koanf:"port"`
	// CORSOrigins はCORSで許可するオリジンのカンマ区切りリスト。
	CORSOrigins string `koanf:"cors_origins"`
}

// AllowedOrigins はCORSで許可するオリジンの一覧を返す。
func (s Server) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Database はPostgreSQLの接続設定。
type Database struct {
	// Host は接続先ホスト名。
	Host string `koanf:"host" validate:"required"`
	// Port は接続先ポート番号。
	Port int `koanf:"port" validate:"required"`
	// User は接続ユーザー名。
	User string `koanf:"user" validate:"required"`
	// Password は接続パスワード。
	Password string `koanf:"password"`
	// Name はデータベース名。
	Name string `koanf:"name" validate:"required"`
	// SSLMode はSSL接続モード（disable, require等）。
	SSLMode string `koanf:"sslmode"`
}

// Auth は認証関連の設定。
type Auth struct {
	// Secret はJWT署名用の共有秘密鍵。
	Secret string `koanf:"secret" validate:"required"`
	// TokenTTLHours はトークンの有効期間（時間単位）。
	TokenTTLHours int `koanf:"token_ttl_hours"`
}

// TokenTTL はトークンの有効期間を返す。
func (a Auth) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// Load は環境変数から設定を読み込んで検証する。
// 環境変数名は最初のアンダースコアを区切りとして構造体にネストされる
// （例: JOBHUB_DATABASE_HOST → database.host → Config.Database.Host）。
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("JOBHUB_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "JOBHUB_"))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}

	cfg := &Config{
		Env: "local",
		Server: Server{
			Port:        "8080",
			CORSOrigins: "http://localhost:3000",
		},
		Database: Database{
			SSLMode: "disable",
		},
		Auth: Auth{
			TokenTTLHours: 24,
		},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("設定のデコードに失敗: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return cfg, nil
}
