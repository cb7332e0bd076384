// Package logger はzerologベースのアプリケーションロガーを構築する。
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New は実行環境名に応じたロガーを生成する。
// local環境では人間が読みやすいコンソール形式、それ以外ではJSON形式で出力する。
func New(env string) zerolog.Logger {
	if env == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", "jobhub").
		Logger()
}
