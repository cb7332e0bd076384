// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 署名付きトークンの検証とIdentityの解決、ルートごとのアクセスガード、
// リクエストログ、パニックリカバリ、CORS設定を含む。
//
// トークン検証（Authenticate）は常に実行されるがリクエストを中断しない。
// 検証に失敗したリクエストは匿名として扱われ、拒否の判断は
// ルートに宣言されたガード（Require）のみが行う。
package middleware
