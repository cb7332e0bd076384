package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQLのSQLSTATEコード。
const (
	// codeUniqueViolation は一意制約違反。
	codeUniqueViolation = "23505"
	// codeForeignKeyViolation は外部キー制約違反。
	codeForeignKeyViolation = "23503"
)

// IsUniqueViolation はエラーが一意制約違反かどうかを判定する。
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation はエラーが外部キー制約違反かどうかを判定する。
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
