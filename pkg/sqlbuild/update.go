// Package sqlbuild は部分更新SQLの断片を生成するヘルパーを提供する。
//
// 生成される代入句のプレースホルダ番号とパラメータ列の位置は常に1対1で
// 対応する。リポジトリ層は生成結果を並び替えずそのまま
// パラメータ化クエリに埋め込むこと。
package sqlbuild

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFields は更新対象のフィールドが1つも指定されていない場合のエラー。
var ErrNoFields = errors.New("更新するフィールドが指定されていません")

// Field は更新対象の1フィールドを表す。
type Field struct {
	// Name はAPI上のフィールド名。
	Name string
	// Value は更新後の値。
	Value any
}

// SetClause はフィールド列からSET句の断片とパラメータ列を生成する。
//
// 各フィールドのカラム名はcolumnsで解決し、対応が無い場合は
// フィールド名をそのままカラム名として使用する。columnsに含まれる
// 未使用のエントリは単に無視する。断片は `"カラム名"=$k` の形式で、
// kはパラメータ列における1始まりの位置と一致する。
//
// fieldsが空の場合はErrNoFieldsを返し、不正なSET句は生成しない。
func SetClause(fields []Field, columns map[string]string) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, ErrNoFields
	}

	frags := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		col, ok := columns[f.Name]
		if !ok {
			col = f.Name
		}
		// 断片とパラメータは同じステップで追加し、番号のずれを防ぐ
		args = append(args, f.Value)
		frags = append(frags, fmt.Sprintf("%q=$%d", col, len(args)))
	}
	return strings.Join(frags, ", "), args, nil
}
