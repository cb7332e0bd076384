package company

import (
	"fmt"
	"strings"
)

// SearchFilter は会社検索の絞り込み条件。
// すべての条件は省略可能で、nilの条件は句に含まれない。
type SearchFilter struct {
	// Name は会社名の部分一致条件（大文字小文字を区別しない）。
	Name *string
	// MinEmployees は従業員数の下限。
	MinEmployees *int
	// MaxEmployees は従業員数の上限。
	MaxEmployees *int
}

// Clause は条件からWHERE句とパラメータ列を生成する。
// 条件が1つもない場合は空文字列とnilを返す。
// プレースホルダ番号はパラメータ列における1始まりの位置と常に一致する。
//
// MinEmployeesとMaxEmployeesの大小関係の検証は呼び出し側の責務であり、
// Clauseは検証しない。
func (f SearchFilter) Clause() (string, []any) {
	var conds []string
	var args []any

	if f.Name != nil {
		args = append(args, "%"+*f.Name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.MinEmployees != nil {
		args = append(args, *f.MinEmployees)
		conds = append(conds, fmt.Sprintf("num_employees >= $%d", len(args)))
	}
	if f.MaxEmployees != nil {
		args = append(args, *f.MaxEmployees)
		conds = append(conds, fmt.Sprintf("num_employees <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
