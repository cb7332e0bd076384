package job

import (
	"fmt"
	"strings"
)

// SearchFilter は求人検索の絞り込み条件。
// すべての条件は省略可能で、未指定の条件は句に含まれない。
type SearchFilter struct {
	// Title は求人タイトルの部分一致条件（大文字小文字を区別しない）。
	Title *string
	// MinSalary は給与の下限。
	MinSalary *int
	// HasEquity がtrueの場合は持分比率が0より大きい求人のみ対象とする。
	// falseの場合は条件を追加せず、持分比率ゼロの求人も対象に残る。
	HasEquity bool
}

// Clause は条件からWHERE句とパラメータ列を生成する。
// 条件が1つもない場合は空文字列とnilを返す。
// HasEquityはパラメータを消費しないリテラル条件のため、
// 後続のプレースホルダ番号に影響しない。
func (f SearchFilter) Clause() (string, []any) {
	var conds []string
	var args []any

	if f.Title != nil {
		args = append(args, "%"+*f.Title+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.MinSalary != nil {
		args = append(args, *f.MinSalary)
		conds = append(conds, fmt.Sprintf("salary >= $%d", len(args)))
	}
	if f.HasEquity {
		conds = append(conds, "equity > 0")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
