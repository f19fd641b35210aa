package sheets

import (
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// Columns of the mirror sheet, A through G.
var Header = []any{"ID", "User", "Date", "Type", "Category", "Description", "Amount"}

// LastColumn is the column letter of the final field.
const LastColumn = "G"

// FormatRow renders tx as a sheet row. Text cells that a spreadsheet would
// evaluate as formulas are quoted.
func FormatRow(userID string, tx core.Transaction) []any {
	return []any{
		tx.ID,
		userID,
		tx.Date.String(),
		string(tx.Type),
		string(tx.Category),
		quoteFormula(tx.Description),
		tx.Amount.String(),
	}
}

func quoteFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// FindRow returns the zero-based index of the row holding transaction id of
// userID, or -1. Rows are keyed by both columns A and B since ids are only
// unique per user.
func FindRow(values [][]any, userID, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, row := range values {
		if len(row) < 2 {
			continue
		}
		if cell(row[0]) == id && cell(row[1]) == userID {
			return i
		}
	}
	return -1
}

func cell(v any) string {
	return strings.TrimSpace(fmt.Sprint(v))
}

// RowRange is the A1 range covering one full row, 1-based.
func RowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, LastColumn, row)
}

// KeyColumnsRange is the A1 range of the id and user columns.
func KeyColumnsRange(sheet string) string {
	return quoteSheet(sheet) + "!A:B"
}

// TableRange spans every mirrored column.
func TableRange(sheet string) string {
	return quoteSheet(sheet) + "!A:" + LastColumn
}

// quoteSheet wraps names containing spaces or quotes as A1 notation requires.
func quoteSheet(name string) string {
	if !strings.ContainsAny(name, " '!") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
