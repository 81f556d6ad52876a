package table

import (
	"strings"
	"unicode"
)

// NormalizeName folds a source column name to the shared convention:
// lower-case, runs of whitespace and dashes collapsed to a single underscore.
// Dots from flattened JSON and unit annotations like "(kcal)" survive, so
// "Calories (kcal)" becomes "calories_(kcal)" and "creator.email" is unchanged.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsSpace(r) || r == '-' {
			pendingSep = true
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NormalizeColumnNames renames every column to its normalized form, in place.
// Every reader applies this before returning.
func (t *Table) NormalizeColumnNames() {
	for _, col := range t.Columns() {
		if norm := NormalizeName(col); norm != col {
			t.RenameColumn(col, norm)
		}
	}
}
