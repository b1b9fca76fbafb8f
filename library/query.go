package library

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// likeEscaper makes the LIKE wildcards in a keyword match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchColumns are the columns a keyword is matched against. The year is
// compared in its text form.
var searchColumns = []exp.Expression{
	goqu.C(colID),
	goqu.C(colName),
	goqu.C(colAuthor),
	goqu.C(colGenre),
	goqu.Cast(goqu.C(colYearPublished), "TEXT"),
}

// isAvailable matches rows that can be lent. A NULL status counts as
// available, the same way rows are read back.
func isAvailable() exp.BooleanExpression {
	return goqu.COALESCE(goqu.C(colStatus), string(StatusAvailable)).Eq(string(StatusAvailable))
}

// keywordFilter builds a case-insensitive substring match of keyword over the
// search columns. Only an empty keyword yields no condition; whitespace is
// part of the substring.
func keywordFilter(keyword string) []exp.Expression {
	if keyword == "" {
		return []exp.Expression{}
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"
	matches := make([]exp.Expression, 0, len(searchColumns))
	for _, col := range searchColumns {
		matches = append(matches, goqu.L(`LOWER(?) LIKE ? ESCAPE '\'`, col, pattern))
	}
	return []exp.Expression{goqu.Or(matches...)}
}
