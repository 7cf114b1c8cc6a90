package store

import (
	"strings"

	"foodforall/internal/utils"

	sq "github.com/Masterminds/squirrel"
)

const (
	foodTableName    = "foodforall.foods"
	requestTableName = "foodforall.food_requests"
	userTableName    = "foodforall.users"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input literal inside a LIKE/ILIKE pattern.
func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}

// upsertSuffix reports whether the row was inserted (xmax is 0 for fresh tuples).
func upsertSuffix(conflict string, columns []string) string {
	return "ON CONFLICT (" + conflict + ") DO UPDATE SET " + utils.ExcludedAssignments(columns) + " RETURNING (xmax = 0) AS inserted"
}
