package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"entgo.io/ent/dialect/sql"
	"modernc.org/sqlite"
)

// foldFunc lower-cases with Go's Unicode tables. SQLite's built-in LOWER
// and LIKE only fold ASCII.
const foldFunc = "findash_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return strings.ToLower(fmt.Sprint(v)), nil
			}
		})
}

// containsFold matches col case-insensitively against substr, with LIKE
// wildcards in substr taken literally.
func containsFold(col, substr string) *sql.Predicate {
	return sql.P(func(b *sql.Builder) {
		b.WriteString(foldFunc + "(").Ident(col).WriteString(") LIKE ")
		b.Arg("%" + escapeLike(strings.ToLower(substr)) + "%")
		b.WriteString(` ESCAPE '\'`)
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
