package database

import (
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "github.com/sijms/go-ora/v2"  // registers "oracle"
	_ "modernc.org/sqlite"          // registers "sqlite"
)

func init() {
	// sqlx does not know these driver names; without this Rebind leaves "?" untouched.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlx.BindDriver("oracle", sqlx.NAMED)
}

// IsSQLite reports whether driver is one of the embedded sqlite drivers.
func IsSQLite(driver string) bool {
	return driver == "sqlite" || driver == "sqlite3"
}

// IsOracle reports whether driver talks to Oracle.
func IsOracle(driver string) bool {
	return driver == "oracle" || driver == "godror"
}
