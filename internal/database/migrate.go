package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"quizbook/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFS embed.FS

// Direction selects which migration files are applied
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// oracleIgnorable are errors meaning an up/down step was already applied:
// ORA-00955 name already used, ORA-00942 table does not exist.
var oracleIgnorable = []string{"ORA-00955", "ORA-00942"}

// RunMigrations applies every migration for the driver in the given direction.
// Already applied migrations are skipped.
func RunMigrations(db *sqlx.DB, driver string, dir Direction) error {
	switch {
	case IsSQLite(driver):
		m, err := newSQLiteMigrator(db, driver)
		if err != nil {
			return err
		}
		if dir == Down {
			err = m.Down()
		} else {
			err = m.Up()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not run %s migrations: %w", dir, err)
		}
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return fmt.Errorf("could not read migration version: %w", verr)
		}
		logger.Get().Info("migrations completed",
			zap.String("driver", driver),
			zap.String("direction", string(dir)),
			zap.Uint("version", version),
			zap.Bool("dirty", dirty))
		return nil
	case IsOracle(driver):
		return runOracleMigrations(db, dir)
	default:
		return fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func newSQLiteMigrator(db *sqlx.DB, driver string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations/sqlite")
	if err != nil {
		return nil, fmt.Errorf("could not open embedded migrations: %w", err)
	}

	var dbDriver migratedb.Driver
	if driver == "sqlite3" {
		dbDriver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	} else {
		dbDriver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, driver, dbDriver)
}

// runOracleMigrations executes each embedded statement in file order.
// Oracle has no IF [NOT] EXISTS, so "already applied" errors are skipped.
func runOracleMigrations(db *sqlx.DB, dir Direction) error {
	suffix := "." + string(dir) + ".sql"
	entries, err := fs.ReadDir(migrationFS, "migrations/oracle")
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if dir == Down {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, name := range files {
		content, err := fs.ReadFile(migrationFS, "migrations/oracle/"+name)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		for _, stmt := range SplitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				if isOracleIgnorable(err) {
					logger.Get().Warn("migration statement already applied",
						zap.String("file", name), zap.Error(err))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		logger.Get().Info("executed migration", zap.String("file", name))
	}

	logger.Get().Info("migrations completed", zap.String("direction", string(dir)))
	return nil
}

// SplitStatements splits a migration file on ";" and drops empty statements.
func SplitStatements(content string) []string {
	var out []string
	for _, part := range strings.Split(content, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func isOracleIgnorable(err error) bool {
	for _, code := range oracleIgnorable {
		if strings.Contains(err.Error(), code) {
			return true
		}
	}
	return false
}
