package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation  = "23505"
	sqliteUniquePrefix = "UNIQUE constraint failed: "
)

// IsUniqueViolation reports whether err is a unique constraint failure from
// Postgres (pgx or lib/pq) or SQLite. When constraintName is set the
// constraint must also match. SQLite reports columns instead of constraint
// names, so there the failed columns are compared against columns
// ("table.column"); with no columns given a named constraint never matches.
func IsUniqueViolation(err error, constraintName string, columns ...string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return constraintName == ""
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == pgUniqueViolation {
		return constraintName == "" || pgxErr.ConstraintName == constraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") {
		return constraintName == "" || strings.Contains(msg, `"`+constraintName+`"`)
	}
	failed, ok := sqliteUniqueColumns(msg)
	if !ok {
		return false
	}
	if constraintName == "" {
		return true
	}
	return sameColumns(failed, columns)
}

func sqliteUniqueColumns(msg string) ([]string, bool) {
	idx := strings.Index(msg, sqliteUniquePrefix)
	if idx < 0 {
		return nil, false
	}
	rest := msg[idx+len(sqliteUniquePrefix):]
	if end := strings.IndexAny(rest, "()\n"); end >= 0 {
		rest = rest[:end]
	}
	var cols []string
	for _, col := range strings.Split(rest, ",") {
		if col = strings.TrimSpace(col); col != "" {
			cols = append(cols, col)
		}
	}
	return cols, len(cols) > 0
}

func sameColumns(got, want []string) bool {
	if len(want) == 0 || len(got) != len(want) {
		return false
	}
	seen := make(map[string]int, len(want))
	for _, col := range want {
		seen[col]++
	}
	for _, col := range got {
		if seen[col] == 0 {
			return false
		}
		seen[col]--
	}
	return true
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
