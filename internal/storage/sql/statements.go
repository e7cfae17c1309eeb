package sql

import (
	"fmt"
	"regexp"
	"strings"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkTableName(tableName string) error {
	if !tableNamePattern.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q", tableName)
	}
	return nil
}

// placeholders returns the n bind parameters in the syntax of the driver
func placeholders(driver string, n int) []string {
	result := make([]string, n)
	for i := range result {
		if driver == POSTGRES_DRIVER {
			result[i] = fmt.Sprintf("$%d", i+1)
		} else {
			result[i] = "?"
		}
	}
	return result
}

func schemasForDriver(driver string, tableName string) (string, error) {
	switch driver {
	case SQLITE_DRIVER:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
    id            TEXT PRIMARY KEY,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL,
    evaluation_id TEXT,
    status        TEXT,
    outcome       TEXT NOT NULL,
    entity        TEXT NOT NULL
);`, nil
	case POSTGRES_DRIVER:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
    id            VARCHAR(64) PRIMARY KEY,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL,
    evaluation_id VARCHAR(255),
    status        VARCHAR(32),
    outcome       VARCHAR(32) NOT NULL,
    entity        JSONB NOT NULL
);`, nil
	default:
		return "", getUnsupportedDriverError(driver)
	}
}

// createUpsertRunStatement the order of arguments is:
// id created_at updated_at evaluation_id status outcome entity
func createUpsertRunStatement(driver string, tableName string) (string, error) {
	if _, err := schemasForDriver(driver, tableName); err != nil {
		return "", err
	}
	p := placeholders(driver, 7)
	return `INSERT INTO ` + tableName + ` (id, created_at, updated_at, evaluation_id, status, outcome, entity)
VALUES (` + strings.Join(p, ", ") + `)
ON CONFLICT (id) DO UPDATE SET
    updated_at = excluded.updated_at,
    evaluation_id = excluded.evaluation_id,
    status = excluded.status,
    outcome = excluded.outcome,
    entity = excluded.entity;`, nil
}

// createGetRunStatement the order of arguments is:
// id
func createGetRunStatement(driver string, tableName string) (string, error) {
	if _, err := schemasForDriver(driver, tableName); err != nil {
		return "", err
	}
	return `SELECT id, entity FROM ` + tableName + ` WHERE id = ` + placeholders(driver, 1)[0] + `;`, nil
}

// createListRunsStatement the order of arguments is:
// limit offset
func createListRunsStatement(driver string, tableName string) (string, error) {
	if _, err := schemasForDriver(driver, tableName); err != nil {
		return "", err
	}
	p := placeholders(driver, 2)
	return `SELECT id, entity FROM ` + tableName + ` ORDER BY created_at DESC, id LIMIT ` + p[0] + ` OFFSET ` + p[1] + `;`, nil
}

func getUnsupportedDriverError(driver string) error {
	return fmt.Errorf("unsupported driver %q, supported drivers are %q and %q", driver, SQLITE_DRIVER, POSTGRES_DRIVER)
}
