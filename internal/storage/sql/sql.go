package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	// import the postgres driver - "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"

	// import the sqlite driver - "sqlite"
	_ "modernc.org/sqlite"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/internal/messages"
	se "github.com/eval-hub/eval-cloud/internal/serviceerrors"
)

const (
	// These are the only drivers currently supported
	SQLITE_DRIVER   = "sqlite"
	POSTGRES_DRIVER = "pgx"

	DEFAULT_TABLE_RUNS = "evaluation_runs"
)

type SQLStorage struct {
	sqlConfig *config.HistoryConfig
	tableName string
	pool      *sql.DB
	logger    *slog.Logger
}

var _ abstractions.Storage = (*SQLStorage)(nil)

func NewStorage(sqlConfig *config.HistoryConfig, logger *slog.Logger) (abstractions.Storage, error) {
	// check that the driver is supported
	switch sqlConfig.Driver {
	case SQLITE_DRIVER:
		break
	case POSTGRES_DRIVER:
		break
	default:
		return nil, getUnsupportedDriverError(sqlConfig.Driver)
	}
	tableName := sqlConfig.TableName
	if tableName == "" {
		tableName = DEFAULT_TABLE_RUNS
	}
	if err := checkTableName(tableName); err != nil {
		return nil, err
	}

	logger.Info("Creating SQL storage", "driver", sqlConfig.Driver, "url", sanitizeURL(sqlConfig.URL))

	pool, err := otelsql.Open(sqlConfig.Driver, sqlConfig.URL)
	if err != nil {
		return nil, se.NewStorageErrorWithError(err, "open %s database", sqlConfig.Driver)
	}

	if sqlConfig.ConnMaxLifetime != nil {
		pool.SetConnMaxLifetime(*sqlConfig.ConnMaxLifetime)
	}
	if sqlConfig.MaxIdleConns != nil {
		pool.SetMaxIdleConns(*sqlConfig.MaxIdleConns)
	}
	if sqlConfig.MaxOpenConns != nil {
		pool.SetMaxOpenConns(*sqlConfig.MaxOpenConns)
	}

	storage := &SQLStorage{
		sqlConfig: sqlConfig,
		tableName: tableName,
		pool:      pool,
		logger:    logger,
	}

	// ping the database to verify the DSN provided by the user is valid and the server is accessible
	if err := storage.Ping(5 * time.Second); err != nil {
		pool.Close()
		return nil, se.NewStorageErrorWithError(err, "ping %s database", sqlConfig.Driver)
	}

	// ensure the schemas are created
	logger.Debug("Ensuring schemas are created", "driver", sqlConfig.Driver, "table", tableName)
	if err := storage.ensureSchema(); err != nil {
		pool.Close()
		return nil, se.NewStorageErrorWithError(err, "create %s table", tableName)
	}

	return storage, nil
}

// Ping the database to verify DSN provided by the user is valid and the
// server accessible.
func (s *SQLStorage) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.pool.PingContext(ctx)
}

func (s *SQLStorage) GetDatasourceName() string {
	return s.sqlConfig.Driver
}

func (s *SQLStorage) ensureSchema() error {
	schema, err := schemasForDriver(s.sqlConfig.Driver, s.tableName)
	if err != nil {
		return err
	}
	_, err = s.pool.ExecContext(context.Background(), schema)
	return err
}

// SaveRun inserts the run or replaces the stored state of an existing run
func (s *SQLStorage) SaveRun(ctx context.Context, record *abstractions.RunRecord) error {
	entity, err := json.Marshal(record)
	if err != nil {
		return se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "run", "ResourceId", record.RunID)
	}
	statement, err := createUpsertRunStatement(s.sqlConfig.Driver, s.tableName)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	createdAt := record.StartedAt.UTC()
	if record.StartedAt.IsZero() {
		createdAt = now
	}
	_, err = s.pool.ExecContext(ctx, statement, record.RunID, createdAt, now, record.EvaluationID, string(record.Status), record.Outcome, string(entity))
	if err != nil {
		s.logger.Error("Failed to save run", "error", err, "id", record.RunID)
		return se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "run", "ResourceId", record.RunID)
	}
	return nil
}

func (s *SQLStorage) GetRun(ctx context.Context, runID string) (*abstractions.RunRecord, error) {
	statement, err := createGetRunStatement(s.sqlConfig.Driver, s.tableName)
	if err != nil {
		return nil, err
	}
	var dbID string
	var entityJSON string
	err = s.pool.QueryRowContext(ctx, statement, runID).Scan(&dbID, &entityJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, se.NewStorageError("run %s not found", runID)
		}
		return nil, se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "run", "ResourceId", runID)
	}
	record := &abstractions.RunRecord{}
	if err := json.Unmarshal([]byte(entityJSON), record); err != nil {
		return nil, se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "run", "ResourceId", dbID)
	}
	return record, nil
}

func (s *SQLStorage) ListRuns(ctx context.Context, limit int, offset int) ([]abstractions.RunRecord, error) {
	statement, err := createListRunsStatement(s.sqlConfig.Driver, s.tableName)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.QueryContext(ctx, statement, limit, offset)
	if err != nil {
		return nil, se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "runs", "ResourceId", "")
	}
	defer rows.Close()

	var records []abstractions.RunRecord
	for rows.Next() {
		var dbID string
		var entityJSON string
		if err := rows.Scan(&dbID, &entityJSON); err != nil {
			return nil, se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "run", "ResourceId", dbID)
		}
		record := abstractions.RunRecord{}
		if err := json.Unmarshal([]byte(entityJSON), &record); err != nil {
			s.logger.Warn("Skipping unreadable run", "id", dbID, "error", err)
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, se.NewServiceErrorWithCause(err, messages.DatabaseOperationFailed, "Type", "runs", "ResourceId", "")
	}
	return records, nil
}

func (s *SQLStorage) Close() error {
	return s.pool.Close()
}

// sanitizeURL removes the password so that the URL can be logged
func sanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return rawURL
	}
	if parsed.User != nil {
		parsed.User = url.User(parsed.User.Username())
	}
	return parsed.String()
}
