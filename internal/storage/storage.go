package storage

import (
	"log/slog"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/internal/storage/sql"
)

// NewStorage creates the run history storage based on the configuration.
// It returns nil without an error when no history database is configured.
func NewStorage(historyConfig *config.HistoryConfig, logger *slog.Logger) (abstractions.Storage, error) {
	if !historyConfig.Enabled() {
		return nil, nil
	}
	return sql.NewStorage(historyConfig, logger)
}
