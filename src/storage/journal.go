package storage

import (
	"fmt"

	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/models"
)

// NewJournal builds the journal selected by storage.db_type.
// It returns nil for "none". The journal is not initialized yet.
func NewJournal(cfg *models.MConfig, log *logger.Logger) (interfaces.IOrderJournal, error) {
	switch cfg.Storage.DBType {
	case "", "none":
		return nil, nil
	case "sqlite":
		j, err := NewAsyncSQLiteJournal(cfg, log.Named("SQLiteJournal"))
		if err != nil {
			return nil, err
		}
		return j, nil
	case "postgres":
		j, err := NewPostgresJournal(cfg, log.Named("PostgresJournal"))
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
	}
}
