package storage

import (
	"database/sql"
	"fmt"
	"time"

	"order-server/src/logger"
	"order-server/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// AsyncSQLiteJournal is the sqlite order journal.
// It only ever receives public keys and ciphertexts.
// -----------------------------------------------------------------------------

type AsyncSQLiteJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteJournal(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteJournal, error) {
	if cfg.Storage.DBPath == "" {
		return nil, fmt.Errorf("sqlite journal needs a db_path")
	}
	return &AsyncSQLiteJournal{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteJournal) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	// Recreate Tables
	if err := d.recreateTables(); err != nil {
		return err
	}

	d.Logger.Info("SQLite journal initialized at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteJournal) recreateTables() error {
	for _, table := range []string{"orders", "clients"} {
		if _, err := d.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}

	query := `
		CREATE TABLE clients (
			client_id INTEGER PRIMARY KEY,
			public_key BLOB NOT NULL,
			registered_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create clients: %w", err)
	}

	query = `
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			ciphertext BLOB NOT NULL,
			recorded_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create orders: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteJournal) RecordRegistration(clientID int, publicKey []byte, at time.Time) error {
	_, err := d.DB.Exec(
		"INSERT INTO clients (client_id, public_key, registered_at) VALUES (?, ?, ?)",
		clientID, publicKey, at.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record client %d: %w", clientID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteJournal) RecordOrder(clientID int, kind string, ciphertext []byte, at time.Time) error {
	_, err := d.DB.Exec(
		"INSERT INTO orders (client_id, kind, ciphertext, recorded_at) VALUES (?, ?, ?, ?)",
		clientID, kind, ciphertext, at.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record order of client %d: %w", clientID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteJournal) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
