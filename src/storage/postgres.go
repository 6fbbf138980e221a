package storage

import (
	"database/sql"
	"fmt"
	"time"

	"order-server/src/logger"
	"order-server/src/models"

	"github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// PostgresJournal is the postgres order journal. Tables live in a schema named
// after the application.
// -----------------------------------------------------------------------------

type PostgresJournal struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresJournal(cfg *models.MConfig, log *logger.Logger) (*PostgresJournal, error) {
	if cfg.Storage.DBConnectionString == "" {
		return nil, fmt.Errorf("postgres journal needs a db_connection_string")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("postgres journal needs an application name for its schema")
	}

	return &PostgresJournal{
		Config: cfg,
		Schema: cfg.Name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.recreateTables(); err != nil {
		return err
	}

	d.Logger.Info("Postgres journal initialized (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) table(name string) string {
	return pq.QuoteIdentifier(d.Schema) + "." + pq.QuoteIdentifier(name)
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) recreateTables() error {
	for _, name := range []string{"orders", "clients"} {
		if _, err := d.DB.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, d.table(name))); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
	}

	query := fmt.Sprintf(`
		CREATE TABLE %s (
			client_id INTEGER PRIMARY KEY,
			public_key BYTEA NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		);
	`, d.table("clients"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create clients: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE %s (
			id BIGSERIAL PRIMARY KEY,
			client_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			ciphertext BYTEA NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		);
	`, d.table("orders"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create orders: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) RecordRegistration(clientID int, publicKey []byte, at time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (client_id, public_key, registered_at) VALUES ($1, $2, $3)`, d.table("clients"))
	if _, err := d.DB.Exec(query, clientID, publicKey, at.UTC()); err != nil {
		return fmt.Errorf("failed to record client %d: %w", clientID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) RecordOrder(clientID int, kind string, ciphertext []byte, at time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (client_id, kind, ciphertext, recorded_at) VALUES ($1, $2, $3, $4)`, d.table("orders"))
	if _, err := d.DB.Exec(query, clientID, kind, ciphertext, at.UTC()); err != nil {
		return fmt.Errorf("failed to record order of client %d: %w", clientID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresJournal) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
