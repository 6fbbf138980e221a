package interfaces

import "time"

// -----------------------------------------------------------------------------
// IOrderJournal defines the contract for the ciphertext-only order journal.
// -----------------------------------------------------------------------------

type IOrderJournal interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	// Existing tables are dropped: the journal does not survive a restart.
	Initialize() error

	// -----------------------------------------------------------------------------

	// RecordRegistration stores a newly assigned client id and its public key.
	RecordRegistration(clientID int, publicKey []byte, at time.Time) error

	// -----------------------------------------------------------------------------

	// RecordOrder stores one encrypted order. Plaintext never reaches the journal.
	RecordOrder(clientID int, kind string, ciphertext []byte, at time.Time) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
