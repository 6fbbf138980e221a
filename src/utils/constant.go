package utils

import "time"

// -----------------------------------------------------------------------------

// Defaults for the order server and the simulated clients.
const (
	DefaultHistoryCapacity = 100
	DefaultTickInterval    = 5000 * time.Millisecond
	DefaultJournalBuffer   = 1024
	DefaultExchange        = "xnys"
)

// -----------------------------------------------------------------------------

// RefusedClientID is returned by a registration the server did not accept.
const RefusedClientID = -1
