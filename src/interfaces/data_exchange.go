package interfaces

import "order-server/src/models"

// -----------------------------------------------------------------------------
// IActivitySink receives activity events from the order server.
// -----------------------------------------------------------------------------

type IActivitySink interface {
	// Broadcast pushes an event to listeners. It must not block the caller.
	Broadcast(event models.MActivityEvent)
}

// -----------------------------------------------------------------------------
// IDataExchanger pushes activity events to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	IActivitySink

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
