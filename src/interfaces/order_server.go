package interfaces

import "order-server/src/models"

// -----------------------------------------------------------------------------
// IOrderServer is the server surface a client agent talks to.
// The calls stand in for a wire round trip.
// -----------------------------------------------------------------------------

type IOrderServer interface {

	// RegisterClient returns the id bound to publicKey, or -1 when refused.
	RegisterClient(publicKey []byte) int

	// -----------------------------------------------------------------------------

	// AcceptMessage consumes one encoded signed envelope and returns the encoded reply.
	AcceptMessage(envelope []byte) []byte
}

// -----------------------------------------------------------------------------
// IStatsProvider exposes counters for the ops and control surfaces.
// -----------------------------------------------------------------------------

type IStatsProvider interface {
	Stats() models.MServerStats

	// ClientStatus returns false when id is not registered.
	ClientStatus(clientID int) (models.MClientStatus, bool)

	IsAccepting() bool

	SetAccepting(accepting bool)
}
