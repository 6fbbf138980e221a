package orderserver

import (
	"order-server/src/models"
)

// -----------------------------------------------------------------------------

// Stats returns a snapshot of the server counters
func (s *OrderServer) Stats() models.MServerStats {
	s.kindMu.Lock()
	byKind := make(map[string]int64, len(s.byKind))
	for k, v := range s.byKind {
		byKind[k] = v
	}
	s.kindMu.Unlock()

	return models.MServerStats{
		RegisteredClients: s.registry.count(),
		Accepting:         s.accepting.Load(),
		HistoryCapacity:   s.registry.historyCapacity,
		StoredOrders:      s.registry.storedOrders(),
		Accepted:          s.accepted.Load(),
		Rejected:          s.rejected.Load(),
		Served:            s.served.Load(),
		Failures:          s.failures.Load(),
		ByKind:            byKind,
	}
}

// -----------------------------------------------------------------------------

// ClientStatus reports the history size of one client
func (s *OrderServer) ClientStatus(clientID int) (models.MClientStatus, bool) {
	entry, ok := s.registry.lookup(clientID)
	if !ok {
		return models.MClientStatus{}, false
	}
	return models.MClientStatus{
		ClientID:        clientID,
		HistorySize:     entry.history.Size(),
		HistoryCapacity: entry.history.Capacity(),
	}, true
}

// -----------------------------------------------------------------------------

func (s *OrderServer) IsAccepting() bool {
	return s.accepting.Load()
}

// -----------------------------------------------------------------------------

// SetAccepting pauses or resumes registration of new keys
func (s *OrderServer) SetAccepting(accepting bool) {
	if s.accepting.Swap(accepting) != accepting {
		s.Logger.Info("Accepting registrations: %v", accepting)
	}
}
