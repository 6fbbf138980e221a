package orderserver

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"order-server/src/models"
	"order-server/src/utils"
)

// -----------------------------------------------------------------------------

// Run drives the background tick and the journal writer until ctx is
// cancelled. The request path never depends on it; AcceptMessage works
// whether Run is active or not.
func (s *OrderServer) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	if s.journalCh != nil {
		wg.Add(1)
		go s.drainJournal(ctx, &wg)
	}

	s.Logger.Info("Order server running (tick up to %v)", s.tickInterval)

	for {
		timer := time.NewTimer(s.nextTick())
		select {
		case <-ctx.Done():
			timer.Stop()
			wg.Wait()
			s.Logger.Info("Order server stopped")
			return nil
		case <-timer.C:
			s.tick()
		}
	}
}

// -----------------------------------------------------------------------------

func (s *OrderServer) nextTick() time.Duration {
	return rand.N(s.tickInterval) + 1
}

// -----------------------------------------------------------------------------

// tick has no effect on client state
func (s *OrderServer) tick() {
	marketOpen := "unknown"
	if s.scheduler != nil {
		marketOpen = "closed"
		if s.scheduler.AnyMarketOpen() {
			marketOpen = "open"
		}
	}

	s.Logger.Debug("Tick: %d clients, %d stored orders, market %s",
		s.registry.count(), s.registry.storedOrders(), marketOpen)
	s.publish(models.EventTick, utils.RefusedClientID, "", marketOpen)
}

// -----------------------------------------------------------------------------

// drainJournal writes queued records until ctx is cancelled, then flushes
// whatever is still queued.
func (s *OrderServer) drainJournal(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case rec := <-s.journalCh:
					s.writeJournal(rec)
				default:
					return
				}
			}
		case rec := <-s.journalCh:
			s.writeJournal(rec)
		}
	}
}

// -----------------------------------------------------------------------------

func (s *OrderServer) writeJournal(rec journalRecord) {
	var err error
	if rec.registration {
		err = s.journal.RecordRegistration(rec.clientID, rec.data, rec.at)
	} else {
		err = s.journal.RecordOrder(rec.clientID, rec.kind, rec.data, rec.at)
	}
	if err != nil {
		s.Logger.Error("Journal write failed for client %d: %v", rec.clientID, err)
	}
}
