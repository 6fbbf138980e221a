package utils

import (
	"sync"
	"time"

	"order-server/src/logger"
)

// MarketScheduler tracks the sessions of the exchanges clients trade on.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(exchanges []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.UpdateExchanges(exchanges)
	return ms
}

// -----------------------------------------------------------------------------

// UpdateExchanges replaces the tracked exchanges
func (ms *MarketScheduler) UpdateExchanges(exchanges []string) {
	if len(exchanges) == 0 {
		exchanges = []string{DefaultExchange}
	}

	calendars := make(map[string]*TradingCalendar, len(exchanges))
	for _, mic := range exchanges {
		cal := GetCalendar(mic, ms.Logger)
		calendars[cal.MIC] = cal
	}

	ms.mu.Lock()
	ms.Calendars = calendars
	ms.mu.Unlock()

	if ms.Logger != nil {
		ms.Logger.Info("MarketScheduler: tracking %d exchanges.", len(calendars))
	}
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY tracked market is currently open
func (ms *MarketScheduler) AnyMarketOpen() bool {
	return ms.AnyMarketOpenAt(time.Now().UTC())
}

// -----------------------------------------------------------------------------

// AnyMarketOpenAt checks if ANY tracked market is open at t
func (ms *MarketScheduler) AnyMarketOpenAt(t time.Time) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenOnMinute(t) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// ExchangeCount returns number of tracked exchanges
func (ms *MarketScheduler) ExchangeCount() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.Calendars)
}
