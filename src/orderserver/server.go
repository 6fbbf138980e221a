// Package orderserver holds the order server: the client table, the encrypted
// per-client histories and the single protocol entry point.
package orderserver

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"order-server/src/helpers"
	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/models"
	"order-server/src/utils"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// OrderServer authenticates signed envelopes and keeps each client's orders
// encrypted under one master key generated at construction.
// -----------------------------------------------------------------------------

type OrderServer struct {
	provider  interfaces.ICryptoProvider
	masterKey []byte
	registry  *clientRegistry
	Logger    *logger.Logger

	accepting    atomic.Bool
	tickInterval time.Duration

	journal   interfaces.IOrderJournal
	journalCh chan journalRecord
	sink      interfaces.IActivitySink
	scheduler *utils.MarketScheduler

	accepted atomic.Int64
	rejected atomic.Int64
	served   atomic.Int64
	failures atomic.Int64

	kindMu sync.Mutex
	byKind map[string]int64
}

// Option configures optional collaborators of an OrderServer
type Option func(*OrderServer)

// journalRecord is one pending journal write. Data is a public key for a
// registration and a ciphertext for an order.
type journalRecord struct {
	registration bool
	clientID     int
	kind         string
	data         []byte
	at           time.Time
}

// -----------------------------------------------------------------------------

// WithJournal mirrors registrations and ciphertexts into journal.
// Writes are queued and performed by Run.
func WithJournal(journal interfaces.IOrderJournal) Option {
	return func(s *OrderServer) { s.journal = journal }
}

// WithActivitySink publishes activity events to sink
func WithActivitySink(sink interfaces.IActivitySink) Option {
	return func(s *OrderServer) { s.sink = sink }
}

// WithMarketScheduler lets the tick report market sessions
func WithMarketScheduler(scheduler *utils.MarketScheduler) Option {
	return func(s *OrderServer) { s.scheduler = scheduler }
}

// -----------------------------------------------------------------------------

// NewOrderServer creates a server accepting registrations.
// It fails with a CryptoError when the master key cannot be generated.
func NewOrderServer(cfg models.MOrderServerConfig, provider interfaces.ICryptoProvider, log *logger.Logger, opts ...Option) (*OrderServer, error) {
	if log == nil {
		log = logger.NewLogger(nil, "OrderServer")
	}

	masterKey, err := provider.GenerateSymmetricKey()
	if err != nil {
		return nil, helpers.NewCryptoError("failed to generate master key", err)
	}

	tick := time.Duration(cfg.TickIntervalMs) * time.Millisecond
	if tick <= 0 {
		tick = utils.DefaultTickInterval
	}
	buffer := cfg.JournalBuffer
	if buffer <= 0 {
		buffer = utils.DefaultJournalBuffer
	}

	s := &OrderServer{
		provider:     provider,
		masterKey:    masterKey,
		registry:     newClientRegistry(cfg.HistoryCapacity, cfg.MaxClients),
		Logger:       log,
		tickInterval: tick,
		byKind:       make(map[string]int64),
	}
	s.accepting.Store(true)

	for _, opt := range opts {
		opt(s)
	}
	if s.journal != nil {
		s.journalCh = make(chan journalRecord, buffer)
	}

	return s, nil
}

// -----------------------------------------------------------------------------

// RegisterClient returns the id bound to publicKey, assigning the next id to
// an unknown key. A known key keeps its id even while registrations are
// paused. -1 means refused: empty key, server paused or client table full.
func (s *OrderServer) RegisterClient(publicKey []byte) int {
	if len(publicKey) == 0 {
		s.refuse("empty public key")
		return utils.RefusedClientID
	}

	id, created := s.registry.register(publicKey, s.accepting.Load())
	switch {
	case id == utils.RefusedClientID:
		s.refuse("not accepting or client table full")
	case created:
		registrationsTotal.WithLabelValues(outcomeCreated).Inc()
		registeredClients.Inc()
		s.Logger.Info("Registered client %d", id)
		s.enqueueJournal(journalRecord{registration: true, clientID: id, data: bytes.Clone(publicKey), at: time.Now()})
		s.publish(models.EventClientRegistered, id, "", outcomeCreated)
	default:
		registrationsTotal.WithLabelValues(outcomeExisting).Inc()
		s.Logger.Debug("Client %d registered again", id)
	}
	return id
}

// -----------------------------------------------------------------------------

func (s *OrderServer) refuse(reason string) {
	registrationsTotal.WithLabelValues(outcomeRefused).Inc()
	s.Logger.Warning("Registration refused: %s", reason)
	s.publish(models.EventRegistrationRefused, utils.RefusedClientID, "", outcomeRefused)
}

// -----------------------------------------------------------------------------

func (s *OrderServer) publish(eventType string, clientID int, kind string, outcome string) {
	if s.sink == nil {
		return
	}
	s.sink.Broadcast(models.MActivityEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		ClientID:  clientID,
		Kind:      kind,
		Outcome:   outcome,
		Timestamp: time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// enqueueJournal never blocks; a full queue drops the record
func (s *OrderServer) enqueueJournal(rec journalRecord) {
	if s.journalCh == nil {
		return
	}
	select {
	case s.journalCh <- rec:
	default:
		s.Logger.Warning("Journal queue full, dropping record for client %d", rec.clientID)
	}
}
