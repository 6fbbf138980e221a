package orderserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"order-server/src/crypto"
	"order-server/src/logger"
	"order-server/src/models"
	"order-server/src/protocol"
	"order-server/src/utils"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

var provider = crypto.NewStandardProvider()

type testClient struct {
	id   int
	pub  []byte
	priv []byte
}

func newServer(t *testing.T, cfg models.MOrderServerConfig, opts ...Option) *OrderServer {
	t.Helper()
	s, err := NewOrderServer(cfg, provider, logger.NewNopLogger(), opts...)
	require.NoError(t, err)
	return s
}

func newKeys(t *testing.T) ([]byte, []byte) {
	t.Helper()
	pub, priv, err := provider.GenerateSigningKeyPair()
	require.NoError(t, err)
	return pub, priv
}

func register(t *testing.T, s *OrderServer) *testClient {
	t.Helper()
	pub, priv := newKeys(t)
	id := s.RegisterClient(pub)
	require.GreaterOrEqual(t, id, 0)
	return &testClient{id: id, pub: pub, priv: priv}
}

func envelope(t *testing.T, id int, priv []byte, msg protocol.Message) []byte {
	t.Helper()
	payload, err := protocol.EncodeMessage(msg)
	require.NoError(t, err)
	return signed(t, id, priv, payload)
}

func signed(t *testing.T, id int, priv []byte, payload []byte) []byte {
	t.Helper()
	sig, err := provider.Sign(priv, payload)
	require.NoError(t, err)
	env, err := protocol.EncodeEnvelope(id, payload, sig)
	require.NoError(t, err)
	return env
}

func submit(t *testing.T, s *OrderServer, env []byte) []protocol.Message {
	t.Helper()
	reply, err := protocol.DecodeReply(s.AcceptMessage(env))
	require.NoError(t, err)
	return reply
}

func (c *testClient) send(t *testing.T, s *OrderServer, msg protocol.Message) []protocol.Message {
	t.Helper()
	return submit(t, s, envelope(t, c.id, c.priv, msg))
}

var (
	accepted = []protocol.Message{protocol.ServerResponse{Result: true}}
	rejected = []protocol.Message{protocol.ServerResponse{Result: false}}
	failure  = []protocol.Message{protocol.Failure{}}
)

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

func TestRegisterClient(t *testing.T) {
	t.Run("assigns sequential ids", func(t *testing.T) {
		s := newServer(t, models.MOrderServerConfig{})
		for want := 0; want < 3; want++ {
			pub, _ := newKeys(t)
			assert.Equal(t, want, s.RegisterClient(pub))
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := newServer(t, models.MOrderServerConfig{})
		pub, _ := newKeys(t)

		first := s.RegisterClient(pub)
		second := s.RegisterClient(bytes.Clone(pub))

		assert.Equal(t, first, second)
		assert.Equal(t, 1, s.registry.count())
	})

	t.Run("refuses an empty key", func(t *testing.T) {
		s := newServer(t, models.MOrderServerConfig{})
		assert.Equal(t, utils.RefusedClientID, s.RegisterClient(nil))
		assert.Equal(t, 0, s.registry.count())
	})

	t.Run("refuses new keys while paused", func(t *testing.T) {
		s := newServer(t, models.MOrderServerConfig{})
		known, _ := newKeys(t)
		id := s.RegisterClient(known)

		s.SetAccepting(false)
		fresh, _ := newKeys(t)
		assert.Equal(t, utils.RefusedClientID, s.RegisterClient(fresh))
		assert.Equal(t, id, s.RegisterClient(known))

		s.SetAccepting(true)
		assert.Equal(t, 1, s.RegisterClient(fresh))
	})

	t.Run("refuses when the table is full", func(t *testing.T) {
		s := newServer(t, models.MOrderServerConfig{MaxClients: 2})
		register(t, s)
		register(t, s)
		pub, _ := newKeys(t)
		assert.Equal(t, utils.RefusedClientID, s.RegisterClient(pub))
	})
}

// -----------------------------------------------------------------------------

func TestConcurrentRegistration(t *testing.T) {
	const clients = 64
	s := newServer(t, models.MOrderServerConfig{})

	keys := make([][]byte, clients)
	for i := range keys {
		keys[i], _ = newKeys(t)
	}

	ids := make([][2]int, clients)
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				ids[i][j] = s.RegisterClient(keys[i])
			}(i, j)
		}
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := range ids {
		assert.Equal(t, ids[i][0], ids[i][1], "key %d got two ids", i)
		assert.False(t, seen[ids[i][0]], "id %d assigned twice", ids[i][0])
		seen[ids[i][0]] = true

		entry, ok := s.registry.lookup(ids[i][0])
		require.True(t, ok)
		assert.Equal(t, keys[i], entry.publicKey)
		assert.NotNil(t, entry.history)
	}
	assert.Equal(t, clients, s.registry.count())
}

// -----------------------------------------------------------------------------
// Protocol entry point
// -----------------------------------------------------------------------------

func TestEndToEndScenario(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{})
	c1 := register(t, s)
	require.Equal(t, 0, c1.id)

	buy := protocol.BuyStock{StockSymbol: "ABC", Amount: "5"}
	assert.Equal(t, accepted, c1.send(t, s, buy))

	orders := c1.send(t, s, protocol.GetOrders{})
	require.Len(t, orders, 1)
	stored, ok := orders[0].(protocol.ServerSendOrders)
	require.True(t, ok)
	decoded, err := protocol.DecodeMessage([]byte(stored.Order))
	require.NoError(t, err)
	assert.Equal(t, buy, decoded)

	_, foreign := newKeys(t)
	assert.Equal(t, rejected, submit(t, s, envelope(t, c1.id, foreign, buy)))

	status, ok := s.ClientStatus(c1.id)
	require.True(t, ok)
	assert.Equal(t, 1, status.HistorySize)
}

// -----------------------------------------------------------------------------

func TestAuthenticationSoundness(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{})
	victim := register(t, s)
	register(t, s)
	_, foreign := newKeys(t)

	msgs := []protocol.Message{
		protocol.BuyStock{StockSymbol: "X", Amount: "1"},
		protocol.SellStock{StockSymbol: "Y", Amount: "2"},
		protocol.GetOrders{},
	}
	for _, msg := range msgs {
		assert.Equal(t, rejected, submit(t, s, envelope(t, victim.id, foreign, msg)), "%T", msg)
	}

	status, _ := s.ClientStatus(victim.id)
	assert.Zero(t, status.HistorySize)
	assert.Equal(t, int64(3), s.Stats().Rejected)
}

// -----------------------------------------------------------------------------

func TestUnknownClientLooksLikeBadSignature(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{})
	c := register(t, s)
	buy := protocol.BuyStock{StockSymbol: "ABC", Amount: "5"}

	for _, id := range []int{-1, 1, 1000} {
		assert.Equal(t, rejected, submit(t, s, envelope(t, id, c.priv, buy)), "id %d", id)
	}
}

// -----------------------------------------------------------------------------

func TestBoundedHistory(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{})
	c := register(t, s)

	for i := 0; i < 150; i++ {
		require.Equal(t, accepted, c.send(t, s, protocol.BuyStock{StockSymbol: "ABC", Amount: fmt.Sprint(i)}))
	}

	orders := c.send(t, s, protocol.GetOrders{})
	require.Len(t, orders, 100)
	for i, o := range orders {
		decoded, err := protocol.DecodeMessage([]byte(o.(protocol.ServerSendOrders).Order))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(i+50), decoded.(protocol.BuyStock).Amount)
	}
}

// -----------------------------------------------------------------------------

func TestHistoriesAreIsolated(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{})
	a := register(t, s)
	b := register(t, s)

	require.Equal(t, accepted, a.send(t, s, protocol.SellStock{StockSymbol: "AAA", Amount: "1"}))

	assert.Empty(t, b.send(t, s, protocol.GetOrders{}))
	assert.Len(t, a.send(t, s, protocol.GetOrders{}), 1)
}

// -----------------------------------------------------------------------------

func TestFailureReplies(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{})
	c := register(t, s)

	t.Run("malformed envelope", func(t *testing.T) {
		assert.Equal(t, failure, submit(t, s, []byte("not an envelope")))
		assert.Equal(t, failure, submit(t, s, []byte(`{"clientId":0}`)))
	})

	t.Run("undecodable payload", func(t *testing.T) {
		assert.Equal(t, failure, submit(t, s, signed(t, c.id, c.priv, []byte(`{"sender":"Client"}`))))
	})

	t.Run("server kind from a client", func(t *testing.T) {
		assert.Equal(t, failure, submit(t, s, envelope(t, c.id, c.priv, protocol.ServerResponse{Result: true})))
	})

	t.Run("unknown kind", func(t *testing.T) {
		payload := []byte(`{"sender":"Client","messageType":"CancelOrder","parameters":{}}`)
		assert.Equal(t, failure, submit(t, s, signed(t, c.id, c.priv, payload)))
	})

	t.Run("case-colliding messageType", func(t *testing.T) {
		payload := []byte(`{"sender":"Client","messageType":"GetOrders","MessageType":"BuyStock","parameters":{"stockSymbol":"ABC","amount":"5"}}`)
		assert.Equal(t, failure, submit(t, s, signed(t, c.id, c.priv, payload)))
	})

	t.Run("mis-cased envelope fields", func(t *testing.T) {
		payload, err := protocol.EncodeMessage(protocol.BuyStock{StockSymbol: "ABC", Amount: "5"})
		require.NoError(t, err)
		sig, err := provider.Sign(c.priv, payload)
		require.NoError(t, err)

		env, err := json.Marshal(map[string]any{"CLIENTID": c.id, "Content": string(payload), "SIGNATURE": sig})
		require.NoError(t, err)
		assert.Equal(t, failure, submit(t, s, env))
	})

	status, _ := s.ClientStatus(c.id)
	assert.Zero(t, status.HistorySize)
}

// -----------------------------------------------------------------------------

func TestStoredOrdersAreEncrypted(t *testing.T) {
	journal := newFakeJournal()
	s := newServer(t, models.MOrderServerConfig{}, WithJournal(journal))
	c := register(t, s)

	symbol := "CONFIDENTIAL1"
	require.Equal(t, accepted, c.send(t, s, protocol.BuyStock{StockSymbol: symbol, Amount: "999"}))

	entry, _ := s.registry.lookup(c.id)
	for _, ciphertext := range entry.history.Snapshot() {
		assert.NotContains(t, string(ciphertext), symbol)
	}

	rec := <-s.journalCh // registration
	assert.True(t, rec.registration)
	rec = <-s.journalCh
	assert.Equal(t, string(models.MessageBuyStock), rec.kind)
	assert.NotContains(t, string(rec.data), symbol)
}

// -----------------------------------------------------------------------------

func TestCryptoFailures(t *testing.T) {
	t.Run("encrypt", func(t *testing.T) {
		faulty := &faultyProvider{StandardProvider: provider, failEncrypt: true}
		s, err := NewOrderServer(models.MOrderServerConfig{}, faulty, logger.NewNopLogger())
		require.NoError(t, err)
		c := register(t, s)

		assert.Equal(t, failure, c.send(t, s, protocol.BuyStock{StockSymbol: "A", Amount: "1"}))
		status, _ := s.ClientStatus(c.id)
		assert.Zero(t, status.HistorySize)
	})

	t.Run("decrypt", func(t *testing.T) {
		faulty := &faultyProvider{StandardProvider: provider}
		s, err := NewOrderServer(models.MOrderServerConfig{}, faulty, logger.NewNopLogger())
		require.NoError(t, err)
		c := register(t, s)

		require.Equal(t, accepted, c.send(t, s, protocol.BuyStock{StockSymbol: "A", Amount: "1"}))
		faulty.failDecrypt = true
		assert.Equal(t, failure, c.send(t, s, protocol.GetOrders{}))
	})

	t.Run("master key", func(t *testing.T) {
		faulty := &faultyProvider{StandardProvider: provider, failKeygen: true}
		_, err := NewOrderServer(models.MOrderServerConfig{}, faulty, logger.NewNopLogger())
		assert.Error(t, err)
	})
}

// -----------------------------------------------------------------------------

func TestConcurrentSubmissions(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{HistoryCapacity: 10})

	const clients, orders = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		c := register(t, s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < orders; j++ {
				payload, _ := protocol.EncodeMessage(protocol.BuyStock{StockSymbol: "S", Amount: fmt.Sprint(j)})
				sig, _ := provider.Sign(c.priv, payload)
				env, _ := protocol.EncodeEnvelope(c.id, payload, sig)
				s.AcceptMessage(env)
			}
		}()
	}
	wg.Wait()

	stats := s.Stats()
	assert.Equal(t, int64(clients*orders), stats.Accepted)
	assert.Equal(t, clients*10, stats.StoredOrders)
}

// -----------------------------------------------------------------------------
// Stats, events and background loop
// -----------------------------------------------------------------------------

func TestStats(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{HistoryCapacity: 5})
	c := register(t, s)

	c.send(t, s, protocol.BuyStock{StockSymbol: "A", Amount: "1"})
	c.send(t, s, protocol.GetOrders{})
	submit(t, s, []byte("junk"))

	stats := s.Stats()
	assert.Equal(t, 1, stats.RegisteredClients)
	assert.True(t, stats.Accepting)
	assert.Equal(t, 5, stats.HistoryCapacity)
	assert.Equal(t, 1, stats.StoredOrders)
	assert.Equal(t, int64(1), stats.Accepted)
	assert.Equal(t, int64(1), stats.Served)
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, int64(1), stats.ByKind["BuyStock"])
	assert.Equal(t, int64(1), stats.ByKind["GetOrders"])

	_, ok := s.ClientStatus(7)
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------

func TestActivityEvents(t *testing.T) {
	sink := &recordingSink{}
	s := newServer(t, models.MOrderServerConfig{}, WithActivitySink(sink))
	c := register(t, s)
	c.send(t, s, protocol.BuyStock{StockSymbol: "A", Amount: "1"})
	c.send(t, s, protocol.GetOrders{})
	s.RegisterClient(nil)

	types := sink.types()
	assert.Equal(t, []string{
		models.EventClientRegistered,
		models.EventOrderAccepted,
		models.EventOrdersServed,
		models.EventRegistrationRefused,
	}, types)
	for _, e := range sink.events {
		assert.NotEmpty(t, e.ID)
	}
}

// -----------------------------------------------------------------------------

func TestRunFlushesJournalOnShutdown(t *testing.T) {
	defer leaktest.Check(t)()

	journal := newFakeJournal()
	s := newServer(t, models.MOrderServerConfig{TickIntervalMs: 5}, WithJournal(journal))
	c := register(t, s)
	c.send(t, s, protocol.SellStock{StockSymbol: "A", Amount: "1"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	regs, orders := journal.counts()
	assert.Equal(t, 1, regs)
	assert.Equal(t, 1, orders)
}

// -----------------------------------------------------------------------------

func TestJournalQueueDropsWhenFull(t *testing.T) {
	s := newServer(t, models.MOrderServerConfig{JournalBuffer: 1}, WithJournal(newFakeJournal()))
	c := register(t, s) // fills the queue

	assert.Equal(t, accepted, c.send(t, s, protocol.BuyStock{StockSymbol: "A", Amount: "1"}))
	assert.Len(t, s.journalCh, 1)
}

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type faultyProvider struct {
	*crypto.StandardProvider
	failKeygen  bool
	failEncrypt bool
	failDecrypt bool
}

var errInjected = errors.New("injected")

func (p *faultyProvider) GenerateSymmetricKey() ([]byte, error) {
	if p.failKeygen {
		return nil, errInjected
	}
	return p.StandardProvider.GenerateSymmetricKey()
}

func (p *faultyProvider) Encrypt(key []byte, plaintext []byte) ([]byte, error) {
	if p.failEncrypt {
		return nil, errInjected
	}
	return p.StandardProvider.Encrypt(key, plaintext)
}

func (p *faultyProvider) Decrypt(key []byte, ciphertext []byte) ([]byte, error) {
	if p.failDecrypt {
		return nil, errInjected
	}
	return p.StandardProvider.Decrypt(key, ciphertext)
}

type fakeJournal struct {
	mu            sync.Mutex
	registrations int
	orders        int
}

func newFakeJournal() *fakeJournal { return &fakeJournal{} }

func (j *fakeJournal) Initialize() error { return nil }
func (j *fakeJournal) Close() error      { return nil }

func (j *fakeJournal) RecordRegistration(int, []byte, time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.registrations++
	return nil
}

func (j *fakeJournal) RecordOrder(int, string, []byte, time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders++
	return nil
}

func (j *fakeJournal) counts() (int, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.registrations, j.orders
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.MActivityEvent
}

func (r *recordingSink) Broadcast(e models.MActivityEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
