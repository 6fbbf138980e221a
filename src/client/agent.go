// Package client holds the client agent: it owns one signing key pair,
// registers with the order server and submits signed orders to it.
package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"order-server/src/helpers"
	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/models"
	"order-server/src/protocol"
	"order-server/src/utils"
)

const (
	symbolAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buyAmountDigits  = 3
	sellAmountDigits = 10
)

// -----------------------------------------------------------------------------

// Options tune the order cycle of an agent
type Options struct {
	ThinkMin     time.Duration
	ThinkMax     time.Duration
	CooldownMin  time.Duration
	CooldownMax  time.Duration
	SymbolLength int
	// Scheduler, when set, gates order cycles on market sessions
	Scheduler *utils.MarketScheduler
}

// OptionsFromConfig converts the clients section of the config
func OptionsFromConfig(cfg models.MClientsConfig, scheduler *utils.MarketScheduler) Options {
	opts := Options{
		ThinkMin:     time.Duration(cfg.ThinkMinMs) * time.Millisecond,
		ThinkMax:     time.Duration(cfg.ThinkMaxMs) * time.Millisecond,
		CooldownMin:  time.Duration(cfg.CooldownMinMs) * time.Millisecond,
		CooldownMax:  time.Duration(cfg.CooldownMaxMs) * time.Millisecond,
		SymbolLength: cfg.SymbolLength,
	}
	if cfg.MarketHoursOnly {
		opts.Scheduler = scheduler
	}
	return opts
}

// -----------------------------------------------------------------------------
// Agent is one registered client. It is driven by a single goroutine.
// -----------------------------------------------------------------------------

type Agent struct {
	id         int
	publicKey  []byte
	privateKey []byte

	server   interfaces.IOrderServer
	provider interfaces.ICryptoProvider
	Logger   *logger.Logger
	errors   *helpers.ErrorHandler

	rng  *rand.Rand
	opts Options
}

// -----------------------------------------------------------------------------

// Register generates a key pair and registers it with server.
// A refused registration is a RegistrationError and the agent is not usable.
func Register(server interfaces.IOrderServer, provider interfaces.ICryptoProvider, log *logger.Logger, opts Options) (*Agent, error) {
	publicKey, privateKey, err := provider.GenerateSigningKeyPair()
	if err != nil {
		return nil, helpers.NewRegistrationError("failed to generate signing key pair", err)
	}

	id := server.RegisterClient(publicKey)
	if id < 0 {
		return nil, helpers.NewRegistrationError("server refused registration", nil)
	}

	if log == nil {
		log = logger.NewLogger(nil, "Client")
	}
	log = log.Named(fmt.Sprintf("Client-%d", id))

	if opts.SymbolLength <= 0 {
		opts.SymbolLength = 12
	}

	return &Agent{
		id:         id,
		publicKey:  publicKey,
		privateKey: privateKey,
		server:     server,
		provider:   provider,
		Logger:     log,
		errors:     helpers.NewErrorHandler(log),
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		opts:       opts,
	}, nil
}

// -----------------------------------------------------------------------------

// ID returns the id assigned by the server
func (a *Agent) ID() int {
	return a.id
}

// -----------------------------------------------------------------------------

// BuildOrder picks BuyStock, SellStock or GetOrders uniformly.
// Symbols and amounts are random opaque strings.
func (a *Agent) BuildOrder() protocol.Message {
	switch a.rng.IntN(3) {
	case 0:
		return protocol.BuyStock{StockSymbol: a.randomString(symbolAlphabet, a.opts.SymbolLength), Amount: a.randomDigits(buyAmountDigits)}
	case 1:
		return protocol.SellStock{StockSymbol: a.randomString(symbolAlphabet, a.opts.SymbolLength), Amount: a.randomDigits(sellAmountDigits)}
	default:
		return protocol.GetOrders{}
	}
}

// -----------------------------------------------------------------------------

// Submit signs msg, hands the envelope to the server and decodes the reply.
// Local encoding, signing or reply decoding failures are ClientProtocolErrors.
// There is no retry.
func (a *Agent) Submit(msg protocol.Message) ([]protocol.Message, error) {
	payload, err := protocol.EncodeMessage(msg)
	if err != nil {
		return nil, helpers.NewClientProtocolError("failed to encode message", err)
	}

	signature, err := a.provider.Sign(a.privateKey, payload)
	if err != nil {
		return nil, helpers.NewClientProtocolError("failed to sign message", err)
	}

	envelope, err := protocol.EncodeEnvelope(a.id, payload, signature)
	if err != nil {
		return nil, helpers.NewClientProtocolError("failed to encode envelope", err)
	}

	reply, err := protocol.DecodeReply(a.server.AcceptMessage(envelope))
	if err != nil {
		return nil, helpers.NewClientProtocolError("failed to decode reply", err)
	}
	return reply, nil
}

// -----------------------------------------------------------------------------

// Run repeats think, order cycle and cooldown until ctx is cancelled.
// A failed cycle is logged and the loop goes on.
func (a *Agent) Run(ctx context.Context) error {
	a.Logger.Info("Client started")
	defer a.Logger.Info("Client stopped")

	// A restarted agent does not inherit failures from its previous run
	a.errors.ResetErrorCount()

	for {
		if !a.sleep(ctx, a.opts.ThinkMin, a.opts.ThinkMax) {
			return nil
		}

		if a.opts.Scheduler != nil && !a.opts.Scheduler.AnyMarketOpen() {
			a.Logger.Debug("All markets closed, skipping cycle")
		} else {
			a.errors.Handle(a.cycle(), "order cycle")
		}

		if !a.sleep(ctx, a.opts.CooldownMin, a.opts.CooldownMax) {
			return nil
		}
	}
}

// -----------------------------------------------------------------------------

func (a *Agent) cycle() error {
	msg := a.BuildOrder()
	reply, err := a.Submit(msg)
	if err != nil {
		return err
	}

	switch {
	case len(reply) == 1 && reply[0].Kind() == models.MessageServerResponse:
		a.Logger.Debug("%s answered: accepted=%v", msg.Kind(), reply[0].(protocol.ServerResponse).Result)
	case len(reply) == 1 && reply[0].Kind() == models.MessageFailure:
		a.Logger.Warning("%s answered with a failure", msg.Kind())
	default:
		a.Logger.Debug("%s answered with %d orders", msg.Kind(), len(reply))
	}
	return nil
}

// -----------------------------------------------------------------------------

// sleep waits a random duration in [lo, hi]; false when ctx ended first
func (a *Agent) sleep(ctx context.Context, lo, hi time.Duration) bool {
	d := lo
	if hi > lo {
		d += time.Duration(a.rng.Int64N(int64(hi-lo) + 1))
	}
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// -----------------------------------------------------------------------------

func (a *Agent) randomString(alphabet string, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[a.rng.IntN(len(alphabet))])
	}
	return sb.String()
}

func (a *Agent) randomDigits(n int) string {
	return a.randomString("0123456789", n)
}
