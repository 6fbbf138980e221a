package client

import (
	"context"
	"fmt"
	"sync"

	"order-server/src/interfaces"
	"order-server/src/logger"
)

// -----------------------------------------------------------------------------
// Fleet registers and drives a set of agents against one server.
// -----------------------------------------------------------------------------

type Fleet struct {
	Agents     []*Agent
	Logger     *logger.Logger
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// -----------------------------------------------------------------------------

// NewFleet registers count agents. An agent whose registration fails is
// logged and left out; the error is returned only when none registered.
func NewFleet(count int, server interfaces.IOrderServer, provider interfaces.ICryptoProvider, opts Options, log *logger.Logger) (*Fleet, error) {
	if log == nil {
		log = logger.NewLogger(nil, "Fleet")
	}

	f := &Fleet{Logger: log}
	var lastErr error
	for i := 0; i < count; i++ {
		agent, err := Register(server, provider, log, opts)
		if err != nil {
			log.Error("Client %d/%d failed to register: %v", i+1, count, err)
			lastErr = err
			continue
		}
		f.Agents = append(f.Agents, agent)
	}

	if count > 0 && len(f.Agents) == 0 {
		return nil, fmt.Errorf("no client could register: %w", lastErr)
	}

	log.Info("Registered %d/%d clients", len(f.Agents), count)
	return f, nil
}

// -----------------------------------------------------------------------------

// Start runs every agent in its own goroutine. Each one calls wg.Done when it
// stops.
func (f *Fleet) Start(parentCtx context.Context, wg *sync.WaitGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelFunc != nil {
		return fmt.Errorf("fleet is already running")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	f.cancelFunc = cancel

	for _, agent := range f.Agents {
		wg.Add(1)
		go func(a *Agent) {
			defer wg.Done()
			if err := a.Run(ctx); err != nil {
				f.Logger.Error("Client %d stopped with error: %v", a.ID(), err)
			}
		}(agent)
	}

	f.Logger.Info("Started %d clients", len(f.Agents))
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels every agent; it does not wait for them
func (f *Fleet) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelFunc != nil {
		f.cancelFunc()
		f.cancelFunc = nil
	}
}
