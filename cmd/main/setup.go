package main

import (
	"order-server/src/config"
	"order-server/src/interfaces"
	"order-server/src/logger"
	"order-server/src/orderserver"
	"order-server/src/server"
	"order-server/src/storage"
	"order-server/src/utils"
)

// -----------------------------------------------------------------------------

// setupJournal returns nil when storage is disabled
func setupJournal(conf *config.Config, appLogger *logger.Logger) (interfaces.IOrderJournal, error) {
	journal, err := storage.NewJournal(conf.MConfig, appLogger)
	if err != nil {
		appLogger.Error("Failed to create journal: %v", err)
		return nil, err
	}
	if journal == nil {
		appLogger.Info("Order journal disabled")
		return nil, nil
	}

	if err := journal.Initialize(); err != nil {
		appLogger.Error("Failed to initialize journal: %v", err)
		journal.Close()
		return nil, err
	}
	return journal, nil
}

// -----------------------------------------------------------------------------

func setupOrderServer(
	conf *config.Config,
	provider interfaces.ICryptoProvider,
	journal interfaces.IOrderJournal,
	ops *server.FastAPIServer,
	scheduler *utils.MarketScheduler,
	appLogger *logger.Logger,
) (*orderserver.OrderServer, error) {
	opts := []orderserver.Option{
		orderserver.WithActivitySink(ops),
		orderserver.WithMarketScheduler(scheduler),
	}
	if journal != nil {
		opts = append(opts, orderserver.WithJournal(journal))
	}

	srv, err := orderserver.NewOrderServer(conf.OrderServer, provider, appLogger.Named("OrderServer"), opts...)
	if err != nil {
		return nil, err
	}
	ops.SetStatsProvider(srv)
	return srv, nil
}
