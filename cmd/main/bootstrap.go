package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"order-server/src/client"
	"order-server/src/config"
	"order-server/src/crypto"
	"order-server/src/logger"
	"order-server/src/server"
	"order-server/src/utils"
)

// -----------------------------------------------------------------------------

// run wires every component and blocks until ctx is cancelled
func run(ctx context.Context, configPath string) error {
	// 1. Load config
	conf, err := config.NewConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return err
	}

	// 2. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)
	defer appLogger.Sync()

	// 3. Setup Components
	provider := crypto.NewStandardProvider()

	journal, err := setupJournal(conf, appLogger)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	scheduler := utils.NewMarketScheduler(conf.Clients.Exchanges, appLogger.Named("MarketScheduler"))
	ops := server.NewFastAPIServer(conf.MConfig, appLogger.Named("FastAPIServer"))

	orderServer, err := setupOrderServer(conf, provider, journal, ops, scheduler, appLogger)
	if err != nil {
		appLogger.Error("Failed to create order server: %v", err)
		return err
	}

	// 4. Start Servers
	stopServers, err := startServers(ops, orderServer, conf, appLogger)
	if err != nil {
		appLogger.Error("%v", err)
		return err
	}
	defer stopServers()

	// 5. Lifecycle Management
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := orderServer.Run(ctx); err != nil {
			appLogger.Error("Order server loop failed: %v", err)
		}
	}()

	// 6. Clients
	fleet, err := client.NewFleet(conf.Clients.Count, orderServer, provider,
		client.OptionsFromConfig(conf.Clients, scheduler), appLogger.Named("Fleet"))
	if err != nil {
		appLogger.Error("%v", err)
		cancel()
		wg.Wait()
		return err
	}
	if err := fleet.Start(ctx, &wg); err != nil {
		cancel()
		wg.Wait()
		return err
	}

	// 7. Wait for shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down...")
	fleet.Stop()
	wg.Wait()
	appLogger.Info("Shutdown complete.")
	return nil
}
