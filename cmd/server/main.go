package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"arbitrage/internal/api"
	"arbitrage/internal/bot"
	"arbitrage/internal/config"
	"arbitrage/internal/exchange"
	"arbitrage/internal/models"
	"arbitrage/internal/websocket"
	"arbitrage/pkg/utils"
)

// statusPushInterval controls how often the /ws clients get an unsolicited
// status refresh, independent of the connect-time snapshot.
const statusPushInterval = 5 * time.Second

func main() {
	bootstrapLogger := utils.InitGlobalLogger(utils.LogConfig{
		Level:  os.Getenv("ARBITRAGE_LOG_LEVEL"),
		Format: "json",
	})
	logger := bootstrapLogger.Logger

	cfg, err := config.Load(os.Getenv("ARBITRAGE_CONFIG_FILE"), logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	cfgHolder := config.NewHolder(cfg)

	connectors, pairs, err := buildConnectors(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build exchange connectors", zap.Error(err))
	}
	if len(connectors) < 2 {
		logger.Warn("fewer than two venues enabled; no cross-venue arbitrage is possible", zap.Int("venues", len(connectors)))
	}

	engine := bot.NewEngine(cfgHolder, connectors, logger)

	hub := websocket.NewHub(logger)
	hub.Seed = func() []models.WsMessage {
		msgs := []models.WsMessage{{Type: models.WsMessageTypeStatus, Data: engine.Status()}}
		for _, t := range engine.Cache().Snapshot() {
			msgs = append(msgs, models.WsMessage{Type: models.WsMessageTypeTicker, Data: t})
		}
		return msgs
	}
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := engine.Start(ctx, pairs); err != nil {
		logger.Fatal("failed to start engine", zap.Error(err))
	}
	go forwardFanout(ctx, engine, hub)
	go pushStatus(ctx, engine, hub)

	deps := &api.Dependencies{
		Engine: engine,
		Config: cfgHolder,
		Hub:    hub,
		Logger: logger,
	}
	router := api.SetupRoutes(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Engine.APIPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr), zap.Bool("simulation_mode", cfg.Engine.SimulationMode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	engine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// buildConnectors constructs a Connector for every enabled exchange and
// parses the configured trading pairs.
func buildConnectors(cfg *config.Config, logger *zap.Logger) (map[models.Venue]exchange.Connector, []models.TradingPair, error) {
	connectors := make(map[models.Venue]exchange.Connector)
	for name, exCfg := range cfg.Exchanges {
		if !exCfg.Enabled {
			continue
		}
		if !exchange.IsSupported(name) {
			logger.Warn("skipping unsupported exchange", zap.String("exchange", name))
			continue
		}
		conn, err := exchange.NewConnector(name, exCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("building connector %s: %w", name, err)
		}
		connectors[conn.Venue()] = conn
	}

	pairs := make([]models.TradingPair, 0, len(cfg.Trading.Pairs))
	for _, raw := range cfg.Trading.Pairs {
		pair, ok := models.ParseTradingPair(raw)
		if !ok {
			logger.Warn("skipping unparseable trading pair", zap.String("pair", raw))
			continue
		}
		pairs = append(pairs, pair)
	}

	return connectors, pairs, nil
}

// forwardFanout drains the engine's ticker/opportunity/trade/notification
// fan-out channels into the websocket hub until ctx is cancelled.
func forwardFanout(ctx context.Context, engine *bot.Engine, hub *websocket.Hub) {
	fanout := engine.Fanout()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-fanout.Tickers:
			hub.BroadcastTicker(t)
		case o := <-fanout.Opportunities:
			hub.BroadcastOpportunity(o)
		case tr := <-fanout.Trades:
			hub.BroadcastTrade(tr)
		case n := <-fanout.Notifications:
			hub.BroadcastNotification(n)
		}
	}
}

// pushStatus periodically broadcasts an EngineStatus snapshot so connected
// clients see counters move even between opportunities/trades.
func pushStatus(ctx context.Context, engine *bot.Engine, hub *websocket.Hub) {
	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hub.BroadcastStatus(engine.Status())
		}
	}
}
