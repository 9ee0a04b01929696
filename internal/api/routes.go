package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"arbitrage/internal/api/handlers"
	"arbitrage/internal/api/middleware"
	"arbitrage/internal/bot"
	"arbitrage/internal/config"
	"arbitrage/internal/websocket"
)

// Dependencies holds everything the control API needs; SetupRoutes never
// reaches into the engine or hub beyond what's listed here.
type Dependencies struct {
	Engine *bot.Engine
	Config *config.Holder
	Hub    *websocket.Hub
	Logger *zap.Logger
}

// SetupRoutes wires the control API: read-only views under
// /api, the single partial-update endpoint, the /ws upgrade, and the
// ambient /metrics and /debug/pprof endpoints.
//
// Middleware order: Recovery -> Logging -> CORS.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	h := handlers.NewEngineHandler(deps.Engine, deps.Config, deps.Logger)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/prices", h.GetPrices).Methods(http.MethodGet)
	api.HandleFunc("/opportunities", h.GetOpportunities).Methods(http.MethodGet)
	api.HandleFunc("/trades", h.GetTrades).Methods(http.MethodGet)
	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)
	api.HandleFunc("/portfolio", h.GetPortfolio).Methods(http.MethodGet)
	api.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/config", h.UpdateConfig).Methods(http.MethodPost)

	if deps.Hub != nil {
		router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, deps.Logger, w, r)
		}).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.HandleFunc("/heap", pprof.Handler("heap").ServeHTTP)
	debug.HandleFunc("/goroutine", pprof.Handler("goroutine").ServeHTTP)
	debug.HandleFunc("/block", pprof.Handler("block").ServeHTTP)
	debug.HandleFunc("/threadcreate", pprof.Handler("threadcreate").ServeHTTP)
	debug.HandleFunc("/mutex", pprof.Handler("mutex").ServeHTTP)
	debug.HandleFunc("/allocs", pprof.Handler("allocs").ServeHTTP)

	return router
}
