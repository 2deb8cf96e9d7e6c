package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/logger"
)

// HealthChecker reports whether the database is reachable.
type HealthChecker func(ctx context.Context) error

type Router struct {
	Portfolios *PortfolioHandler
	NetWorth   *NetWorthHandler
	Prices     *PriceHandler
	Admin      *AdminHandler
	Health     HealthChecker
	Logger     *zap.Logger
}

// Handler builds the routed API wrapped in CORS and request logging.
func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", rt.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if rt.Portfolios != nil {
		api.HandleFunc("/portfolios", rt.Portfolios.HandleList).Methods(http.MethodGet)
		api.HandleFunc("/portfolios", rt.Portfolios.HandleCreate).Methods(http.MethodPost)
		api.HandleFunc("/portfolios/{id:[0-9]+}", rt.Portfolios.HandleGet).Methods(http.MethodGet)
		api.HandleFunc("/portfolios/{id:[0-9]+}", rt.Portfolios.HandleDelete).Methods(http.MethodDelete)
		api.HandleFunc("/portfolios/{id:[0-9]+}/positions", rt.Portfolios.HandleAddPosition).Methods(http.MethodPost)
		api.HandleFunc("/portfolios/{id:[0-9]+}/positions/{positionID:[0-9]+}/cost-basis", rt.Portfolios.HandleUpdateCostBasis).Methods(http.MethodPut)
	}
	if rt.NetWorth != nil {
		api.HandleFunc("/networth/current", rt.NetWorth.HandleCurrent).Methods(http.MethodGet)
		api.HandleFunc("/networth/history", rt.NetWorth.HandleHistory).Methods(http.MethodGet)
	}
	if rt.Prices != nil {
		api.HandleFunc("/prices/latest", rt.Prices.HandleLatest).Methods(http.MethodGet)
		api.HandleFunc("/prices/history", rt.Prices.HandleHistory).Methods(http.MethodGet)
		api.HandleFunc("/prices/refresh", rt.Prices.HandleRefresh).Methods(http.MethodPost)
	}
	if rt.Admin != nil {
		api.HandleFunc("/admin/snapshots/run", rt.Admin.HandleRunSnapshots).Methods(http.MethodPost)
		api.HandleFunc("/admin/snapshots/status", rt.Admin.HandleStatus).Methods(http.MethodGet)
	}

	return cors(requestLogger(logger.OrNop(rt.Logger).Named("http"), r))
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.Health != nil {
		if err := rt.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+UserIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
