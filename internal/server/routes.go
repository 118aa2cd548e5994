package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig holds the pieces the router wires together
type RouterConfig struct {
	API            *APIHandler
	Stream         *StreamHandler
	Recorder       Recorder
	Metrics        http.Handler // served on /metrics when set
	AllowedOrigins []string
	Version        string
}

// NewRouter builds the HTTP handler for the planter API
func NewRouter(cfg RouterConfig) http.Handler {
	rec := recorderOrNop(cfg.Recorder)

	router := mux.NewRouter()
	router.Use(instrument(rec))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plants", cfg.API.HandlePlants).Methods(http.MethodGet)
	api.HandleFunc("/plants/{id}", cfg.API.HandlePlant).Methods(http.MethodGet)
	api.HandleFunc("/plants/{id}/trend", cfg.API.HandleTrend).Methods(http.MethodGet)
	api.HandleFunc("/plants/{id}/dashboard", cfg.API.HandleDashboardData).Methods(http.MethodGet)
	api.HandleFunc("/settings", cfg.API.HandleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", cfg.API.HandlePutSettings).Methods(http.MethodPut)
	api.HandleFunc("/stats", cfg.API.HandleStats).Methods(http.MethodGet)
	if cfg.Stream != nil {
		api.Handle("/stream", cfg.Stream).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": cfg.Version})
	}).Methods(http.MethodGet)

	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

// instrument records status and latency per route template
func instrument(rec Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := "unknown"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			rec.ObserveRequest(route, sw.status, time.Since(start))
		})
	}
}

// statusWriter captures the response status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the stream handler upgrade through the wrapper
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}
