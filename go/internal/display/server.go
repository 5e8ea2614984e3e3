package display

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// NewServer builds the display HTTP server with CORS and h2c.
func NewServer(addr string, h *Handler) *http.Server {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(c.Handler(mux), &http2.Server{}),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

// RegisterHubMetrics exports the hub's connection counts.
func RegisterHubMetrics(reg prometheus.Registerer, hub *Hub) error {
	connections := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "pickem",
		Subsystem: "display",
		Name:      "connections",
		Help:      "Open screen connections",
	}, func() float64 {
		return float64(hub.Stats().TotalConnections)
	})
	games := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "pickem",
		Subsystem: "display",
		Name:      "games",
		Help:      "Games with at least one screen connected",
	}, func() float64 {
		return float64(hub.Stats().ActiveGames)
	})
	for _, c := range []prometheus.Collector{connections, games} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
