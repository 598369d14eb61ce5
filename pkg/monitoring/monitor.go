package monitoring

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// LiveConnections tracks currently accepted TCP clients.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "millionaire_live_connections",
		Help: "Number of currently connected clients",
	})

	// ActiveGames tracks quiz runs currently in progress.
	ActiveGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "millionaire_active_games",
		Help: "Number of games currently in progress",
	})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "millionaire_requests_total",
		Help: "Processed requests by type and response code",
	}, []string{"type", "code"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "millionaire_rejected_connections_total",
		Help: "Connections refused before the session was created",
	}, []string{"reason"})
)

// ObserveRequest records one processed request.
func ObserveRequest(requestType string, code int) {
	requestTotal.WithLabelValues(requestType, strconv.Itoa(code)).Inc()
}

// ObserveRejected records a connection refused at accept time.
func ObserveRejected(reason string) {
	rejectedTotal.WithLabelValues(reason).Inc()
}

// StartMetricsServer exposes /metrics on its own HTTP port next to the
// game listener. It runs until the process exits.
func StartMetricsServer(port int, log *zap.Logger) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Info("metrics server listening", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
