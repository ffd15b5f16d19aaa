package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"eventa/utils"
)

var (
	feedFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventa_feed_fetches_total",
			Help: "Event feed page fetches by outcome",
		},
		[]string{"status"},
	)

	votesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventa_votes_cast_total",
			Help: "Votes cast by method",
		},
		[]string{"method"},
	)

	purchasesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventa_purchases_created_total",
			Help: "Pending purchases created",
		},
	)

	checkIns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventa_check_ins_total",
			Help: "Tickets redeemed at the entrance",
		},
	)

	statsCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventa_vote_stats_cache_total",
			Help: "Vote stats cache lookups by result",
		},
		[]string{"result"},
	)
)

func TrackFeedFetch(status string) {
	feedFetches.WithLabelValues(status).Inc()
}

func TrackVoteCast(method string) {
	votesCast.WithLabelValues(method).Inc()
}

func TrackPurchaseCreated() {
	purchasesCreated.Inc()
}

func TrackCheckIn() {
	checkIns.Inc()
}

func TrackStatsCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	statsCache.WithLabelValues(result).Inc()
}

// StartMetricsServer serves /metrics and /healthz on a sidecar port
// until ctx ends.
func StartMetricsServer(ctx context.Context, port string, rdb *redis.Client, log *slog.Logger) {
	e := echo.New()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		if rdb != nil {
			if err := utils.RedisHealthCheck(rdb); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: e,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server failed", "error", err)
	}
}
