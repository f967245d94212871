package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// RateLimitRejections counts requests refused by the Redis rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_rate_limit_rejections_total",
		Help: "Requests rejected by the per-route rate limiter",
	}, []string{"resource"})
)

var (
	promOnce sync.Once
	promMW   *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Fiber Prometheus middleware.
// The collectors register with the default registry, so they are created once.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMW = fiberprometheus.New(serviceName)
	})
	return promMW
}

// MetricsMiddleware records request metrics for every route except the scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return p.Middleware(c)
	}
}
