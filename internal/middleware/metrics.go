package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics registers the Prometheus HTTP middleware and exposes the
// scrape endpoint at /metrics. The collectors live on the default registry,
// so they are created once and shared across apps (tests build several).
func InitMetrics(app *fiber.App, serviceName string) {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
