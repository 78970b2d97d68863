package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware instruments served requests with Prometheus metrics
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// Route pattern keeps label cardinality bounded
		route := c.Route().Path
		// label values are retained by the registry
		ObserveHTTPRequest(utils.CopyString(c.Method()), route, strconv.Itoa(status), time.Since(start))
		return err
	}
}

// Handler exposes the Prometheus registry
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
