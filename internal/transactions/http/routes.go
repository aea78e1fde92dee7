package transactionhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/txdash/internal/platform/httpx"
)

// MountRoutes registers the dashboard query endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
		}),
	)

	r.Get("/transactions", h.handleList)
	r.Get("/statistics", h.handleStatistics)
	r.Get("/bar-chart", h.handleBarChart)
	r.Get("/pie-chart", h.handlePieChart)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/combined", h.handleCombined)
	})

	// Paths used by the first dashboard release.
	r.Get("/barchart", h.handleBarChart)
	r.Get("/piechart", h.handlePieChart)
	r.With(limiter).Get("/combined-data", h.handleCombined)
}
