package controllers

import (
	"net/http"

	"github.com/poofware/booking-service/internal/app"
	"github.com/poofware/booking-service/internal/dtos"
	"github.com/poofware/booking-service/internal/utils"
)

// HealthController checks the optional backends.
type HealthController struct {
	app *app.App
}

func NewHealthController(app *app.App) *HealthController {
	return &HealthController{app}
}

// HealthCheckHandler => GET /health
func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	pg, rds, err := c.app.Ping(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Backend unreachable",
			dtos.HealthCheckResponse{Status: "DEGRADED", Postgres: pg, Redis: rds}, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK", Postgres: pg, Redis: rds})
}
