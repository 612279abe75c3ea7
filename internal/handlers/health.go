package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pairline/pairline/internal/config"
)

// HealthResponse reports the health of the service and its dependencies
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports service health including MongoDB and Redis connectivity
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "healthy",
		Services: map[string]string{"mongodb": "healthy", "redis": "healthy"},
	}

	if err := config.MongoDB.Client().Ping(ctx, nil); err != nil {
		resp.Status = "unhealthy"
		resp.Services["mongodb"] = "unhealthy: " + err.Error()
	}

	if err := config.Redis.Ping(ctx).Err(); err != nil {
		resp.Status = "unhealthy"
		resp.Services["redis"] = "unhealthy: " + err.Error()
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
