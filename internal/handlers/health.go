package handlers

import (
	"context"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthResponse is the body of GET /api/health/.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Version   string    `json:"version"`
}

// Health reports service and database status. It always answers 200 so load
// balancers can tell a degraded instance from a dead one.
func Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Database:  "connected",
		Version:   Version,
	}
	if !database.IsConnected(ctx) {
		resp.Status = "degraded"
		resp.Database = "disconnected"
	}
	return c.JSON(resp)
}
