package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"storyforge/internal/service"
)

type healthResponse struct {
	Status           string `json:"status"`
	GeminiConfigured bool   `json:"geminiConfigured"`
	ModelsCached     int    `json:"modelsCached"`
	Database         string `json:"database"`
	Archive          string `json:"archive"`
	Timestamp        string `json:"timestamp"`
}

// HealthCheck reports configuration and, when a database is configured,
// its connectivity. A failed ping answers 503.
//
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} errorPayload
// @Router /api/health [get]
func HealthCheck(db *sql.DB, svc service.ConversionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := svc.Status()
		res := healthResponse{
			Status:           "ok",
			GeminiConfigured: st.GeminiConfigured,
			ModelsCached:     st.ModelsCached,
			Database:         "disabled",
			Archive:          "disabled",
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		}
		if st.ArchiveEnabled {
			res.Archive = "enabled"
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
			res.Database = "ok"
		}

		return c.Status(fiber.StatusOK).JSON(res)
	}
}

// LivenessProbe answers 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
