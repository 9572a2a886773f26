package audit

import (
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/audit-logs?entity_type=user&limit=50
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > 200 {
			limit = 50
		}

		q := database.DB.Model(&models.AuditLog{}).Order("created_at DESC").Limit(limit)

		if et := c.Query("entity_type"); et != "" {
			q = q.Where("entity_type = ?", et)
		}
		if action := c.Query("action"); action != "" {
			q = q.Where("action = ?", action)
		}

		var logs []models.AuditLog
		if err := q.Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Denetim kayıtları listelenemedi")
		}

		return c.JSON(logs)
	}
}
