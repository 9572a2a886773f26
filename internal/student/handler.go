package student

import (
	"fmt"

	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/student/qr - QR payload'ı. Görüntüye çevirme istemci tarafında.
func QRHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"payload": fmt.Sprintf("USER-%d", userID),
		})
	}
}

// GET /api/student/receipts - öğrencinin fişleri, en yeni önce
func ReceiptsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var receipts []models.Receipt
		if err := database.DB.Preload("Item").
			Where("student_id = ?", userID).
			Order("created_at DESC").
			Find(&receipts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fişler listelenemedi")
		}

		res := make([]fiber.Map, 0, len(receipts))
		for _, r := range receipts {
			itemName := ""
			if r.Item != nil {
				itemName = r.Item.Name
			}
			res = append(res, fiber.Map{
				"id":          r.ID,
				"item_id":     r.ItemID,
				"item_name":   itemName,
				"unique_code": r.UniqueCode,
				"status":      r.Status,
				"created_at":  r.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}
