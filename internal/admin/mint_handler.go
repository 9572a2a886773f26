package admin

import (
	"errors"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/ledger"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type MintRequest struct {
	UserID uint   `json:"user_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// MintHandler - principal karşılıksız coin basar. Kendi bakiyesinden
// düşmez; bütçe tahsisi defterde principal göndericili satır olarak görünür.
func MintHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MintRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		principalID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		tx, err := svc.Mint(principalID, body.UserID, body.Amount, body.Reason)
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrInvalidAmount):
				return fiber.NewError(fiber.StatusBadRequest, "Tutar 0'dan büyük olmalı")
			case errors.Is(err, ledger.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
			case errors.Is(err, ledger.ErrForbidden):
				return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Coin basılamadı")
			}
		}

		var targetBranch *uint
		targetName := "?"
		var target models.User
		if err := database.DB.First(&target, body.UserID).Error; err == nil {
			targetBranch = target.BranchID
			targetName = target.Name
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    targetBranch,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "transaction",
				EntityID:    tx.ID,
				Action:      models.AuditActionMint,
				Description: "Bütçe tahsisi: " + targetName,
				After:       tx,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"transaction_id": tx.ID,
			"receiver_id":    tx.ReceiverID,
			"amount":         tx.Amount,
			"reason":         tx.Reason,
		})
	}
}
