package economy

import (
	"errors"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/ledger"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type TransferRequest struct {
	ReceiverID uint   `json:"receiver_id"`
	Amount     int    `json:"amount"`
	Reason     string `json:"reason"`
}

type AllocateRequest struct {
	StaffID uint   `json:"staff_id"`
	Amount  int    `json:"amount"`
	Reason  string `json:"reason"`
}

type TransactionResponse struct {
	ID         uint   `json:"id"`
	SenderID   uint   `json:"sender_id"`
	ReceiverID uint   `json:"receiver_id"`
	Amount     int    `json:"amount"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"created_at"`
}

// Yardımcı: işlemi yapan kullanıcıyı al
func getActor(c *fiber.Ctx) (*models.User, error) {
	userID, err := auth.CurrentUserID(c)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}
	return &user, nil
}

// Defter hatalarını HTTP cevabına çevir
func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(fiber.StatusBadRequest, "Tutar 0'dan büyük olmalı")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(fiber.StatusBadRequest, "Yetersiz bakiye")
	case errors.Is(err, ledger.ErrIneligibleRecipient):
		return fiber.NewError(fiber.StatusBadRequest, "Alıcı bu işlem için uygun değil")
	case errors.Is(err, ledger.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "Bu kullanıcıya gönderim yetkiniz yok")
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Kayıt bulunamadı")
	case errors.Is(err, ledger.ErrOutOfStock):
		return fiber.NewError(fiber.StatusConflict, "Ürün stokta yok")
	case errors.Is(err, ledger.ErrCodeExhausted):
		return fiber.NewError(fiber.StatusConflict, "Fiş kodu üretilemedi, tekrar dene")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
	}
}

func txToResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:         tx.ID,
		SenderID:   tx.SenderID,
		ReceiverID: tx.ReceiverID,
		Amount:     tx.Amount,
		Reason:     tx.Reason,
		CreatedAt:  tx.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/staff/transfer - personelden öğrenciye coin gönderimi
func TransferHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TransferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		actor, err := getActor(c)
		if err != nil {
			return err
		}

		tx, err := svc.Transfer(actor.ID, body.ReceiverID, body.Amount, body.Reason)
		if err != nil {
			return mapLedgerError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    actor.BranchID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "transaction",
			EntityID:    tx.ID,
			Action:      models.AuditActionTransfer,
			Description: "Coin gönderildi",
			After:       tx,
		})

		return c.Status(fiber.StatusCreated).JSON(txToResponse(tx))
	}
}

// POST /api/hod/allocate - hod kendi bölümündeki teacher/tutor'a bütçe aktarır
func AllocateHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AllocateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		actor, err := getActor(c)
		if err != nil {
			return err
		}

		tx, err := svc.Allocate(actor.ID, body.StaffID, body.Amount, body.Reason)
		if err != nil {
			return mapLedgerError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    actor.BranchID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "transaction",
			EntityID:    tx.ID,
			Action:      models.AuditActionAllocate,
			Description: "Bölüm içi bütçe aktarımı",
			After:       tx,
		})

		return c.Status(fiber.StatusCreated).JSON(txToResponse(tx))
	}
}

// POST /api/student/store/:id/buy - öğrenci mağazadan ürün alır
func PurchaseHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID, err := c.ParamsInt("id")
		if err != nil || itemID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün id")
		}

		actor, err := getActor(c)
		if err != nil {
			return err
		}

		receipt, tx, err := svc.Purchase(actor.ID, uint(itemID))
		if err != nil {
			return mapLedgerError(err)
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    actor.BranchID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "receipt",
			EntityID:    receipt.ID,
			Action:      models.AuditActionPurchase,
			Description: "Mağaza alışverişi: " + tx.Reason,
			After:       receipt,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"receipt_id":  receipt.ID,
			"unique_code": receipt.UniqueCode,
			"status":      receipt.Status,
			"transaction": txToResponse(tx),
		})
	}
}
