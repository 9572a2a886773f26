package admin

import (
	"strings"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateStoreItemRequest struct {
	Name  string `json:"name"`
	Cost  int    `json:"cost"`
	Stock int    `json:"stock"`
}

type UpdateStoreItemRequest struct {
	Name  *string `json:"name"`
	Cost  *int    `json:"cost"`
	Stock *int    `json:"stock"`
}

type StoreItemResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Cost  int    `json:"cost"`
	Stock int    `json:"stock"`
}

func CreateStoreItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStoreItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün adı boş olamaz")
		}
		if body.Cost <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat 0'dan büyük olmalı")
		}
		if body.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Stok negatif olamaz")
		}

		creatorID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		item := models.StoreItem{
			Name:      body.Name,
			Cost:      body.Cost,
			Stock:     body.Stock,
			CreatorID: creatorID,
		}
		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "store_item",
				EntityID:    item.ID,
				Action:      models.AuditActionCreate,
				Description: "Ürün eklendi: " + item.Name,
				After:       item,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(StoreItemResponse{
			ID:    item.ID,
			Name:  item.Name,
			Cost:  item.Cost,
			Stock: item.Stock,
		})
	}
}

func ListStoreItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []models.StoreItem
		if err := database.DB.Order("name").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]StoreItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, StoreItemResponse{ID: it.ID, Name: it.Name, Cost: it.Cost, Stock: it.Stock})
		}

		return c.JSON(res)
	}
}

func UpdateStoreItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.StoreItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}
		before := item

		var body UpdateStoreItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ürün adı boş olamaz")
			}
			item.Name = name
		}
		if body.Cost != nil {
			if *body.Cost <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Fiyat 0'dan büyük olmalı")
			}
			item.Cost = *body.Cost
		}
		if body.Stock != nil {
			if *body.Stock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Stok negatif olamaz")
			}
			item.Stock = *body.Stock
		}

		if err := database.DB.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "store_item",
				EntityID:    item.ID,
				Action:      models.AuditActionUpdate,
				Description: "Ürün güncellendi: " + item.Name,
				Before:      before,
				After:       item,
			})
		}

		return c.JSON(StoreItemResponse{ID: item.ID, Name: item.Name, Cost: item.Cost, Stock: item.Stock})
	}
}

// Ürün silinebilir; fişler ürün id'sini tutmaya devam eder
func DeleteStoreItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var item models.StoreItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		if err := database.DB.Delete(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "store_item",
				EntityID:    item.ID,
				Action:      models.AuditActionDelete,
				Description: "Ürün silindi: " + item.Name,
				Before:      item,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
