package admin

import (
	"strings"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ClassResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	BranchID     uint    `json:"branch_id"`
	BranchName   string  `json:"branch_name"`
	TutorID      *uint   `json:"tutor_id"`
	TutorName    *string `json:"tutor_name"`
	StudentCount int     `json:"student_count"`
}

type CreateClassRequest struct {
	Name     string `json:"name"`
	BranchID uint   `json:"branch_id"`
}

type UpdateClassRequest struct {
	Name *string `json:"name"`
}

func classToResponse(cls *models.ClassRoom) ClassResponse {
	res := ClassResponse{
		ID:           cls.ID,
		Name:         cls.Name,
		BranchID:     cls.BranchID,
		BranchName:   cls.Branch.Name,
		TutorID:      cls.TutorID,
		StudentCount: len(cls.Students),
	}
	if cls.Tutor != nil {
		res.TutorName = &cls.Tutor.Name
	}
	return res
}

func CreateClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateClassRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Sınıf adı boş olamaz")
		}

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", body.BranchID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bölüm bulunamadı")
		}

		cls := models.ClassRoom{
			Name:     body.Name,
			BranchID: branch.ID,
		}
		if err := database.DB.Create(&cls).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sınıf oluşturulamadı")
		}

		userID, userName, err := actorInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    &branch.ID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "class",
				EntityID:    cls.ID,
				Action:      models.AuditActionCreate,
				Description: "Sınıf oluşturuldu: " + cls.Name,
				After:       cls,
			})
		}

		cls.Branch = branch
		return c.Status(fiber.StatusCreated).JSON(classToResponse(&cls))
	}
}

// ListClassesHandler - kayıt formu dropdown'ı da bunu kullanır, auth istemez
func ListClassesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var classes []models.ClassRoom
		if err := database.DB.
			Preload("Branch").
			Preload("Tutor").
			Preload("Students").
			Find(&classes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sınıflar listelenemedi")
		}

		res := make([]ClassResponse, 0, len(classes))
		for i := range classes {
			res = append(res, classToResponse(&classes[i]))
		}

		return c.JSON(res)
	}
}

func UpdateClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cls models.ClassRoom
		if err := database.DB.Preload("Branch").First(&cls, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
		}
		before := cls

		var body UpdateClassRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Sınıf adı boş olamaz")
			}
			cls.Name = name
		}

		if err := database.DB.Save(&cls).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sınıf güncellenemedi")
		}

		userID, userName, err := actorInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    &cls.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "class",
				EntityID:    cls.ID,
				Action:      models.AuditActionUpdate,
				Description: "Sınıf güncellendi: " + cls.Name,
				Before:      before,
				After:       cls,
			})
		}

		return c.JSON(classToResponse(&cls))
	}
}

// Silme politikası: sınıf silinince öğrenciler sınıfsız kalır
// (class_id ve denormalize branch_id temizlenir), hesapları durur ama silinmez
func DeleteClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var cls models.ClassRoom
		if err := database.DB.First(&cls, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).
				Where("class_id = ?", cls.ID).
				Updates(map[string]interface{}{"class_id": nil, "branch_id": nil}).Error; err != nil {
				return err
			}
			return tx.Delete(&cls).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sınıf silinemedi")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    &cls.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "class",
				EntityID:    cls.ID,
				Action:      models.AuditActionDelete,
				Description: "Sınıf silindi: " + cls.Name,
				Before:      cls,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
