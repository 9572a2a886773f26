package admin

import (
	"errors"
	"strings"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	ClassCount int    `json:"class_count"`
	StaffCount int    `json:"staff_count"`
	CreatedAt  string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name string `json:"name"`
}

type UpdateBranchRequest struct {
	Name *string `json:"name"`
}

// Yardımcı: işlemi yapan kullanıcıyı al (audit için)
func actorInfo(c *fiber.Ctx) (uint, string, error) {
	userID, err := auth.CurrentUserID(c)
	if err != nil {
		return 0, "", err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}
	return userID, user.Name, nil
}

// ----------------------------------------
// BÖLÜM CRUD
// ----------------------------------------

func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Bölüm adı boş olamaz")
		}

		var exist models.Branch
		if err := database.DB.Where("name = ?", body.Name).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bölüm zaten var")
		}

		branch := models.Branch{Name: body.Name}
		if err := database.DB.Create(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölüm oluşturulamadı")
		}

		userID, userName, err := actorInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "branch",
				EntityID:    branch.ID,
				Action:      models.AuditActionCreate,
				Description: "Bölüm oluşturuldu: " + branch.Name,
				After:       branch,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(BranchResponse{
			ID:        branch.ID,
			Name:      branch.Name,
			CreatedAt: branch.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := database.DB.Preload("Classes").Preload("Staff").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölümler listelenemedi")
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, BranchResponse{
				ID:         b.ID,
				Name:       b.Name,
				ClassCount: len(b.Classes),
				StaffCount: len(b.Staff),
				CreatedAt:  b.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}

func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bölüm bulunamadı")
		}
		before := branch

		var body UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Bölüm adı boş olamaz")
			}
			var exist models.Branch
			err := database.DB.Where("name = ? AND id <> ?", name, branch.ID).First(&exist).Error
			if err == nil {
				return fiber.NewError(fiber.StatusConflict, "Bu isimde bölüm zaten var")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusInternalServerError, "Bölüm kontrolü yapılamadı")
			}
			branch.Name = name
		}

		if err := database.DB.Save(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölüm güncellenemedi")
		}

		userID, userName, err := actorInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "branch",
				EntityID:    branch.ID,
				Action:      models.AuditActionUpdate,
				Description: "Bölüm güncellendi: " + branch.Name,
				Before:      before,
				After:       branch,
			})
		}

		return c.JSON(BranchResponse{
			ID:        branch.ID,
			Name:      branch.Name,
			CreatedAt: branch.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// Silme politikası: bölüme bağlı sınıf veya personel varken silinemez
func DeleteBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var branch models.Branch
		if err := database.DB.First(&branch, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bölüm bulunamadı")
		}

		var classCount int64
		database.DB.Model(&models.ClassRoom{}).Where("branch_id = ?", branch.ID).Count(&classCount)
		if classCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bölüme bağlı sınıflar var, önce onları taşı veya sil")
		}

		var staffCount int64
		database.DB.Model(&models.User{}).Where("branch_id = ?", branch.ID).Count(&staffCount)
		if staffCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bölüme bağlı kullanıcılar var, önce onları taşı")
		}

		if err := database.DB.Delete(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bölüm silinemedi")
		}

		userID, userName, err := actorInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "branch",
				EntityID:    branch.ID,
				Action:      models.AuditActionDelete,
				Description: "Bölüm silindi: " + branch.Name,
				Before:      branch,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
