package admin

import (
	"errors"
	"strings"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type EditUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"` // boş değilse güncellenir
	Role     *string `json:"role"`
	BranchID *uint   `json:"branch_id"`
	ClassID  *uint   `json:"class_id"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	BranchID *uint           `json:"branch_id"`
	ClassID  *uint           `json:"class_id"`
	Balance  int             `json:"balance"`
}

// EditUserHandler - principal her alanı düzenleyebilir, rol dahil.
// Rol değişiminde bölüm/sınıf bağlantıları yeni role göre kurulur.
func EditUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}
		before := user

		var body EditUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return fiber.NewError(fiber.StatusBadRequest, "İsim boş olamaz")
				}
				user.Name = name
			}

			if body.Email != nil {
				email := strings.ToLower(strings.TrimSpace(*body.Email))
				if email == "" {
					return fiber.NewError(fiber.StatusBadRequest, "Email boş olamaz")
				}
				var exist models.User
				err := tx.Where("email = ? AND id <> ?", email, user.ID).First(&exist).Error
				if err == nil {
					return fiber.NewError(fiber.StatusConflict, "Bu email zaten kayıtlı")
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				user.Email = email
			}

			if body.Password != nil && strings.TrimSpace(*body.Password) != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				user.PasswordHash = string(hash)
			}

			if body.Role != nil {
				newRole := models.UserRole(*body.Role)
				switch newRole {
				case models.RolePrincipal, models.RoleHOD, models.RoleTeacher, models.RoleTutor, models.RoleStudent:
					// ok
				default:
					return fiber.NewError(fiber.StatusBadRequest, "Geçersiz rol")
				}
				user.Role = newRole

				// Bölüm bağlantısı (teacher/hod)
				if newRole == models.RoleTeacher || newRole == models.RoleHOD {
					user.BranchID = body.BranchID
					user.ClassID = nil
				}

				// Sınıf sorumluluğu (tutor/hod): eski sınıftan çöz, yenisine bağla
				if newRole == models.RoleTutor || newRole == models.RoleHOD {
					if err := tx.Model(&models.ClassRoom{}).
						Where("tutor_id = ?", user.ID).
						Update("tutor_id", nil).Error; err != nil {
						return err
					}
					if body.ClassID != nil {
						var cls models.ClassRoom
						if err := tx.First(&cls, "id = ?", *body.ClassID).Error; err != nil {
							return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
						}
						if err := tx.Model(&cls).Update("tutor_id", user.ID).Error; err != nil {
							return err
						}
						if user.BranchID == nil {
							user.BranchID = &cls.BranchID
						}
					}
					user.ClassID = nil
				}

				// Öğrenci: sınıf değişince denormalize branch_id de güncellenir
				if newRole == models.RoleStudent && body.ClassID != nil {
					var cls models.ClassRoom
					if err := tx.First(&cls, "id = ?", *body.ClassID).Error; err != nil {
						return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
					}
					user.ClassID = &cls.ID
					user.BranchID = &cls.BranchID
				}
			} else if user.Role == models.RoleStudent && body.ClassID != nil {
				// Rol aynı kalırken öğrencinin sınıfı taşınabilir
				var cls models.ClassRoom
				if err := tx.First(&cls, "id = ?", *body.ClassID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
				}
				user.ClassID = &cls.ID
				user.BranchID = &cls.BranchID
			}

			return tx.Save(&user).Error
		})
		if txErr != nil {
			var fe *fiber.Error
			if errors.As(txErr, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    user.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "user",
				EntityID:    user.ID,
				Action:      models.AuditActionUpdate,
				Description: "Kullanıcı güncellendi: " + user.Name,
				Before: fiber.Map{
					"name": before.Name, "email": before.Email, "role": before.Role,
					"branch_id": before.BranchID, "class_id": before.ClassID,
				},
				After: fiber.Map{
					"name": user.Name, "email": user.Email, "role": user.Role,
					"branch_id": user.BranchID, "class_id": user.ClassID,
				},
			})
		}

		return c.JSON(UserResponse{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			BranchID: user.BranchID,
			ClassID:  user.ClassID,
			Balance:  user.Balance,
		})
	}
}

// Silme politikası: principal silinemez; silinen kullanıcının sınıf
// sorumlulukları çözülür. Defter satırları bilerek yerinde kalır,
// geçmiş hesap silinse de okunabilir olmalı.
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		if user.Role == models.RolePrincipal {
			return fiber.NewError(fiber.StatusConflict, "Principal hesabı silinemez")
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.ClassRoom{}).
				Where("tutor_id = ?", user.ID).
				Update("tutor_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&user).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı silinemedi")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    user.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "user",
				EntityID:    user.ID,
				Action:      models.AuditActionDelete,
				Description: "Kullanıcı silindi: " + user.Name,
			})
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
