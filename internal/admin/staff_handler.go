package admin

import (
	"errors"
	"strings"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateStaffRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	Role     string `json:"role" validate:"required,oneof=teacher tutor hod"`
	BranchID *uint  `json:"branch_id"` // teacher/hod için
	ClassID  *uint  `json:"class_id"`  // tutor için zorunlu gibi, hod için opsiyonel
}

type StaffResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	BranchID *uint           `json:"branch_id"`
	Balance  int             `json:"balance"`
}

// CreateStaffHandler - principal personel hesabı açar. Tutor/hod için sınıf
// sorumluluğu atanabilir; bölümü boşsa sınıfın bölümü devralınır.
func CreateStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStaffRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email, şifre ve geçerli rol zorunlu")
		}

		role := models.UserRole(body.Role)

		var exist models.User
		err := database.DB.Where("email = ?", body.Email).First(&exist).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu email zaten kayıtlı")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıt kontrolü yapılamadı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         role,
			QRSecret:     uuid.NewString(),
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			// Bölüm ataması (teacher/hod)
			if (role == models.RoleTeacher || role == models.RoleHOD) && body.BranchID != nil {
				var branch models.Branch
				if err := tx.First(&branch, "id = ?", *body.BranchID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, "Bölüm bulunamadı")
				}
				user.BranchID = &branch.ID
			}

			if err := tx.Create(&user).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Personel oluşturulamadı")
			}

			// Sınıf sorumluluğu (tutor/hod)
			if (role == models.RoleTutor || role == models.RoleHOD) && body.ClassID != nil {
				var cls models.ClassRoom
				if err := tx.First(&cls, "id = ?", *body.ClassID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
				}
				if err := tx.Model(&cls).Update("tutor_id", user.ID).Error; err != nil {
					return err
				}
				if user.BranchID == nil {
					if err := tx.Model(&user).Update("branch_id", cls.BranchID).Error; err != nil {
						return err
					}
					user.BranchID = &cls.BranchID
				}
			}

			return nil
		})
		if txErr != nil {
			var fe *fiber.Error
			if errors.As(txErr, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Personel oluşturulamadı")
		}

		userID, userName, aerr := actorInfo(c)
		if aerr == nil {
			_ = audit.WriteLog(audit.LogOptions{
				BranchID:    user.BranchID,
				UserID:      userID,
				UserName:    userName,
				EntityType:  "user",
				EntityID:    user.ID,
				Action:      models.AuditActionCreate,
				Description: "Personel oluşturuldu: " + user.Name + " (" + string(role) + ")",
			})
		}

		return c.Status(fiber.StatusCreated).JSON(StaffResponse{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			BranchID: user.BranchID,
			Balance:  user.Balance,
		})
	}
}

func ListStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var staff []models.User
		if err := database.DB.
			Where("role IN ?", []models.UserRole{models.RoleTeacher, models.RoleTutor, models.RoleHOD}).
			Order("name").
			Find(&staff).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Personel listelenemedi")
		}

		res := make([]StaffResponse, 0, len(staff))
		for _, u := range staff {
			res = append(res, StaffResponse{
				ID:       u.ID,
				Name:     u.Name,
				Email:    u.Email,
				Role:     u.Role,
				BranchID: u.BranchID,
				Balance:  u.Balance,
			})
		}

		return c.JSON(res)
	}
}
