package tutor

import (
	"errors"
	"strings"

	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/authz"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type AddStudentRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type UpdateStudentClassRequest struct {
	ClassID uint `json:"class_id"`
}

// Yardımcı: işlemi yapan kullanıcı ve yetkileri
func getActorWithCaps(c *fiber.Ctx) (*models.User, *authz.Capabilities, error) {
	userID, err := auth.CurrentUserID(c)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	caps, err := authz.Resolve(database.DB, &user)
	if err != nil {
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Yetkiler çözümlenemedi")
	}
	return &user, caps, nil
}

// POST /api/tutor/students - sınıf sorumlusu kendi sınıfına öğrenci ekler.
// Öğrenci sorumlunun ilk sınıfına bağlanır, bölümü sınıftan devralır.
func AddStudentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, caps, err := getActorWithCaps(c)
		if err != nil {
			return err
		}

		if !caps.IsTutor {
			return fiber.NewError(fiber.StatusForbidden, "Sınıf sorumlusu değilsiniz")
		}

		var body AddStudentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email ve şifre zorunlu")
		}

		var cls models.ClassRoom
		if err := database.DB.First(&cls, "id = ?", caps.TutorClassIDs[0]).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sınıf bulunamadı")
		}

		var exist models.User
		err = database.DB.Where("email = ?", body.Email).First(&exist).Error
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

		student := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleStudent,
			ClassID:      &cls.ID,
			BranchID:     &cls.BranchID, // sınıftan devralınır
			QRSecret:     uuid.NewString(),
		}
		if err := database.DB.Create(&student).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Öğrenci oluşturulamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    student.BranchID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "user",
			EntityID:    student.ID,
			Action:      models.AuditActionCreate,
			Description: "Öğrenci eklendi: " + student.Name + " -> " + cls.Name,
		})

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        student.ID,
			"name":      student.Name,
			"email":     student.Email,
			"class_id":  student.ClassID,
			"branch_id": student.BranchID,
		})
	}
}

// PUT /api/tutor/students/:id/class - sınıf sorumlusu yalnızca kendi
// sınıfındaki öğrencinin sınıf atamasını değiştirebilir. Rol alanına dokunamaz.
func UpdateStudentClassHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, caps, err := getActorWithCaps(c)
		if err != nil {
			return err
		}

		id := c.Params("id")
		var student models.User
		if err := database.DB.First(&student, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Öğrenci bulunamadı")
		}

		if !caps.CanEditUser(&student) {
			return fiber.NewError(fiber.StatusForbidden, "Bu öğrenciyi düzenleme yetkiniz yok")
		}
		if student.Role != models.RoleStudent {
			return fiber.NewError(fiber.StatusForbidden, "Yalnızca öğrenci kayıtları düzenlenebilir")
		}

		var body UpdateStudentClassRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri gönderildi")
		}

		var cls models.ClassRoom
		if err := database.DB.First(&cls, "id = ?", body.ClassID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
		}

		before := student

		// class_id yazılırken denormalize branch_id aynı transaction'da güncellenir
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Model(&student).Updates(map[string]interface{}{
				"class_id":  cls.ID,
				"branch_id": cls.BranchID,
			}).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Öğrenci güncellenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &cls.BranchID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "user",
			EntityID:    student.ID,
			Action:      models.AuditActionUpdate,
			Description: "Öğrenci sınıfı değişti: " + student.Name,
			Before:      fiber.Map{"class_id": before.ClassID, "branch_id": before.BranchID},
			After:       fiber.Map{"class_id": cls.ID, "branch_id": cls.BranchID},
		})

		return c.JSON(fiber.Map{
			"id":        student.ID,
			"class_id":  cls.ID,
			"branch_id": cls.BranchID,
		})
	}
}
