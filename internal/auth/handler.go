package auth

import (
	"errors"
	"strings"

	"scholarcash-backend/internal/config"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterStudentRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	ClassID  uint   `json:"class_id" validate:"required"`
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Email ve şifre zorunlu")
		}

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"branch_id": user.BranchID,
				"class_id":  user.ClassID,
				"balance":   user.Balance,
			},
		})
	}
}

// RegisterStudentHandler - öğrenci kendi hesabını açar, sınıf seçer.
// Bölüm bağlantısı sınıftan otomatik devralınır.
func RegisterStudentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterStudentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, email, şifre ve sınıf zorunlu")
		}

		var cls models.ClassRoom
		if err := database.DB.First(&cls, "id = ?", body.ClassID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sınıf bulunamadı")
		}

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

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        student.ID,
			"name":      student.Name,
			"email":     student.Email,
			"role":      student.Role,
			"class_id":  student.ClassID,
			"branch_id": student.BranchID,
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		response := fiber.Map{
			"user_id":   user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"branch_id": user.BranchID,
			"class_id":  user.ClassID,
			"balance":   user.Balance,
		}

		if user.BranchID != nil {
			var branch models.Branch
			if err := database.DB.First(&branch, *user.BranchID).Error; err == nil {
				response["branch"] = fiber.Map{
					"id":   branch.ID,
					"name": branch.Name,
				}
			}
		}

		return c.JSON(response)
	}
}
