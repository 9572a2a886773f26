package dashboard

import (
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/dashboard
func PrincipalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := BuildPrincipalView(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Panel verileri yüklenemedi")
		}
		return c.JSON(view)
	}
}

// GET /api/staff/dashboard
func StaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		view, err := BuildStaffView(database.DB, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Panel verileri yüklenemedi")
		}
		return c.JSON(view)
	}
}

// GET /api/student/dashboard
func StudentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		view, err := BuildStudentView(database.DB, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Panel verileri yüklenemedi")
		}
		return c.JSON(view)
	}
}

// GET /api/staff/roster - mobil hızlı gönderim ekranı: öğrenci listesi +
// son hareketler tek cevapta
func RosterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		view, err := BuildRosterView(database.DB, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Liste yüklenemedi")
		}
		return c.JSON(view)
	}
}
