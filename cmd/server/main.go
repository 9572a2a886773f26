package main

import (
	"log"
	"strings"

	"scholarcash-backend/internal/admin"
	"scholarcash-backend/internal/audit"
	"scholarcash-backend/internal/auth"
	"scholarcash-backend/internal/config"
	"scholarcash-backend/internal/dashboard"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/economy"
	"scholarcash-backend/internal/ledger"
	"scholarcash-backend/internal/models"
	"scholarcash-backend/internal/student"
	"scholarcash-backend/internal/tutor"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	ledgerSvc := ledger.NewService(database.DB, cfg.StoreSinkUserID)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Post("/auth/register", auth.RegisterStudentHandler())
	api.Get("/classes", admin.ListClassesHandler()) // kayıt formu dropdown'ı

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Principal routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RolePrincipal))

	// Bölüm yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler())

	// Sınıf yönetimi
	adminRoutes.Post("/classes", admin.CreateClassHandler())
	adminRoutes.Put("/classes/:id", admin.UpdateClassHandler())
	adminRoutes.Delete("/classes/:id", admin.DeleteClassHandler())

	// Personel yönetimi
	adminRoutes.Post("/staff", admin.CreateStaffHandler())
	adminRoutes.Get("/staff", admin.ListStaffHandler())

	// Kullanıcı düzenleme/silme
	adminRoutes.Put("/users/:id", admin.EditUserHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())

	// Mağaza yönetimi
	adminRoutes.Post("/store-items", admin.CreateStoreItemHandler())
	adminRoutes.Get("/store-items", admin.ListStoreItemsHandler())
	adminRoutes.Put("/store-items/:id", admin.UpdateStoreItemHandler())
	adminRoutes.Delete("/store-items/:id", admin.DeleteStoreItemHandler())

	// Coin basma (bütçe tahsisi)
	adminRoutes.Post("/mint", admin.MintHandler(ledgerSvc))

	// Panel + denetim kayıtları
	adminRoutes.Get("/dashboard", dashboard.PrincipalHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Personel routes (teacher/tutor/hod)
	staffRoutes := protected.Group("/staff")
	staffRoutes.Use(auth.RequireRole(models.RoleTeacher, models.RoleTutor, models.RoleHOD))
	staffRoutes.Get("/dashboard", dashboard.StaffHandler())
	staffRoutes.Get("/roster", dashboard.RosterHandler())
	staffRoutes.Post("/transfer", economy.TransferHandler(ledgerSvc))

	// HOD bütçe aktarımı
	protected.Post("/hod/allocate",
		auth.RequireRole(models.RoleHOD),
		economy.AllocateHandler(ledgerSvc))

	// Sınıf sorumlusu işlemleri
	tutorRoutes := protected.Group("/tutor")
	tutorRoutes.Use(auth.RequireRole(models.RoleTutor, models.RoleHOD, models.RoleTeacher))
	tutorRoutes.Post("/students", tutor.AddStudentHandler())
	tutorRoutes.Put("/students/:id/class", tutor.UpdateStudentClassHandler())

	// Öğrenci routes
	studentRoutes := protected.Group("/student")
	studentRoutes.Use(auth.RequireRole(models.RoleStudent))
	studentRoutes.Get("/dashboard", dashboard.StudentHandler())
	studentRoutes.Post("/store/:id/buy", economy.PurchaseHandler(ledgerSvc))
	studentRoutes.Get("/receipts", student.ReceiptsHandler())
	studentRoutes.Get("/qr", student.QRHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
