package auth

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"scholarcash-backend/internal/config"
	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite açılamadı: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate hatası: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	cfg := &config.Config{JWTSecret: "test-secret-test-secret-test-secret!"}

	app := fiber.New()
	app.Post("/api/auth/login", LoginHandler(cfg))
	app.Post("/api/auth/register", RegisterStudentHandler())
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("body marshal edilemedi: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func seedClassWithBranch(t *testing.T, db *gorm.DB) *models.ClassRoom {
	t.Helper()

	branch := models.Branch{Name: "Fen"}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatalf("branch oluşturulamadı: %v", err)
	}
	cls := models.ClassRoom{Name: "9A", BranchID: branch.ID}
	if err := db.Create(&cls).Error; err != nil {
		t.Fatalf("class oluşturulamadı: %v", err)
	}
	return &cls
}

func TestRegisterStudent(t *testing.T) {
	app, db := setupTestApp(t)
	cls := seedClassWithBranch(t, db)

	status, body := postJSON(t, app, "/api/auth/register", fiber.Map{
		"name":     "Ali Veli",
		"email":    "ALI@School.com",
		"password": "1234",
		"class_id": cls.ID,
	})

	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, beklenen 201 (%v)", status, body)
	}

	var stu models.User
	if err := db.Where("email = ?", "ali@school.com").First(&stu).Error; err != nil {
		t.Fatalf("öğrenci kaydı bulunamadı: %v", err)
	}
	if stu.Role != models.RoleStudent {
		t.Errorf("role = %q, beklenen student", stu.Role)
	}
	if stu.ClassID == nil || *stu.ClassID != cls.ID {
		t.Errorf("class_id = %v, beklenen %d", stu.ClassID, cls.ID)
	}
	// branch_id sınıftan devralınır
	if stu.BranchID == nil || *stu.BranchID != cls.BranchID {
		t.Errorf("branch_id = %v, beklenen %d", stu.BranchID, cls.BranchID)
	}
	if stu.QRSecret == "" {
		t.Error("qr secret boş kalmamalı")
	}
	if stu.Balance != 0 {
		t.Errorf("balance = %d, beklenen 0", stu.Balance)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, db := setupTestApp(t)
	cls := seedClassWithBranch(t, db)

	payload := fiber.Map{
		"name":     "Ali Veli",
		"email":    "ali@school.com",
		"password": "1234",
		"class_id": cls.ID,
	}

	if status, _ := postJSON(t, app, "/api/auth/register", payload); status != fiber.StatusCreated {
		t.Fatalf("ilk kayıt status = %d, beklenen 201", status)
	}
	if status, _ := postJSON(t, app, "/api/auth/register", payload); status != fiber.StatusConflict {
		t.Fatalf("ikinci kayıt status = %d, beklenen 409", status)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", "ali@school.com").Count(&count).Error; err != nil {
		t.Fatalf("sayım yapılamadı: %v", err)
	}
	if count != 1 {
		t.Errorf("kayıt sayısı = %d, beklenen 1", count)
	}
}

func TestRegisterUnknownClass(t *testing.T) {
	app, _ := setupTestApp(t)

	status, _ := postJSON(t, app, "/api/auth/register", fiber.Map{
		"name":     "Ali Veli",
		"email":    "ali@school.com",
		"password": "1234",
		"class_id": 9999,
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, beklenen 404", status)
	}
}

func TestLogin(t *testing.T) {
	app, db := setupTestApp(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("gizli123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash üretilemedi: %v", err)
	}
	user := models.User{
		Name:         "Müdür",
		Email:        "principal@school.com",
		PasswordHash: string(hash),
		Role:         models.RolePrincipal,
		Balance:      1000000,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user oluşturulamadı: %v", err)
	}

	status, body := postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "principal@school.com",
		"password": "gizli123",
	})
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, beklenen 200 (%v)", status, body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Error("token boş dönmemeli")
	}

	// Yanlış şifre ile aynı genel hata
	status, _ = postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "principal@school.com",
		"password": "yanlis",
	})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, beklenen 401", status)
	}

	// Kayıtlı olmayan email
	status, _ = postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "yok@school.com",
		"password": "gizli123",
	})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, beklenen 401", status)
	}
}
