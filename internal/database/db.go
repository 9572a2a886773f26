package database

import (
	"log"

	"scholarcash-backend/internal/config"
	"scholarcash-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	if err := SeedPrincipal(DB, cfg); err != nil {
		log.Fatalf("Principal hesabı oluşturulamadı: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate - tüm modelleri migrate eder. Testler de aynı şemayı kullanır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Branch{},
		&models.ClassRoom{},
		&models.User{},
		&models.Transaction{},
		&models.StoreItem{},
		&models.Receipt{},
		&models.AuditLog{},
	)
}

// SeedPrincipal - principal hesabı yoksa oluşturur. Ekonominin para basan
// ve mağaza havuzu olarak kullanılan kök hesabıdır.
func SeedPrincipal(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RolePrincipal).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.PrincipalPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	principal := models.User{
		Name:         "Principal",
		Email:        cfg.PrincipalEmail,
		PasswordHash: string(hash),
		Role:         models.RolePrincipal,
		Balance:      1000000,
		QRSecret:     uuid.NewString(),
	}
	if err := db.Create(&principal).Error; err != nil {
		return err
	}

	log.Printf("Principal hesabı oluşturuldu: %s (id=%d)", principal.Email, principal.ID)
	return nil
}
