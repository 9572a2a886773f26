package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Mağaza harcamalarının aktığı havuz hesabı. 0 ise seed'lenen
	// principal hesabı başlangıçta çözülüp kullanılır.
	StoreSinkUserID uint

	// Seed edilen principal hesabı
	PrincipalEmail    string
	PrincipalPassword string
}

func Load() *Config {
	// .env varsa yükle, yoksa sessizce geç (production env değişkenleriyle çalışır)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:       getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=scholarcash port=5432 sslmode=disable"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		StoreSinkUserID:   getEnvUint("STORE_SINK_USER_ID", 0),
		PrincipalEmail:    getEnv("PRINCIPAL_EMAIL", "principal@school.com"),
		PrincipalPassword: getEnv("PRINCIPAL_PASSWORD", "admin"),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.PrincipalPassword == "admin" {
		log.Println("[WARN] PRINCIPAL_PASSWORD varsayılan değer kullanılıyor, production için mutlaka değiştir.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvUint(key string, def uint) uint {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n uint
	if _, err := fmt.Sscan(v, &n); err != nil {
		log.Printf("[WARN] %s geçersiz (%q), varsayılan %d kullanılıyor", key, v, def)
		return def
	}
	return n
}
