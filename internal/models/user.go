package models

import "time"

type UserRole string

const (
	RolePrincipal UserRole = "principal"
	RoleHOD       UserRole = "hod"
	RoleTeacher   UserRole = "teacher"
	RoleTutor     UserRole = "tutor"
	RoleStudent   UserRole = "student"
)

// IsStaff - öğretmen kadrosu mu? (principal hariç)
func (r UserRole) IsStaff() bool {
	return r == RoleTeacher || r == RoleTutor || r == RoleHOD
}

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`

	// Öğretmen/tutor/HOD için bölüm bağlantısı
	BranchID *uint
	Branch   *Branch

	// Öğrenci için sınıf bağlantısı. branch_id denormalize kopyadır,
	// class_id yazan her akış aynı transaction içinde branch_id'yi de günceller.
	ClassID *uint
	Class   *ClassRoom `gorm:"foreignKey:ClassID"`

	Balance  int    `gorm:"not null;default:0"` // coin bakiyesi (tam sayı)
	QRSecret string `gorm:"size:100"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
