package models

import "time"

type ClassRoom struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:50;not null"`
	BranchID uint   `gorm:"index;not null"`
	Branch   Branch `gorm:"foreignKey:BranchID"`

	// Sınıfın sorumlu öğretmeni (tutor veya hod olabilir, opsiyonel)
	TutorID *uint
	Tutor   *User `gorm:"foreignKey:TutorID"`

	Students []User `gorm:"foreignKey:ClassID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
