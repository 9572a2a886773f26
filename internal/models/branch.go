package models

import "time"

type Branch struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Classes []ClassRoom
	Staff   []User `gorm:"foreignKey:BranchID"`
}
