package models

import "time"

type StoreItem struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Cost      int    `gorm:"not null"`
	Stock     int    `gorm:"not null"` // negatife düşmez, satın alma akışı korur
	CreatorID uint
	CreatedAt time.Time
	UpdatedAt time.Time
}
