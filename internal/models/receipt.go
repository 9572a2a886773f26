package models

import "time"

type ReceiptStatus string

const (
	ReceiptStatusPending  ReceiptStatus = "PENDING"
	ReceiptStatusRedeemed ReceiptStatus = "REDEEMED" // teslimat okul tarafında manuel yapılır
)

type Receipt struct {
	ID         uint          `gorm:"primaryKey"`
	StudentID  uint          `gorm:"index;not null"`
	ItemID     uint          `gorm:"index;not null"`
	UniqueCode string        `gorm:"size:20;uniqueIndex;not null"`
	Status     ReceiptStatus `gorm:"size:20;not null;default:PENDING"`
	CreatedAt  time.Time

	Student *User      `gorm:"foreignKey:StudentID"`
	Item    *StoreItem `gorm:"foreignKey:ItemID"`
}
