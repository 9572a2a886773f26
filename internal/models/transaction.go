package models

import "time"

// Transaction - coin hareket kaydı. Defter sadece ekleme yapılır:
// satırlar oluşturulduktan sonra asla güncellenmez veya silinmez.
type Transaction struct {
	ID         uint      `gorm:"primaryKey"`
	SenderID   uint      `gorm:"index;not null"`
	ReceiverID uint      `gorm:"index;not null"`
	Amount     int       `gorm:"not null"` // her zaman pozitif
	Reason     string    `gorm:"size:200"`
	CreatedAt  time.Time `gorm:"index"`

	Sender   *User `gorm:"foreignKey:SenderID"`
	Receiver *User `gorm:"foreignKey:ReceiverID"`
}
