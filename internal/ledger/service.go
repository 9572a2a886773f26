package ledger

import (
	"errors"

	"scholarcash-backend/internal/authz"
	"scholarcash-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service - bakiye mutasyonlarının tek giriş noktası. Her operasyon tek bir
// veritabanı transaction'ı içinde çalışır: iki bakiye ve defter satırı ya
// birlikte yazılır ya hiç yazılmaz.
type Service struct {
	db         *gorm.DB
	sinkUserID uint // mağaza havuz hesabı; 0 ise principal hesabı kullanılır
}

func NewService(db *gorm.DB, sinkUserID uint) *Service {
	return &Service{db: db, sinkUserID: sinkUserID}
}

// forUpdate - satır kilidi. SQLite (test) FOR UPDATE desteklemez,
// tek yazarlı olduğu için orada kilide gerek de yok.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// lockPair - iki kullanıcıyı id sırasıyla kilitleyip yükler (deadlock önlemi)
func lockPair(tx *gorm.DB, firstID, secondID uint) (*models.User, *models.User, error) {
	var users []models.User
	if err := forUpdate(tx).
		Where("id IN ?", []uint{firstID, secondID}).
		Order("id").
		Find(&users).Error; err != nil {
		return nil, nil, err
	}

	var first, second *models.User
	for i := range users {
		switch users[i].ID {
		case firstID:
			first = &users[i]
		case secondID:
			second = &users[i]
		}
	}
	return first, second, nil
}

// Transfer - personelden öğrenciye coin gönderimi. Gönderenin bakiyesinden
// düşer, yetki çözümleyici onaylamazsa reddedilir.
func (s *Service) Transfer(senderID, receiverID uint, amount int, reason string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var created models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sender, receiver, err := lockPair(tx, senderID, receiverID)
		if err != nil {
			return err
		}
		if sender == nil {
			return ErrNotFound
		}
		if receiver == nil || receiver.Role != models.RoleStudent {
			return ErrIneligibleRecipient
		}

		caps, err := authz.Resolve(tx, sender)
		if err != nil {
			return err
		}
		if !caps.CanTransferTo(sender, receiver) {
			return ErrForbidden
		}

		if sender.Balance < amount {
			return ErrInsufficientFunds
		}

		if err := tx.Model(sender).Update("balance", sender.Balance-amount).Error; err != nil {
			return err
		}
		if err := tx.Model(receiver).Update("balance", receiver.Balance+amount).Error; err != nil {
			return err
		}

		created = models.Transaction{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Amount:     amount,
			Reason:     reason,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Allocate - hod kendi bölümündeki teacher/tutor'a bütçe aktarır.
// Transfer gibi bakiye korumalıdır, sadece alıcı kümesi farklıdır.
func (s *Service) Allocate(hodID, staffID uint, amount int, reason string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var created models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		hod, staff, err := lockPair(tx, hodID, staffID)
		if err != nil {
			return err
		}
		if hod == nil {
			return ErrNotFound
		}
		if staff == nil {
			return ErrIneligibleRecipient
		}

		caps, err := authz.Resolve(tx, hod)
		if err != nil {
			return err
		}
		if !caps.CanAllocateTo(hod, staff) {
			if !caps.IsHOD {
				return ErrForbidden
			}
			return ErrIneligibleRecipient
		}

		if hod.Balance < amount {
			return ErrInsufficientFunds
		}

		if err := tx.Model(hod).Update("balance", hod.Balance-amount).Error; err != nil {
			return err
		}
		if err := tx.Model(staff).Update("balance", staff.Balance+amount).Error; err != nil {
			return err
		}

		created = models.Transaction{
			SenderID:   hod.ID,
			ReceiverID: staff.ID,
			Amount:     amount,
			Reason:     "HOD Allocation: " + reason,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Mint - principal'a özel karşılıksız bakiye yaratma. Transfer'den farklı
// olarak gönderen tarafta bakiye ön koşulu yoktur; principal'ın kendi
// bakiyesi düşmez. Bu asimetri bilinçli: mint para basar, transfer taşır.
func (s *Service) Mint(principalID, targetID uint, amount int, reason string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var created models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var principal models.User
		if err := tx.First(&principal, principalID).Error; err != nil {
			return ErrNotFound
		}
		if principal.Role != models.RolePrincipal {
			return ErrForbidden
		}

		var target models.User
		if err := forUpdate(tx).First(&target, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&target).Update("balance", target.Balance+amount).Error; err != nil {
			return err
		}

		created = models.Transaction{
			SenderID:   principal.ID,
			ReceiverID: target.ID,
			Amount:     amount,
			Reason:     "Budget: " + reason,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Purchase - öğrenci mağazadan ürün alır. Bakiye düşer, stok düşer, fiş ve
// defter satırı oluşur; harcanan coin havuz hesabına akar.
func (s *Service) Purchase(studentID, itemID uint) (*models.Receipt, *models.Transaction, error) {
	var receipt models.Receipt
	var created models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var student models.User
		if err := forUpdate(tx).First(&student, studentID).Error; err != nil {
			return ErrNotFound
		}
		if student.Role != models.RoleStudent {
			return ErrForbidden
		}

		var item models.StoreItem
		if err := forUpdate(tx).First(&item, itemID).Error; err != nil {
			return ErrNotFound
		}

		if item.Stock < 1 {
			return ErrOutOfStock
		}
		if student.Balance < item.Cost {
			return ErrInsufficientFunds
		}

		sinkID, err := s.resolveSink(tx)
		if err != nil {
			return err
		}

		if err := tx.Model(&student).Update("balance", student.Balance-item.Cost).Error; err != nil {
			return err
		}
		if err := tx.Model(&item).Update("stock", item.Stock-1).Error; err != nil {
			return err
		}

		code, err := freshUniqueCode(tx)
		if err != nil {
			return err
		}

		receipt = models.Receipt{
			StudentID:  student.ID,
			ItemID:     item.ID,
			UniqueCode: code,
			Status:     models.ReceiptStatusPending,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		created = models.Transaction{
			SenderID:   student.ID,
			ReceiverID: sinkID,
			Amount:     item.Cost,
			Reason:     "Store: " + item.Name,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &receipt, &created, nil
}

// resolveSink - havuz hesabı: konfigüre edilmişse o, değilse principal
func (s *Service) resolveSink(tx *gorm.DB) (uint, error) {
	if s.sinkUserID != 0 {
		return s.sinkUserID, nil
	}
	var principal models.User
	if err := tx.Where("role = ?", models.RolePrincipal).Order("id").First(&principal).Error; err != nil {
		return 0, ErrNotFound
	}
	return principal.ID, nil
}

// freshUniqueCode - unique_code çakışırsa sınırlı sayıda yeniden dener
func freshUniqueCode(tx *gorm.DB) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := newReceiptCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&models.Receipt{}).Where("unique_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}
