package ledger

import (
	"errors"
	"strings"
	"testing"

	"scholarcash-backend/internal/database"
	"scholarcash-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createBranch(t *testing.T, db *gorm.DB, name string) *models.Branch {
	t.Helper()
	b := &models.Branch{Name: name}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("branch oluşturulamadı: %v", err)
	}
	return b
}

func createClass(t *testing.T, db *gorm.DB, name string, branchID uint, tutorID *uint) *models.ClassRoom {
	t.Helper()
	cls := &models.ClassRoom{Name: name, BranchID: branchID, TutorID: tutorID}
	if err := db.Create(cls).Error; err != nil {
		t.Fatalf("class oluşturulamadı: %v", err)
	}
	return cls
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, branchID, classID *uint, balance int) *models.User {
	t.Helper()
	u := &models.User{
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		BranchID:     branchID,
		ClassID:      classID,
		Balance:      balance,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("user oluşturulamadı: %v", err)
	}
	return u
}

func balanceOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		t.Fatalf("user okunamadı: %v", err)
	}
	return u.Balance
}

func txCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Transaction{}).Count(&n).Error; err != nil {
		t.Fatalf("transaction sayılamadı: %v", err)
	}
	return n
}

func TestMintCreditsTarget(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	principal := createUser(t, db, "principal@school.com", models.RolePrincipal, nil, nil, 1000000)
	branch := createBranch(t, db, "Fen")
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 0)

	tx, err := svc.Mint(principal.ID, teacher.ID, 500, "dönem bütçesi")
	if err != nil {
		t.Fatalf("mint başarısız: %v", err)
	}

	if got := balanceOf(t, db, teacher.ID); got != 500 {
		t.Errorf("teacher bakiyesi = %d, beklenen 500", got)
	}
	// Principal bakiyesi düşmez: mint para basar, taşımaz
	if got := balanceOf(t, db, principal.ID); got != 1000000 {
		t.Errorf("principal bakiyesi = %d, beklenen 1000000", got)
	}
	if tx.SenderID != principal.ID || tx.ReceiverID != teacher.ID || tx.Amount != 500 {
		t.Errorf("beklenmeyen transaction: %+v", tx)
	}
	if !strings.HasPrefix(tx.Reason, "Budget: ") {
		t.Errorf("reason = %q, 'Budget: ' öneki bekleniyordu", tx.Reason)
	}
	if n := txCount(t, db); n != 1 {
		t.Errorf("transaction sayısı = %d, beklenen 1", n)
	}
}

func TestMintRequiresPrincipal(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 100)
	other := createUser(t, db, "other@school.com", models.RoleTeacher, &branch.ID, nil, 0)

	if _, err := svc.Mint(teacher.ID, other.ID, 50, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, beklenen ErrForbidden", err)
	}
	if n := txCount(t, db); n != 0 {
		t.Errorf("transaction sayısı = %d, beklenen 0", n)
	}
}

func TestTransferMovesBalanceAndAppendsLedger(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 100)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 0)

	tx, err := svc.Transfer(teacher.ID, stu.ID, 40, "ödev teşviki")
	if err != nil {
		t.Fatalf("transfer başarısız: %v", err)
	}

	if got := balanceOf(t, db, teacher.ID); got != 60 {
		t.Errorf("gönderen bakiyesi = %d, beklenen 60", got)
	}
	if got := balanceOf(t, db, stu.ID); got != 40 {
		t.Errorf("alıcı bakiyesi = %d, beklenen 40", got)
	}
	if tx.Amount != 40 || tx.Reason != "ödev teşviki" {
		t.Errorf("beklenmeyen transaction: %+v", tx)
	}
	if n := txCount(t, db); n != 1 {
		t.Errorf("transaction sayısı = %d, beklenen 1", n)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 100)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 0)

	_, err := svc.Transfer(teacher.ID, stu.ID, 150, "x")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, beklenen ErrInsufficientFunds", err)
	}

	// Hiçbir yan etki kalmamalı
	if got := balanceOf(t, db, teacher.ID); got != 100 {
		t.Errorf("gönderen bakiyesi = %d, beklenen 100", got)
	}
	if got := balanceOf(t, db, stu.ID); got != 0 {
		t.Errorf("alıcı bakiyesi = %d, beklenen 0", got)
	}
	if n := txCount(t, db); n != 0 {
		t.Errorf("transaction sayısı = %d, beklenen 0", n)
	}
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	for _, amount := range []int{0, -5} {
		if _, err := svc.Transfer(1, 2, amount, "x"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount=%d: err = %v, beklenen ErrInvalidAmount", amount, err)
		}
	}
}

func TestTransferIneligibleRecipient(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 100)
	colleague := createUser(t, db, "colleague@school.com", models.RoleTeacher, &branch.ID, nil, 0)

	if _, err := svc.Transfer(teacher.ID, colleague.ID, 10, "x"); !errors.Is(err, ErrIneligibleRecipient) {
		t.Fatalf("err = %v, beklenen ErrIneligibleRecipient", err)
	}

	if _, err := svc.Transfer(teacher.ID, 9999, 10, "x"); !errors.Is(err, ErrIneligibleRecipient) {
		t.Fatalf("olmayan alıcı: err = %v, beklenen ErrIneligibleRecipient", err)
	}
}

func TestTransferForbiddenAcrossBranches(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	fen := createBranch(t, db, "Fen")
	sosyal := createBranch(t, db, "Sosyal")
	cls := createClass(t, db, "10B", sosyal.ID, nil)
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &fen.ID, nil, 100)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &sosyal.ID, &cls.ID, 0)

	if _, err := svc.Transfer(teacher.ID, stu.ID, 10, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, beklenen ErrForbidden", err)
	}
}

func TestTransferForbiddenForStudentSender(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	sender := createUser(t, db, "s1@school.com", models.RoleStudent, &branch.ID, &cls.ID, 100)
	receiver := createUser(t, db, "s2@school.com", models.RoleStudent, &branch.ID, &cls.ID, 0)

	// Aynı bölümde olsalar da öğrenci gönderemez
	if _, err := svc.Transfer(sender.ID, receiver.ID, 40, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, beklenen ErrForbidden", err)
	}
	if got := balanceOf(t, db, sender.ID); got != 100 {
		t.Errorf("gönderen bakiyesi = %d, beklenen 100", got)
	}
	if got := balanceOf(t, db, receiver.ID); got != 0 {
		t.Errorf("alıcı bakiyesi = %d, beklenen 0", got)
	}
	if n := txCount(t, db); n != 0 {
		t.Errorf("transaction sayısı = %d, beklenen 0", n)
	}
}

func TestTransferTutorReachesOwnClassAcrossBranch(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	fen := createBranch(t, db, "Fen")
	sosyal := createBranch(t, db, "Sosyal")
	tut := createUser(t, db, "tutor@school.com", models.RoleTutor, &fen.ID, nil, 100)
	cls := createClass(t, db, "10B", sosyal.ID, &tut.ID)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &sosyal.ID, &cls.ID, 0)

	// Bölümler farklı olsa da sınıf sorumluluğu gönderime yeter
	if _, err := svc.Transfer(tut.ID, stu.ID, 25, "x"); err != nil {
		t.Fatalf("transfer başarısız: %v", err)
	}
	if got := balanceOf(t, db, stu.ID); got != 25 {
		t.Errorf("alıcı bakiyesi = %d, beklenen 25", got)
	}
}

func TestAllocateWithinBranch(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	hod := createUser(t, db, "hod@school.com", models.RoleHOD, &branch.ID, nil, 300)
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 0)

	tx, err := svc.Allocate(hod.ID, teacher.ID, 200, "dönem dağıtımı")
	if err != nil {
		t.Fatalf("allocate başarısız: %v", err)
	}

	// Mint'ten farklı: hod'un kendi bakiyesi düşer
	if got := balanceOf(t, db, hod.ID); got != 100 {
		t.Errorf("hod bakiyesi = %d, beklenen 100", got)
	}
	if got := balanceOf(t, db, teacher.ID); got != 200 {
		t.Errorf("teacher bakiyesi = %d, beklenen 200", got)
	}
	if !strings.HasPrefix(tx.Reason, "HOD Allocation: ") {
		t.Errorf("reason = %q, 'HOD Allocation: ' öneki bekleniyordu", tx.Reason)
	}
}

func TestAllocateOutsideBranchRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	fen := createBranch(t, db, "Fen")
	sosyal := createBranch(t, db, "Sosyal")
	hod := createUser(t, db, "hod@school.com", models.RoleHOD, &fen.ID, nil, 300)
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &sosyal.ID, nil, 0)

	if _, err := svc.Allocate(hod.ID, teacher.ID, 100, "x"); !errors.Is(err, ErrIneligibleRecipient) {
		t.Fatalf("err = %v, beklenen ErrIneligibleRecipient", err)
	}
}

func TestAllocateRequiresHOD(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	branch := createBranch(t, db, "Fen")
	teacher := createUser(t, db, "teacher@school.com", models.RoleTeacher, &branch.ID, nil, 300)
	other := createUser(t, db, "other@school.com", models.RoleTeacher, &branch.ID, nil, 0)

	if _, err := svc.Allocate(teacher.ID, other.ID, 100, "x"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, beklenen ErrForbidden", err)
	}
}

func TestPurchase(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	principal := createUser(t, db, "principal@school.com", models.RolePrincipal, nil, nil, 0)
	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 50)

	item := models.StoreItem{Name: "Kalem Seti", Cost: 30, Stock: 2, CreatorID: principal.ID}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item oluşturulamadı: %v", err)
	}

	receipt, tx, err := svc.Purchase(stu.ID, item.ID)
	if err != nil {
		t.Fatalf("purchase başarısız: %v", err)
	}

	if got := balanceOf(t, db, stu.ID); got != 20 {
		t.Errorf("öğrenci bakiyesi = %d, beklenen 20", got)
	}
	var after models.StoreItem
	if err := db.First(&after, item.ID).Error; err != nil {
		t.Fatalf("item okunamadı: %v", err)
	}
	if after.Stock != 1 {
		t.Errorf("stok = %d, beklenen 1", after.Stock)
	}

	if receipt.Status != models.ReceiptStatusPending {
		t.Errorf("fiş durumu = %q, beklenen PENDING", receipt.Status)
	}
	if len(receipt.UniqueCode) != 6 {
		t.Errorf("fiş kodu = %q, 6 karakter bekleniyordu", receipt.UniqueCode)
	}

	// Harcanan coin havuz (principal) hesabına akar
	if tx.SenderID != stu.ID || tx.ReceiverID != principal.ID || tx.Amount != 30 {
		t.Errorf("beklenmeyen transaction: %+v", tx)
	}
	if tx.Reason != "Store: Kalem Seti" {
		t.Errorf("reason = %q", tx.Reason)
	}
}

func TestPurchaseOutOfStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	createUser(t, db, "principal@school.com", models.RolePrincipal, nil, nil, 0)
	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 50)

	item := models.StoreItem{Name: "Defter", Cost: 10, Stock: 0}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item oluşturulamadı: %v", err)
	}

	if _, _, err := svc.Purchase(stu.ID, item.ID); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("err = %v, beklenen ErrOutOfStock", err)
	}
	if got := balanceOf(t, db, stu.ID); got != 50 {
		t.Errorf("öğrenci bakiyesi = %d, beklenen 50", got)
	}
	if n := txCount(t, db); n != 0 {
		t.Errorf("transaction sayısı = %d, beklenen 0", n)
	}
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	createUser(t, db, "principal@school.com", models.RolePrincipal, nil, nil, 0)
	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 5)

	item := models.StoreItem{Name: "Defter", Cost: 10, Stock: 3}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item oluşturulamadı: %v", err)
	}

	if _, _, err := svc.Purchase(stu.ID, item.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, beklenen ErrInsufficientFunds", err)
	}

	var after models.StoreItem
	if err := db.First(&after, item.ID).Error; err != nil {
		t.Fatalf("item okunamadı: %v", err)
	}
	if after.Stock != 3 {
		t.Errorf("stok = %d, beklenen 3", after.Stock)
	}
}

func TestPurchaseUsesConfiguredSink(t *testing.T) {
	db := newTestDB(t)

	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 50)
	sink := createUser(t, db, "store@school.com", models.RoleTeacher, nil, nil, 0)

	svc := NewService(db, sink.ID)

	item := models.StoreItem{Name: "Defter", Cost: 10, Stock: 1}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item oluşturulamadı: %v", err)
	}

	_, tx, err := svc.Purchase(stu.ID, item.ID)
	if err != nil {
		t.Fatalf("purchase başarısız: %v", err)
	}
	if tx.ReceiverID != sink.ID {
		t.Errorf("sink = %d, beklenen %d", tx.ReceiverID, sink.ID)
	}
}

func TestPurchaseCodesAreUnique(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, 0)

	createUser(t, db, "principal@school.com", models.RolePrincipal, nil, nil, 0)
	branch := createBranch(t, db, "Fen")
	cls := createClass(t, db, "9A", branch.ID, nil)
	stu := createUser(t, db, "student@school.com", models.RoleStudent, &branch.ID, &cls.ID, 100)

	item := models.StoreItem{Name: "Defter", Cost: 10, Stock: 5}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("item oluşturulamadı: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		receipt, _, err := svc.Purchase(stu.ID, item.ID)
		if err != nil {
			t.Fatalf("purchase %d başarısız: %v", i, err)
		}
		if seen[receipt.UniqueCode] {
			t.Fatalf("fiş kodu tekrarlandı: %s", receipt.UniqueCode)
		}
		seen[receipt.UniqueCode] = true
	}
}
