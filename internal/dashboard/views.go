package dashboard

import (
	"scholarcash-backend/internal/authz"
	"scholarcash-backend/internal/models"

	"gorm.io/gorm"
)

type StudentSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	ClassID *uint  `json:"class_id"`
	Balance int    `json:"balance"`
}

type StaffSummary struct {
	ID      uint            `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Role    models.UserRole `json:"role"`
	Balance int             `json:"balance"`
}

type TransactionSummary struct {
	ID           uint   `json:"id"`
	SenderID     uint   `json:"sender_id"`
	SenderName   string `json:"sender_name"`
	ReceiverID   uint   `json:"receiver_id"`
	ReceiverName string `json:"receiver_name"`
	Amount       int    `json:"amount"`
	Reason       string `json:"reason"`
	CreatedAt    string `json:"created_at"`
}

type BranchSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ClassSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	BranchID uint   `json:"branch_id"`
	TutorID  *uint  `json:"tutor_id"`
}

type StoreItemSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Cost  int    `json:"cost"`
	Stock int    `json:"stock"`
}

type ReceiptSummary struct {
	ID         uint                 `json:"id"`
	ItemID     uint                 `json:"item_id"`
	ItemName   string               `json:"item_name"`
	UniqueCode string               `json:"unique_code"`
	Status     models.ReceiptStatus `json:"status"`
	CreatedAt  string               `json:"created_at"`
}

type BranchStats struct {
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Classes  int `json:"classes"`
	Balance  int `json:"balance"` // bölüm öğrencilerinin toplam bakiyesi
}

type PrincipalView struct {
	Branches    []BranchSummary    `json:"branches"`
	Staff       []StaffSummary     `json:"staff"`
	Classes     []ClassSummary     `json:"classes"`
	StoreItems  []StoreItemSummary `json:"store_items"`
	Circulation int                `json:"circulation"` // dolaşımdaki toplam coin
}

type StaffView struct {
	Transactions     []TransactionSummary `json:"transactions"`
	BranchStudents   []StudentSummary     `json:"branch_students"`
	ClassStudents    []StudentSummary     `json:"class_students"`
	BranchStaff      []StaffSummary       `json:"branch_staff"`
	BranchStats      *BranchStats         `json:"branch_stats"`
	IsTutor          bool                 `json:"is_tutor"`
	IsHOD            bool                 `json:"is_hod"`
	IsSubjectTeacher bool                 `json:"is_subject_teacher"`
	Balance          int                  `json:"balance"`
}

type StudentView struct {
	Transactions []TransactionSummary `json:"transactions"`
	StoreItems   []StoreItemSummary   `json:"store_items"` // yalnızca stokta olanlar
	Receipts     []ReceiptSummary     `json:"receipts"`
	Balance      int                  `json:"balance"`
}

type RosterView struct {
	Students     []StudentSummary     `json:"students"`
	Transactions []TransactionSummary `json:"transactions"`
}

func studentSummaries(users []models.User) []StudentSummary {
	res := make([]StudentSummary, 0, len(users))
	for _, u := range users {
		res = append(res, StudentSummary{
			ID:      u.ID,
			Name:    u.Name,
			Email:   u.Email,
			ClassID: u.ClassID,
			Balance: u.Balance,
		})
	}
	return res
}

// dedupStudents - aynı öğrenci birden fazla sınıf üzerinden gelebilir;
// her id bir kez, ilk görüldüğü sıra korunarak
func dedupStudents(students []models.User) []models.User {
	seen := make(map[uint]bool, len(students))
	unique := make([]models.User, 0, len(students))
	for _, s := range students {
		if !seen[s.ID] {
			seen[s.ID] = true
			unique = append(unique, s)
		}
	}
	return unique
}

func txSummaries(txs []models.Transaction) []TransactionSummary {
	res := make([]TransactionSummary, 0, len(txs))
	for _, t := range txs {
		s := TransactionSummary{
			ID:         t.ID,
			SenderID:   t.SenderID,
			ReceiverID: t.ReceiverID,
			Amount:     t.Amount,
			Reason:     t.Reason,
			CreatedAt:  t.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if t.Sender != nil {
			s.SenderName = t.Sender.Name
		}
		if t.Receiver != nil {
			s.ReceiverName = t.Receiver.Name
		}
		res = append(res, s)
	}
	return res
}

func BuildPrincipalView(db *gorm.DB) (*PrincipalView, error) {
	view := &PrincipalView{
		Branches:   []BranchSummary{},
		Staff:      []StaffSummary{},
		Classes:    []ClassSummary{},
		StoreItems: []StoreItemSummary{},
	}

	var branches []models.Branch
	if err := db.Order("id").Find(&branches).Error; err != nil {
		return nil, err
	}
	for _, b := range branches {
		view.Branches = append(view.Branches, BranchSummary{ID: b.ID, Name: b.Name})
	}

	var staff []models.User
	if err := db.Where("role IN ?", []models.UserRole{models.RoleTeacher, models.RoleTutor, models.RoleHOD}).
		Order("id").Find(&staff).Error; err != nil {
		return nil, err
	}
	for _, u := range staff {
		view.Staff = append(view.Staff, StaffSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Balance: u.Balance})
	}

	var classes []models.ClassRoom
	if err := db.Order("id").Find(&classes).Error; err != nil {
		return nil, err
	}
	for _, cls := range classes {
		view.Classes = append(view.Classes, ClassSummary{ID: cls.ID, Name: cls.Name, BranchID: cls.BranchID, TutorID: cls.TutorID})
	}

	var items []models.StoreItem
	if err := db.Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		view.StoreItems = append(view.StoreItems, StoreItemSummary{ID: it.ID, Name: it.Name, Cost: it.Cost, Stock: it.Stock})
	}

	// Dolaşımdaki toplam coin: tüm kullanıcı bakiyelerinin toplamı
	var circulation int64
	if err := db.Model(&models.User{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&circulation).Error; err != nil {
		return nil, err
	}
	view.Circulation = int(circulation)

	return view, nil
}

func BuildStaffView(db *gorm.DB, user *models.User) (*StaffView, error) {
	caps, err := authz.Resolve(db, user)
	if err != nil {
		return nil, err
	}

	view := &StaffView{
		Transactions:     []TransactionSummary{},
		BranchStudents:   []StudentSummary{},
		ClassStudents:    []StudentSummary{},
		BranchStaff:      []StaffSummary{},
		IsTutor:          caps.IsTutor,
		IsHOD:            caps.IsHOD,
		IsSubjectTeacher: caps.IsSubjectTeacher,
		Balance:          user.Balance,
	}

	// Gönderilen son 20 hareket
	var txs []models.Transaction
	if err := db.Preload("Sender").Preload("Receiver").
		Where("sender_id = ?", user.ID).
		Order("created_at DESC").
		Limit(20).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	view.Transactions = txSummaries(txs)

	// Sorumlu olunan sınıfların öğrencileri
	if caps.IsTutor {
		var classStudents []models.User
		for _, classID := range caps.TutorClassIDs {
			var students []models.User
			if err := db.Where("role = ? AND class_id = ?", models.RoleStudent, classID).
				Order("id").Find(&students).Error; err != nil {
				return nil, err
			}
			classStudents = append(classStudents, students...)
		}
		view.ClassStudents = studentSummaries(dedupStudents(classStudents))
	}

	// Bölümdeki tüm öğrenciler (branş öğretmeni ve hod)
	if (caps.IsSubjectTeacher || caps.IsHOD) && user.BranchID != nil {
		var classIDs []uint
		if err := db.Model(&models.ClassRoom{}).
			Where("branch_id = ?", *user.BranchID).
			Pluck("id", &classIDs).Error; err != nil {
			return nil, err
		}
		if len(classIDs) > 0 {
			var branchStudents []models.User
			if err := db.Where("role = ? AND class_id IN ?", models.RoleStudent, classIDs).
				Order("id").Find(&branchStudents).Error; err != nil {
				return nil, err
			}
			view.BranchStudents = studentSummaries(dedupStudents(branchStudents))
		}
	}

	// HOD: bölüm personeli + özet istatistikler
	if caps.IsHOD && user.BranchID != nil {
		var staff []models.User
		if err := db.Where("branch_id = ? AND id <> ? AND role IN ?",
			*user.BranchID, user.ID,
			[]models.UserRole{models.RoleTeacher, models.RoleTutor}).
			Order("id").Find(&staff).Error; err != nil {
			return nil, err
		}
		for _, u := range staff {
			view.BranchStaff = append(view.BranchStaff, StaffSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Balance: u.Balance})
		}

		var classCount int64
		if err := db.Model(&models.ClassRoom{}).
			Where("branch_id = ?", *user.BranchID).
			Count(&classCount).Error; err != nil {
			return nil, err
		}

		balance := 0
		for _, s := range view.BranchStudents {
			balance += s.Balance
		}

		view.BranchStats = &BranchStats{
			Students: len(view.BranchStudents),
			Teachers: len(view.BranchStaff),
			Classes:  int(classCount),
			Balance:  balance,
		}
	}

	return view, nil
}

func BuildStudentView(db *gorm.DB, user *models.User) (*StudentView, error) {
	view := &StudentView{
		Transactions: []TransactionSummary{},
		StoreItems:   []StoreItemSummary{},
		Receipts:     []ReceiptSummary{},
		Balance:      user.Balance,
	}

	// Gönderilen veya alınan son 10 hareket
	var txs []models.Transaction
	if err := db.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
		Order("created_at DESC").
		Limit(10).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	view.Transactions = txSummaries(txs)

	var items []models.StoreItem
	if err := db.Where("stock > 0").Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		view.StoreItems = append(view.StoreItems, StoreItemSummary{ID: it.ID, Name: it.Name, Cost: it.Cost, Stock: it.Stock})
	}

	var receipts []models.Receipt
	if err := db.Preload("Item").
		Where("student_id = ?", user.ID).
		Order("created_at DESC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	for _, r := range receipts {
		rs := ReceiptSummary{
			ID:         r.ID,
			ItemID:     r.ItemID,
			UniqueCode: r.UniqueCode,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if r.Item != nil {
			rs.ItemName = r.Item.Name
		}
		view.Receipts = append(view.Receipts, rs)
	}

	return view, nil
}

// BuildRosterView - mobil gönderim ekranı: erişilebilir öğrenciler + son 10 hareket
func BuildRosterView(db *gorm.DB, user *models.User) (*RosterView, error) {
	caps, err := authz.Resolve(db, user)
	if err != nil {
		return nil, err
	}

	var students []models.User

	// Sınıf sorumlusu önce kendi sınıflarını görür
	for _, classID := range caps.TutorClassIDs {
		var classStudents []models.User
		if err := db.Where("role = ? AND class_id = ?", models.RoleStudent, classID).
			Order("id").Find(&classStudents).Error; err != nil {
			return nil, err
		}
		students = append(students, classStudents...)
	}

	if len(students) == 0 && user.BranchID != nil {
		var classIDs []uint
		if err := db.Model(&models.ClassRoom{}).
			Where("branch_id = ?", *user.BranchID).
			Pluck("id", &classIDs).Error; err != nil {
			return nil, err
		}
		if len(classIDs) > 0 {
			if err := db.Where("role = ? AND class_id IN ?", models.RoleStudent, classIDs).
				Order("id").Find(&students).Error; err != nil {
				return nil, err
			}
		}
	}

	var txs []models.Transaction
	if err := db.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
		Order("created_at DESC").
		Limit(10).
		Find(&txs).Error; err != nil {
		return nil, err
	}

	return &RosterView{
		Students:     studentSummaries(dedupStudents(students)),
		Transactions: txSummaries(txs),
	}, nil
}
