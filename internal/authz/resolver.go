package authz

import (
	"scholarcash-backend/internal/models"

	"gorm.io/gorm"
)

// Capabilities - rol etiketine değil gerçek atamalara göre hesaplanan yetki
// bayrakları. Rol alanı tek başına güvenilir değil: bir hod aynı zamanda
// sınıf sorumlusu olabilir, yetkiler atamalardan toplanır.
type Capabilities struct {
	IsPrincipal      bool
	IsHOD            bool   // role=hod ve bölüm ataması var
	IsTutor          bool   // en az bir sınıfın sorumlusu
	IsSubjectTeacher bool   // personel ve bölüm ataması var
	TutorClassIDs    []uint // sorumlusu olduğu sınıflar
}

// Resolve - kullanıcının yetki bayraklarını veritabanındaki atamalardan hesaplar
func Resolve(db *gorm.DB, user *models.User) (*Capabilities, error) {
	caps := &Capabilities{
		IsPrincipal: user.Role == models.RolePrincipal,
	}

	var classIDs []uint
	if err := db.Model(&models.ClassRoom{}).
		Where("tutor_id = ?", user.ID).
		Order("id").
		Pluck("id", &classIDs).Error; err != nil {
		return nil, err
	}

	caps.TutorClassIDs = classIDs
	caps.IsTutor = len(classIDs) > 0
	caps.IsHOD = user.Role == models.RoleHOD && user.BranchID != nil
	caps.IsSubjectTeacher = user.Role.IsStaff() && user.BranchID != nil

	return caps, nil
}

// TutorOf - verilen sınıfın sorumlusu mu?
func (caps *Capabilities) TutorOf(classID *uint) bool {
	if classID == nil {
		return false
	}
	for _, id := range caps.TutorClassIDs {
		if id == *classID {
			return true
		}
	}
	return false
}

// CanTransferTo - personel öğrenciye coin gönderebilir mi?
// Gönderen bir personel yetkisi taşımalı: sınıf sorumluluğu ya da bölüm
// ataması. Öğrencinin branch_id'si de dolu olduğu için bölüm eşleşmesi tek
// başına yetmez, öğrenci öğrenciye gönderemez.
func (caps *Capabilities) CanTransferTo(actor, student *models.User) bool {
	if student.Role != models.RoleStudent {
		return false
	}
	if caps.TutorOf(student.ClassID) {
		return true
	}
	if !caps.IsSubjectTeacher {
		return false
	}
	return actor.BranchID != nil && student.BranchID != nil && *actor.BranchID == *student.BranchID
}

// CanAllocateTo - hod kendi bölümündeki teacher/tutor'a bütçe aktarabilir mi?
func (caps *Capabilities) CanAllocateTo(actor, staff *models.User) bool {
	if !caps.IsHOD {
		return false
	}
	if staff.ID == actor.ID {
		return false
	}
	if staff.Role != models.RoleTeacher && staff.Role != models.RoleTutor {
		return false
	}
	return staff.BranchID != nil && actor.BranchID != nil && *staff.BranchID == *actor.BranchID
}

// CanEditUser - principal her kullanıcıyı, sınıf sorumlusu yalnızca kendi
// sınıfındaki öğrenciyi düzenleyebilir (rol alanına asla dokunamaz).
func (caps *Capabilities) CanEditUser(target *models.User) bool {
	if caps.IsPrincipal {
		return true
	}
	return target.Role == models.RoleStudent && caps.TutorOf(target.ClassID)
}
