package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bizdesk/internal/model"
)

// CrmStatusRow is the projection used by the weekday report.
type CrmStatusRow struct {
	CreatedAt time.Time
	Status    string
}

// CrmRepository defines lead persistence operations. Every method is scoped
// to the owning user.
type CrmRepository interface {
	Create(ctx context.Context, crm *model.Crm) error
	Update(ctx context.Context, crm *model.Crm) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Crm, error)
	FindByOwner(ctx context.Context, ownerID, id uint) (*model.Crm, error)
	DeleteByOwner(ctx context.Context, ownerID, id uint) error
	StatusRows(ctx context.Context, ownerID uint, statuses []string) ([]CrmStatusRow, error)
}

type crmRepository struct {
	db *gorm.DB
}

// NewCrmRepository creates a new CRM repository.
func NewCrmRepository(db *gorm.DB) CrmRepository {
	return &crmRepository{db: db}
}

func (r *crmRepository) Create(ctx context.Context, crm *model.Crm) error {
	return r.db.WithContext(ctx).Create(crm).Error
}

// Update saves every column of crm; the owner predicate stops a row from
// being rewritten under a different user. Saving unchanged values succeeds.
func (r *crmRepository) Update(ctx context.Context, crm *model.Crm) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.Crm{}).
		Where("id = ? AND user_id = ?", crm.ID, crm.UserID).
		Select("full_name", "email_address", "phone_number", "price", "event_type", "status").
		Updates(crm)
	return updatedOwned(db, res, &model.Crm{}, crm.UserID, crm.ID)
}

func (r *crmRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Crm, error) {
	var crms []model.Crm
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&crms).Error; err != nil {
		return nil, err
	}
	return crms, nil
}

func (r *crmRepository) FindByOwner(ctx context.Context, ownerID, id uint) (*model.Crm, error) {
	var crm model.Crm
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&crm).Error; err != nil {
		return nil, err
	}
	return &crm, nil
}

func (r *crmRepository) DeleteByOwner(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Crm{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// StatusRows returns creation time and status of the owner's leads whose
// status is one of statuses.
func (r *crmRepository) StatusRows(ctx context.Context, ownerID uint, statuses []string) ([]CrmStatusRow, error) {
	var rows []CrmStatusRow
	if err := r.db.WithContext(ctx).Model(&model.Crm{}).
		Select("created_at", "status").
		Where("user_id = ? AND status IN ?", ownerID, statuses).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
