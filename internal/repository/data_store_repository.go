package repository

import (
	"context"

	"gorm.io/gorm"

	"bizdesk/internal/model"
)

// DataStoreRepository defines uploaded file persistence operations.
type DataStoreRepository interface {
	Create(ctx context.Context, file *model.DataStore) error
	// ListByOwner returns the owner's files, newest first. An empty fileType
	// matches every file.
	ListByOwner(ctx context.Context, ownerID uint, fileType model.FileType) ([]model.DataStore, error)
	FindByOwner(ctx context.Context, ownerID, id uint) (*model.DataStore, error)
	DeleteByOwner(ctx context.Context, ownerID, id uint) error
}

type dataStoreRepository struct {
	db *gorm.DB
}

// NewDataStoreRepository creates a new file repository.
func NewDataStoreRepository(db *gorm.DB) DataStoreRepository {
	return &dataStoreRepository{db: db}
}

func (r *dataStoreRepository) Create(ctx context.Context, file *model.DataStore) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *dataStoreRepository) ListByOwner(ctx context.Context, ownerID uint, fileType model.FileType) ([]model.DataStore, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if fileType != "" {
		q = q.Where("file_type = ?", fileType)
	}
	var files []model.DataStore
	if err := q.Order("uploaded_at DESC, id DESC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *dataStoreRepository) FindByOwner(ctx context.Context, ownerID, id uint) (*model.DataStore, error) {
	var file model.DataStore
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *dataStoreRepository) DeleteByOwner(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.DataStore{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
