package repository

import (
	"gorm.io/gorm"
)

// updatedOwned turns the result of an owner-scoped update into an error. A
// zero row count only means ErrRecordNotFound when no row with id belongs to
// ownerID: MySQL counts changed rows, so rewriting identical values also
// reports zero.
func updatedOwned(db, res *gorm.DB, value interface{}, ownerID, id uint) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(value).
		Where("id = ? AND user_id = ?", id, ownerID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
