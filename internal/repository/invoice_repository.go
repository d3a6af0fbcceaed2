package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bizdesk/internal/model"
)

// InvoiceStats aggregates a user's invoices.
type InvoiceStats struct {
	TotalInvoices   int64           `json:"total_invoices"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PendingInvoices int64           `json:"pending_invoices"`
}

// InvoiceRepository defines invoice persistence operations. Every read and
// write is scoped to the owning user.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	UpdateFields(ctx context.Context, invoice *model.Invoice) error
	ReplaceServices(ctx context.Context, invoiceID uint, services []model.ServiceItem) error
	UpdateStatus(ctx context.Context, ownerID, id uint, status model.InvoiceStatus) error
	FindByOwner(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	FindByOwnerForUpdate(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Invoice, error)
	Search(ctx context.Context, ownerID uint, query string) ([]model.Invoice, error)
	DeleteByOwner(ctx context.Context, ownerID, id uint) error
	Stats(ctx context.Context, ownerID uint) (*InvoiceStats, error)
	ExistsByNumber(ctx context.Context, number string, excludeID uint) (bool, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo InvoiceRepository) error) error
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// WithTransaction runs fn with a repository bound to a single transaction.
func (r *invoiceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo InvoiceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &invoiceRepository{db: tx})
	})
}

// Create inserts the invoice together with its services.
func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// UpdateFields writes the scalar columns and totals of invoice.
func (r *invoiceRepository) UpdateFields(ctx context.Context, invoice *model.Invoice) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.Invoice{}).
		Where("id = ? AND user_id = ?", invoice.ID, invoice.UserID).
		Select("invoice_number", "date", "customer_name", "customer_address", "tax_number",
			"prepared_by", "subtotal", "tax_rate", "tax_amount", "total_amount", "status", "updated_at").
		Updates(invoice)
	return updatedOwned(db, res, &model.Invoice{}, invoice.UserID, invoice.ID)
}

// ReplaceServices deletes every line item of the invoice and inserts services.
func (r *invoiceRepository) ReplaceServices(ctx context.Context, invoiceID uint, services []model.ServiceItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", invoiceID).Delete(&model.ServiceItem{}).Error; err != nil {
		return err
	}
	if len(services) == 0 {
		return nil
	}
	for i := range services {
		services[i].ID = 0
		services[i].InvoiceID = invoiceID
	}
	return db.Create(&services).Error
}

// UpdateStatus overwrites the status column. Setting the status an invoice
// already has is not an error.
func (r *invoiceRepository) UpdateStatus(ctx context.Context, ownerID, id uint, status model.InvoiceStatus) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.Invoice{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Update("status", status)
	return updatedOwned(db, res, &model.Invoice{}, ownerID, id)
}

func (r *invoiceRepository) withServices(db *gorm.DB) *gorm.DB {
	return db.Preload("Services", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *invoiceRepository) FindByOwner(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.withServices(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByOwnerForUpdate finds an invoice with a row-level lock for update.
func (r *invoiceRepository) FindByOwnerForUpdate(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.withServices(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := r.withServices(r.db.WithContext(ctx)).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// likeEscaper makes LIKE wildcards in user input match literally. '!' is
// used as the escape character because backslash is itself an escape in
// MySQL string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search matches query case-insensitively against the invoice number,
// customer name and customer address.
func (r *invoiceRepository) Search(ctx context.Context, ownerID uint, query string) ([]model.Invoice, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	var invoices []model.Invoice
	if err := r.withServices(r.db.WithContext(ctx)).
		Where("user_id = ?", ownerID).
		Where("LOWER(invoice_number) LIKE ? ESCAPE '!' OR LOWER(customer_name) LIKE ? ESCAPE '!' OR LOWER(customer_address) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// DeleteByOwner removes the invoice and its services.
func (r *invoiceRepository) DeleteByOwner(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Invoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("invoice_id = ?", id).Delete(&model.ServiceItem{}).Error
	})
}

// ExistsByNumber reports whether any invoice other than excludeID uses
// number. Invoice numbers are unique across all users.
func (r *invoiceRepository) ExistsByNumber(ctx context.Context, number string, excludeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("invoice_number = ? AND id <> ?", number, excludeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invoiceRepository) Stats(ctx context.Context, ownerID uint) (*InvoiceStats, error) {
	db := r.db.WithContext(ctx)
	stats := &InvoiceStats{TotalRevenue: decimal.Zero}

	if err := db.Model(&model.Invoice{}).
		Where("user_id = ?", ownerID).
		Count(&stats.TotalInvoices).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&model.Invoice{}).
		Select("SUM(total_amount)").
		Where("user_id = ? AND status = ?", ownerID, model.InvoiceStatusPaid).
		Row().Scan(&revenue); err != nil {
		return nil, err
	}
	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}

	if err := db.Model(&model.Invoice{}).
		Where("user_id = ? AND status IN ?", ownerID, model.PendingInvoiceStatuses).
		Count(&stats.PendingInvoices).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
