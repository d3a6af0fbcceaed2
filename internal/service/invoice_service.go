package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/metrics"
	"bizdesk/internal/model"
	"bizdesk/internal/repository"
)

// ServiceItemInput is one line item as supplied by the client. A nil
// quantity means 1. Any client total is ignored.
type ServiceItemInput struct {
	Name     string
	Cost     decimal.Decimal
	Quantity *int
}

// InvoiceInput carries invoice fields. On update nil fields are left
// unchanged and a nil Services keeps the existing line items.
type InvoiceInput struct {
	InvoiceNumber   *string
	Date            *time.Time
	CustomerName    *string
	CustomerAddress *string
	TaxNumber       *string
	PreparedBy      *string
	TaxRate         *decimal.Decimal
	Status          *model.InvoiceStatus
	Services        []ServiceItemInput
	ReplaceServices bool
}

// InvoiceService manages the caller's invoices.
type InvoiceService interface {
	List(ctx context.Context, ownerID uint) ([]model.Invoice, error)
	Search(ctx context.Context, ownerID uint, query string) ([]model.Invoice, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	Create(ctx context.Context, ownerID uint, in InvoiceInput) (*model.Invoice, error)
	Update(ctx context.Context, ownerID, id uint, in InvoiceInput) (*model.Invoice, error)
	Delete(ctx context.Context, ownerID, id uint) error
	MarkAsPaid(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	MarkAsSent(ctx context.Context, ownerID, id uint) (*model.Invoice, error)
	Stats(ctx context.Context, ownerID uint) (*repository.InvoiceStats, error)
}

type invoiceService struct {
	repo repository.InvoiceRepository
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(repo repository.InvoiceRepository) InvoiceService {
	return &invoiceService{repo: repo}
}

func (s *invoiceService) List(ctx context.Context, ownerID uint) ([]model.Invoice, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Search matches query against number, customer name and address. An empty
// query lists everything.
func (s *invoiceService) Search(ctx context.Context, ownerID uint, query string) ([]model.Invoice, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListByOwner(ctx, ownerID)
	}
	return s.repo.Search(ctx, ownerID, query)
}

func (s *invoiceService) Get(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	inv, err := s.repo.FindByOwner(ctx, ownerID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

// Create stores the invoice and its line items in one transaction.
func (s *invoiceService) Create(ctx context.Context, ownerID uint, in InvoiceInput) (*model.Invoice, error) {
	inv := &model.Invoice{UserID: ownerID, Status: model.InvoiceStatusDraft, TaxRate: decimal.Zero}
	if err := in.apply(inv); err != nil {
		return nil, err
	}
	if err := validateInvoice(inv); err != nil {
		return nil, err
	}
	items, err := buildServiceItems(in.Services)
	if err != nil {
		return nil, err
	}
	inv.Services = items
	inv.ComputeTotals()

	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.InvoiceRepository) error {
		if err := checkNumberFree(ctx, tx, inv.InvoiceNumber, 0); err != nil {
			return err
		}
		return tx.Create(ctx, inv)
	})
	if err != nil {
		return nil, invoiceWriteError(err)
	}
	metrics.InvoicesCreatedTotal.Inc()
	return s.Get(ctx, ownerID, inv.ID)
}

// Update patches scalar fields and, when requested, replaces every line
// item. Totals are always recomputed.
func (s *invoiceService) Update(ctx context.Context, ownerID, id uint, in InvoiceInput) (*model.Invoice, error) {
	var items []model.ServiceItem
	if in.ReplaceServices {
		var err error
		if items, err = buildServiceItems(in.Services); err != nil {
			return nil, err
		}
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.InvoiceRepository) error {
		inv, err := tx.FindByOwnerForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		previousNumber := inv.InvoiceNumber
		if err := in.apply(inv); err != nil {
			return err
		}
		if err := validateInvoice(inv); err != nil {
			return err
		}
		if inv.InvoiceNumber != previousNumber {
			if err := checkNumberFree(ctx, tx, inv.InvoiceNumber, inv.ID); err != nil {
				return err
			}
		}

		if in.ReplaceServices {
			inv.Services = items
		}
		inv.ComputeTotals()
		if in.ReplaceServices {
			if err := tx.ReplaceServices(ctx, inv.ID, inv.Services); err != nil {
				return err
			}
		}
		inv.UpdatedAt = time.Now()
		return tx.UpdateFields(ctx, inv)
	})
	if err != nil {
		return nil, invoiceWriteError(err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *invoiceService) Delete(ctx context.Context, ownerID, id uint) error {
	return notFound(s.repo.DeleteByOwner(ctx, ownerID, id))
}

// MarkAsPaid sets the status to paid whatever the current status is.
func (s *invoiceService) MarkAsPaid(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	return s.setStatus(ctx, ownerID, id, model.InvoiceStatusPaid)
}

// MarkAsSent sets the status to sent whatever the current status is.
func (s *invoiceService) MarkAsSent(ctx context.Context, ownerID, id uint) (*model.Invoice, error) {
	return s.setStatus(ctx, ownerID, id, model.InvoiceStatusSent)
}

func (s *invoiceService) setStatus(ctx context.Context, ownerID, id uint, status model.InvoiceStatus) (*model.Invoice, error) {
	if err := s.repo.UpdateStatus(ctx, ownerID, id, status); err != nil {
		return nil, notFound(err)
	}
	metrics.InvoiceStatusChangesTotal.WithLabelValues(string(status)).Inc()
	return s.Get(ctx, ownerID, id)
}

func (s *invoiceService) Stats(ctx context.Context, ownerID uint) (*repository.InvoiceStats, error) {
	return s.repo.Stats(ctx, ownerID)
}

func (in InvoiceInput) apply(inv *model.Invoice) error {
	setString(&inv.InvoiceNumber, in.InvoiceNumber)
	setString(&inv.CustomerName, in.CustomerName)
	setString(&inv.CustomerAddress, in.CustomerAddress)
	setString(&inv.TaxNumber, in.TaxNumber)
	setString(&inv.PreparedBy, in.PreparedBy)
	if in.Date != nil {
		inv.Date = *in.Date
	}
	if in.TaxRate != nil {
		if in.TaxRate.IsNegative() {
			return apperrors.NewValidationError("tax_rate", "must not be negative")
		}
		inv.TaxRate = *in.TaxRate
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperrors.NewValidationError("status", fmt.Sprintf("%q is not a valid choice", *in.Status))
		}
		inv.Status = *in.Status
	}
	return nil
}

func validateInvoice(inv *model.Invoice) error {
	switch {
	case inv.InvoiceNumber == "":
		return apperrors.NewValidationError("invoice_number", "this field is required")
	case inv.Date.IsZero():
		return apperrors.NewValidationError("date", "this field is required")
	case inv.CustomerName == "":
		return apperrors.NewValidationError("customer_name", "this field is required")
	case inv.CustomerAddress == "":
		return apperrors.NewValidationError("customer_address", "this field is required")
	}
	return nil
}

func buildServiceItems(in []ServiceItemInput) ([]model.ServiceItem, error) {
	items := make([]model.ServiceItem, 0, len(in))
	for i, item := range in {
		quantity := 1
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		if quantity < 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("services[%d].quantity", i), "must not be negative")
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("services[%d].name", i), "this field is required")
		}
		items = append(items, model.ServiceItem{
			Name:     strings.TrimSpace(item.Name),
			Cost:     item.Cost,
			Quantity: quantity,
		})
	}
	return items, nil
}

func checkNumberFree(ctx context.Context, repo repository.InvoiceRepository, number string, excludeID uint) error {
	taken, err := repo.ExistsByNumber(ctx, number, excludeID)
	if err != nil {
		return fmt.Errorf("check invoice number: %w", err)
	}
	if taken {
		return errDuplicateInvoiceNumber
	}
	return nil
}

var errDuplicateInvoiceNumber = apperrors.NewValidationError("invoice_number", "invoice with this invoice number already exists")

func invoiceWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateInvoiceNumber
	}
	return notFound(err)
}
