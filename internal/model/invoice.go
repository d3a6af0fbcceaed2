package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// PendingInvoiceStatuses are the statuses of invoices still awaiting payment.
var PendingInvoiceStatuses = []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusSent}

var hundred = decimal.NewFromInt(100)

// Invoice is a billing document owned by the user who created it.
type Invoice struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          uint            `json:"created_by" gorm:"not null;index"`
	InvoiceNumber   string          `json:"invoice_number" gorm:"uniqueIndex;size:50;not null"`
	Date            time.Time       `json:"date" gorm:"not null"`
	CustomerName    string          `json:"customer_name" gorm:"size:255;not null"`
	CustomerAddress string          `json:"customer_address" gorm:"type:text;not null"`
	TaxNumber       string          `json:"tax_number,omitempty" gorm:"size:50"`
	PreparedBy      string          `json:"prepared_by" gorm:"size:255"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null;default:0"`
	TaxRate         decimal.Decimal `json:"tax_rate" gorm:"type:decimal(5,2);not null;default:0"`
	TaxAmount       decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null;default:0"`
	Status          InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	User     User          `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Services []ServiceItem `json:"services" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// ComputeTotals derives subtotal, tax and total from the line items.
// TaxRate is a percentage.
func (i *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for idx := range i.Services {
		i.Services[idx].ComputeTotal()
		subtotal = subtotal.Add(i.Services[idx].Total)
	}
	i.Subtotal = subtotal
	i.TaxAmount = subtotal.Mul(i.TaxRate).Div(hundred).Round(2)
	i.TotalAmount = i.Subtotal.Add(i.TaxAmount)
}

// ServiceItem is a line item on an invoice.
type ServiceItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	InvoiceID uint            `json:"-" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Cost      decimal.Decimal `json:"cost" gorm:"type:decimal(12,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Total     decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
}

// ComputeTotal sets Total to Cost * Quantity.
func (s *ServiceItem) ComputeTotal() {
	s.Total = s.Cost.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// BeforeSave recomputes the derived total on every write.
func (s *ServiceItem) BeforeSave(tx *gorm.DB) error {
	s.ComputeTotal()
	return nil
}
