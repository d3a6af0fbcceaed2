package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/model"
	"bizdesk/internal/service"
)

const dateLayout = "2006-01-02"

// InvoiceHandler serves the caller's invoices.
type InvoiceHandler struct {
	svc service.InvoiceService
}

// NewInvoiceHandler creates an invoice handler.
func NewInvoiceHandler(svc service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// ServiceItemRequest is one line item. A client supplied total is ignored.
type ServiceItemRequest struct {
	Name     string          `json:"name" validate:"max=255"`
	Cost     decimal.Decimal `json:"cost"`
	Quantity *int            `json:"quantity"`
}

// InvoiceRequest carries invoice fields. Date uses YYYY-MM-DD. When
// services is present it replaces every existing line item.
type InvoiceRequest struct {
	InvoiceNumber   *string               `json:"invoice_number" validate:"omitempty,max=50"`
	Date            *string               `json:"date"`
	CustomerName    *string               `json:"customer_name" validate:"omitempty,max=255"`
	CustomerAddress *string               `json:"customer_address"`
	TaxNumber       *string               `json:"tax_number" validate:"omitempty,max=50"`
	PreparedBy      *string               `json:"prepared_by" validate:"omitempty,max=255"`
	TaxRate         *decimal.Decimal      `json:"tax_rate"`
	Status          *string               `json:"status"`
	Services        *[]ServiceItemRequest `json:"services" validate:"omitempty,dive"`
}

func (r InvoiceRequest) input() (service.InvoiceInput, error) {
	in := service.InvoiceInput{
		InvoiceNumber:   r.InvoiceNumber,
		CustomerName:    r.CustomerName,
		CustomerAddress: r.CustomerAddress,
		TaxNumber:       r.TaxNumber,
		PreparedBy:      r.PreparedBy,
		TaxRate:         r.TaxRate,
	}
	if r.Date != nil {
		date, err := time.Parse(dateLayout, *r.Date)
		if err != nil {
			return in, apperrors.NewValidationError("date", "date has wrong format, use YYYY-MM-DD")
		}
		in.Date = &date
	}
	if r.Status != nil {
		status := model.InvoiceStatus(*r.Status)
		in.Status = &status
	}
	if r.Services != nil {
		in.ReplaceServices = true
		in.Services = make([]service.ServiceItemInput, 0, len(*r.Services))
		for _, item := range *r.Services {
			in.Services = append(in.Services, service.ServiceItemInput{
				Name:     item.Name,
				Cost:     item.Cost,
				Quantity: item.Quantity,
			})
		}
	}
	return in, nil
}

func (h *InvoiceHandler) bindInput(c echo.Context) (service.InvoiceInput, error) {
	var req InvoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return service.InvoiceInput{}, err
	}
	return req.input()
}

// List godoc
// @Summary List the caller's invoices
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Invoice
// @Failure 401 {object} errors.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	invoices, err := h.svc.List(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoices)
}

// Search godoc
// @Summary Search invoices
// @Description Case-insensitive match on invoice number, customer name or address.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Success 200 {array} model.Invoice
// @Failure 401 {object} errors.ErrorResponse
// @Router /invoices/search [get]
func (h *InvoiceHandler) Search(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	invoices, err := h.svc.Search(c.Request().Context(), caller.ID, c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoices)
}

// Stats godoc
// @Summary Invoice totals for the caller
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.InvoiceStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /invoices/stats [get]
func (h *InvoiceHandler) Stats(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Create godoc
// @Summary Create an invoice with its line items
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body InvoiceRequest true "Invoice"
// @Success 201 {object} model.Invoice
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	in, err := h.bindInput(c)
	if err != nil {
		return err
	}
	invoice, err := h.svc.Create(c.Request().Context(), caller.ID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invoice)
}

// Get godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} model.Invoice
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	invoice, err := h.svc.Get(c.Request().Context(), caller.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

// Update godoc
// @Summary Update an invoice
// @Description Absent fields are kept. A services array replaces all line items.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Param invoice body InvoiceRequest true "Fields to change"
// @Success 200 {object} model.Invoice
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [patch]
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	in, err := h.bindInput(c)
	if err != nil {
		return err
	}
	invoice, err := h.svc.Update(c.Request().Context(), caller.ID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

// Delete godoc
// @Summary Delete an invoice and its line items
// @Tags invoices
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), caller.ID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAsPaid godoc
// @Summary Mark an invoice as paid
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} model.Invoice
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/mark_as_paid [post]
func (h *InvoiceHandler) MarkAsPaid(c echo.Context) error {
	return h.mark(c, h.svc.MarkAsPaid)
}

// MarkAsSent godoc
// @Summary Mark an invoice as sent
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invoice ID"
// @Success 200 {object} model.Invoice
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/mark_as_sent [post]
func (h *InvoiceHandler) MarkAsSent(c echo.Context) error {
	return h.mark(c, h.svc.MarkAsSent)
}

type markFunc func(ctx context.Context, ownerID, id uint) (*model.Invoice, error)

func (h *InvoiceHandler) mark(c echo.Context, fn markFunc) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	invoice, err := fn(c.Request().Context(), caller.ID, id)
	if err != nil {
		return fmt.Errorf("mark invoice %d: %w", id, err)
	}
	return c.JSON(http.StatusOK, invoice)
}
