package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bizdesk/internal/service"
)

// CrmHandler serves the caller's leads.
type CrmHandler struct {
	svc service.CrmService
}

// NewCrmHandler creates a CRM handler.
func NewCrmHandler(svc service.CrmService) *CrmHandler {
	return &CrmHandler{svc: svc}
}

// CrmRequest holds lead fields. The owner always comes from the session.
type CrmRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,max=255"`
	EmailAddress *string `json:"email_address" validate:"omitempty,max=255"`
	PhoneNumber  *string `json:"phone_number" validate:"omitempty,max=255"`
	Price        *string `json:"price" validate:"omitempty,max=255"`
	EventType    *string `json:"event_type" validate:"omitempty,max=255"`
	Status       *string `json:"status" validate:"omitempty,max=50"`
}

func (r CrmRequest) input() service.CrmInput {
	return service.CrmInput{
		FullName:     r.FullName,
		EmailAddress: r.EmailAddress,
		PhoneNumber:  r.PhoneNumber,
		Price:        r.Price,
		EventType:    r.EventType,
		Status:       r.Status,
	}
}

// List godoc
// @Summary List the caller's leads
// @Tags crm
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Crm
// @Failure 401 {object} errors.ErrorResponse
// @Router /crm [get]
func (h *CrmHandler) List(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	leads, err := h.svc.List(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leads)
}

// Create godoc
// @Summary Create a lead
// @Tags crm
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lead body CrmRequest true "Lead fields"
// @Success 201 {object} model.Crm
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /crm [post]
func (h *CrmHandler) Create(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CrmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	lead, err := h.svc.Create(c.Request().Context(), caller.ID, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lead)
}

// Get godoc
// @Summary Get a lead
// @Tags crm
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Success 200 {object} model.Crm
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /crm/{id} [get]
func (h *CrmHandler) Get(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	lead, err := h.svc.Get(c.Request().Context(), caller.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// Patch godoc
// @Summary Partially update a lead
// @Tags crm
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Param lead body CrmRequest true "Fields to change"
// @Success 200 {object} model.Crm
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /crm/{id} [patch]
func (h *CrmHandler) Patch(c echo.Context) error {
	return h.update(c, true)
}

// Replace godoc
// @Summary Replace a lead
// @Description Omitted fields are cleared.
// @Tags crm
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Param lead body CrmRequest true "Lead fields"
// @Success 200 {object} model.Crm
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /crm/{id} [put]
func (h *CrmHandler) Replace(c echo.Context) error {
	return h.update(c, false)
}

func (h *CrmHandler) update(c echo.Context, partial bool) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req CrmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	lead, err := h.svc.Update(c.Request().Context(), caller.ID, id, req.input(), partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

// Delete godoc
// @Summary Delete a lead
// @Tags crm
// @Security BearerAuth
// @Param id path int true "Lead ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /crm/{id} [delete]
func (h *CrmHandler) Delete(c echo.Context) error {
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

// StatusByDay godoc
// @Summary Count leads by creation weekday and status
// @Description Keys run Monday to Sunday; each holds New, Follow-up and Closed counts.
// @Tags crm
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]map[string]int
// @Failure 401 {object} errors.ErrorResponse
// @Router /crm/status_by_day [get]
func (h *CrmHandler) StatusByDay(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	report, err := h.svc.StatusByDay(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
