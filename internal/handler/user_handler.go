package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/service"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateUserRequest is a partial profile update; absent fields stay as they are.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Username    *string `json:"username" validate:"omitempty,max=150"`
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	Role        *string `json:"role" validate:"omitempty,max=100"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
}

// GetMe godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetSelf(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update the current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body UpdateUserRequest true "Profile fields"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.UpdateSelf(c.Request().Context(), caller.ID, service.UpdateUserInput{
		Email:       req.Email,
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		Location:    req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UploadPhoto godoc
// @Summary Replace the current user's profile photo
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param profile_photo formData file true "Image file"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me/photo [put]
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("profile_photo")
	if err != nil {
		return apperrors.NewValidationError("profile_photo", "this field is required")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	user, err := h.svc.UploadProfilePhoto(c.Request().Context(), caller.ID, header.Filename, file, header.Header.Get(echo.HeaderContentType))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
