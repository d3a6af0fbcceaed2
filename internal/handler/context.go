package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/model"
)

const currentUserKey = "current_user"

// SetCurrentUser stores the authenticated user on the request context. The
// session middleware calls it once per request.
func SetCurrentUser(c echo.Context, user *model.User) {
	c.Set(currentUserKey, user)
}

// currentUser returns the authenticated user, failing with
// ErrAuthentication when the session middleware did not run.
func currentUser(c echo.Context) (*model.User, error) {
	user, ok := c.Get(currentUserKey).(*model.User)
	if !ok || user == nil {
		return nil, apperrors.ErrAuthentication
	}
	return user, nil
}

// idParam parses the :id path parameter. Anything that is not a positive
// integer cannot name a row, so it is reported as not found.
func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrNotFound
	}
	return uint(id), nil
}

// MessageResponse is returned by endpoints that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewValidationError("", "invalid request body")
	}
	return c.Validate(req)
}
