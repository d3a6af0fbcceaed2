package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/model"
	"bizdesk/internal/service"
)

// FileHandler serves the caller's file vault.
type FileHandler struct {
	svc service.FileService
}

// NewFileHandler creates a file handler.
func NewFileHandler(svc service.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// Upload godoc
// @Summary Upload a file
// @Description file_type, file_format and size are inferred when omitted.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Display name"
// @Param file formData file true "File content"
// @Param file_type formData string false "photo or video"
// @Param file_format formData string false "Extension without the dot"
// @Param size formData int false "Size in bytes"
// @Success 201 {object} model.DataStore
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /files [post]
func (h *FileHandler) Upload(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}

	name := c.FormValue("name")
	if name == "" {
		return apperrors.NewValidationError("name", "this field is required")
	}
	var size int64
	if raw := c.FormValue("size"); raw != "" {
		size, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || size < 0 {
			return apperrors.NewValidationError("size", "a valid integer is required")
		}
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file", "this field is required")
	}
	content, err := header.Open()
	if err != nil {
		return err
	}
	defer content.Close()

	file, err := h.svc.Upload(c.Request().Context(), caller.ID, service.UploadInput{
		Name:        name,
		Filename:    header.Filename,
		Content:     content,
		ContentType: header.Header.Get(echo.HeaderContentType),
		FileType:    c.FormValue("file_type"),
		FileFormat:  c.FormValue("file_format"),
		Size:        size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, file)
}

// List godoc
// @Summary List the caller's files
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.DataStore
// @Failure 401 {object} errors.ErrorResponse
// @Router /files [get]
func (h *FileHandler) List(c echo.Context) error {
	return h.list(c, "")
}

// ListPhotos godoc
// @Summary List the caller's photos
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.DataStore
// @Router /files/photos [get]
func (h *FileHandler) ListPhotos(c echo.Context) error {
	return h.list(c, model.FileTypePhoto)
}

// ListVideos godoc
// @Summary List the caller's videos
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.DataStore
// @Router /files/videos [get]
func (h *FileHandler) ListVideos(c echo.Context) error {
	return h.list(c, model.FileTypeVideo)
}

func (h *FileHandler) list(c echo.Context, fileType model.FileType) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	files, err := h.svc.List(c.Request().Context(), caller.ID, fileType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, files)
}

// Get godoc
// @Summary Get file metadata
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} model.DataStore
// @Failure 404 {object} errors.ErrorResponse
// @Router /files/{id} [get]
func (h *FileHandler) Get(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	file, err := h.svc.Get(c.Request().Context(), caller.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, file)
}

// Delete godoc
// @Summary Delete a file and its stored content
// @Tags files
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c echo.Context) error {
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
