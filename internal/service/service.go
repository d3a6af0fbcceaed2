package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/model"
)

const minPasswordLength = 8

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// notFound collapses missing rows into ErrNotFound and passes other errors
// through.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

func checkNewPassword(password, confirm string) error {
	if password != confirm {
		return apperrors.NewValidationError("confirm_password", "passwords do not match")
	}
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

var (
	imageFormats = map[string]struct{}{
		"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {},
		"webp": {}, "heic": {}, "svg": {}, "tiff": {},
	}
	videoFormats = map[string]struct{}{
		"mp4": {}, "mov": {}, "avi": {}, "mkv": {}, "webm": {},
		"wmv": {}, "flv": {}, "m4v": {}, "3gp": {},
	}
)

// FileFormat returns the lowercased extension of filename without the dot.
func FileFormat(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// InferFileType classifies a file format. Unknown formats return "".
func InferFileType(format string) model.FileType {
	format = strings.ToLower(format)
	if _, ok := imageFormats[format]; ok {
		return model.FileTypePhoto
	}
	if _, ok := videoFormats[format]; ok {
		return model.FileTypeVideo
	}
	return ""
}
