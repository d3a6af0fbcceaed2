package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/metrics"
	"bizdesk/internal/model"
	"bizdesk/internal/repository"
	"bizdesk/internal/storage"
)

// Column widths of the data_stores table.
const (
	maxFileNameLength   = 255
	maxFileFormatLength = 10
)

// UploadInput describes an uploaded file. FileType, FileFormat and Size are
// optional overrides and only used when non-empty or non-zero.
type UploadInput struct {
	Name        string
	Filename    string
	Content     io.Reader
	ContentType string
	FileType    string
	FileFormat  string
	Size        int64
}

// FileService manages the caller's file vault.
type FileService interface {
	Upload(ctx context.Context, ownerID uint, in UploadInput) (*model.DataStore, error)
	List(ctx context.Context, ownerID uint, fileType model.FileType) ([]model.DataStore, error)
	Get(ctx context.Context, ownerID, id uint) (*model.DataStore, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type fileService struct {
	repo     repository.DataStoreRepository
	blobs    storage.BlobStore
	maxBytes int64
}

// NewFileService creates a file service. maxBytes <= 0 disables the size cap.
func NewFileService(repo repository.DataStoreRepository, blobs storage.BlobStore, maxBytes int64) FileService {
	return &fileService{repo: repo, blobs: blobs, maxBytes: maxBytes}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Upload stores the blob first and then records it. If the record cannot be
// written the blob is removed again.
func (s *fileService) Upload(ctx context.Context, ownerID uint, in UploadInput) (*model.DataStore, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "this field is required")
	}
	if in.Content == nil || in.Filename == "" {
		return nil, apperrors.NewValidationError("file", "no file was submitted")
	}

	if utf8.RuneCountInString(name) > maxFileNameLength {
		return nil, apperrors.NewValidationError("name", fmt.Sprintf("ensure this field has no more than %d characters", maxFileNameLength))
	}

	ext := FileFormat(in.Filename)
	if utf8.RuneCountInString(ext) > maxFileFormatLength {
		return nil, apperrors.NewValidationError("file", fmt.Sprintf("file extension must have no more than %d characters", maxFileFormatLength))
	}
	format := ext
	if in.FileFormat != "" {
		format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(in.FileFormat), "."))
		if utf8.RuneCountInString(format) > maxFileFormatLength {
			return nil, apperrors.NewValidationError("file_format", fmt.Sprintf("ensure this field has no more than %d characters", maxFileFormatLength))
		}
	}
	fileType := InferFileType(format)
	if in.FileType != "" {
		fileType = model.FileType(strings.ToLower(strings.TrimSpace(in.FileType)))
		if !fileType.Valid() {
			return nil, apperrors.NewValidationError("file_type", fmt.Sprintf("%q is not a valid choice", in.FileType))
		}
	}

	key := fmt.Sprintf("uploads/%d/%s", ownerID, uuid.NewString())
	if ext != "" {
		key += "." + ext
	}

	body := &countingReader{r: in.Content}
	var src io.Reader = body
	if s.maxBytes > 0 {
		src = io.LimitReader(body, s.maxBytes+1)
	}
	if err := s.blobs.Save(ctx, key, src, in.ContentType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if s.maxBytes > 0 && body.n > s.maxBytes {
		return nil, multierr.Append(
			apperrors.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxBytes)),
			s.blobs.Delete(ctx, key),
		)
	}

	size := body.n
	if in.Size > 0 {
		size = in.Size
	}
	file := &model.DataStore{
		UserID:     ownerID,
		Name:       name,
		File:       key,
		FileType:   fileType,
		FileFormat: format,
		Size:       size,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		return nil, multierr.Append(fmt.Errorf("create file record: %w", err), s.blobs.Delete(ctx, key))
	}

	label := string(fileType)
	if label == "" {
		label = "other"
	}
	metrics.FilesUploadedTotal.WithLabelValues(label).Inc()
	metrics.FileUploadBytes.Observe(float64(body.n))
	return s.withURL(file), nil
}

func (s *fileService) List(ctx context.Context, ownerID uint, fileType model.FileType) ([]model.DataStore, error) {
	files, err := s.repo.ListByOwner(ctx, ownerID, fileType)
	if err != nil {
		return nil, err
	}
	for i := range files {
		s.withURL(&files[i])
	}
	return files, nil
}

func (s *fileService) Get(ctx context.Context, ownerID, id uint) (*model.DataStore, error) {
	file, err := s.repo.FindByOwner(ctx, ownerID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return s.withURL(file), nil
}

// Delete removes the blob and then the record. A blob that is already gone
// counts as removed; any other storage failure keeps the record.
func (s *fileService) Delete(ctx context.Context, ownerID, id uint) error {
	file, err := s.repo.FindByOwner(ctx, ownerID, id)
	if err != nil {
		return notFound(err)
	}
	if err := s.blobs.Delete(ctx, file.File); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return notFound(s.repo.DeleteByOwner(ctx, ownerID, id))
}

func (s *fileService) withURL(file *model.DataStore) *model.DataStore {
	file.URL = s.blobs.URL(file.File)
	return file
}
