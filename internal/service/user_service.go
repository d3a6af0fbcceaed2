package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"bizdesk/internal/cache"
	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/logger"
	"bizdesk/internal/model"
	"bizdesk/internal/repository"
	"bizdesk/internal/storage"
)

const userCacheTTL = 5 * time.Minute

// UpdateUserInput is a partial profile update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Email       *string
	Username    *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Role        *string
	Location    *string
}

// UserService exposes self-service profile operations.
type UserService interface {
	GetSelf(ctx context.Context, id uint) (*model.User, error)
	UpdateSelf(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error)
	UploadProfilePhoto(ctx context.Context, id uint, filename string, content io.Reader, contentType string) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
	blobs storage.BlobStore
}

// NewUserService builds a UserService with repository, cache and blob store.
func NewUserService(repo repository.UserRepository, cache *cache.Client, blobs storage.BlobStore) UserService {
	return &userService{repo: repo, cache: cache, blobs: blobs}
}

func (s *userService) withURL(user *model.User) *model.User {
	if user.ProfilePhoto != "" {
		user.PhotoURL = s.blobs.URL(user.ProfilePhoto)
	}
	return user
}

func (s *userService) GetSelf(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, userCacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	s.withURL(user)

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, userCacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) UpdateSelf(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, apperrors.NewValidationError("email", "a user with this email already exists")
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, fmt.Errorf("check email: %w", err)
			}
			user.Email = email
		}
	}
	setString(&user.Username, in.Username)
	setString(&user.FirstName, in.FirstName)
	setString(&user.LastName, in.LastName)
	setString(&user.PhoneNumber, in.PhoneNumber)
	setString(&user.Role, in.Role)
	setString(&user.Location, in.Location)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewValidationError("email", "a user with this email already exists")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(id))
	return s.withURL(user), nil
}

// UploadProfilePhoto stores an image and points the profile at it. The
// previous photo is removed best-effort.
func (s *userService) UploadProfilePhoto(ctx context.Context, id uint, filename string, content io.Reader, contentType string) (*model.User, error) {
	format := FileFormat(filename)
	if InferFileType(format) != model.FileTypePhoto {
		return nil, apperrors.NewValidationError("profile_photo", "upload a valid image")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	key := fmt.Sprintf("profile/%d/%s.%s", id, uuid.NewString(), format)
	if err := s.blobs.Save(ctx, key, content, contentType); err != nil {
		return nil, fmt.Errorf("store profile photo: %w", err)
	}

	previous := user.ProfilePhoto
	user.ProfilePhoto = key
	if err := s.repo.UpdateProfilePhoto(ctx, id, key); err != nil {
		return nil, multierr.Append(fmt.Errorf("update user: %w", err), s.blobs.Delete(ctx, key))
	}
	_ = s.cache.Delete(ctx, userCacheKey(id))

	if previous != "" {
		if err := s.blobs.Delete(ctx, previous); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			log := logger.Get()
			log.Warn().Err(err).Str("key", previous).Uint("user_id", id).Msg("remove previous profile photo")
		}
	}
	return s.withURL(user), nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
