package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bizdesk/internal/errors"
	"bizdesk/internal/repository"
)

func TestUserService_UpdateSelf(t *testing.T) {
	gormDB := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(gormDB), nil, newFakeBlobStore())
	alice := seedUser(t, gormDB, "alice@example.com")
	seedUser(t, gormDB, "bob@example.com")
	ctx := context.Background()

	updated, err := svc.UpdateSelf(ctx, alice.ID, UpdateUserInput{FirstName: ptr(" Alice "), PhoneNumber: ptr("555-0100")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "555-0100", updated.PhoneNumber)
	assert.Equal(t, "alice@example.com", updated.Email)

	_, err = svc.UpdateSelf(ctx, alice.ID, UpdateUserInput{Email: ptr("BOB@example.com")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	moved, err := svc.UpdateSelf(ctx, alice.ID, UpdateUserInput{Email: ptr("alice@new.example.com")})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", moved.Email)

	self, err := svc.GetSelf(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example.com", self.Email)
	assert.Equal(t, "Alice", self.FirstName)

	_, err = svc.GetSelf(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserService_UploadProfilePhoto(t *testing.T) {
	gormDB := newTestDB(t)
	blobs := newFakeBlobStore()
	svc := NewUserService(repository.NewUserRepository(gormDB), nil, blobs)
	alice := seedUser(t, gormDB, "alice@example.com")
	ctx := context.Background()

	_, err := svc.UploadProfilePhoto(ctx, alice.ID, "cv.pdf", strings.NewReader("x"), "application/pdf")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	first, err := svc.UploadProfilePhoto(ctx, alice.ID, "me.png", strings.NewReader("one"), "image/png")
	require.NoError(t, err)
	firstKey := first.ProfilePhoto
	assert.True(t, strings.HasPrefix(firstKey, "profile/"))
	assert.Equal(t, "/media/"+firstKey, first.PhotoURL)

	second, err := svc.UploadProfilePhoto(ctx, alice.ID, "me2.jpg", strings.NewReader("two"), "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.ProfilePhoto)
	assert.False(t, blobs.has(firstKey))
	assert.True(t, blobs.has(second.ProfilePhoto))
	assert.Equal(t, 1, blobs.count())
}
