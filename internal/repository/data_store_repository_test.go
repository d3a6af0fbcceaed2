package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bizdesk/internal/model"
)

func TestDataStoreRepository_ListFilterAndOrder(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewDataStoreRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, f := range []model.DataStore{
		{UserID: alice.ID, Name: "old photo", File: "a", FileType: model.FileTypePhoto},
		{UserID: alice.ID, Name: "clip", File: "b", FileType: model.FileTypeVideo},
		{UserID: alice.ID, Name: "doc", File: "c"},
		{UserID: alice.ID, Name: "new photo", File: "d", FileType: model.FileTypePhoto},
		{UserID: bob.ID, Name: "bob photo", File: "e", FileType: model.FileTypePhoto},
	} {
		f := f
		f.UploadedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(ctx, &f))
	}

	all, err := repo.ListByOwner(ctx, alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "new photo", all[0].Name)

	photos, err := repo.ListByOwner(ctx, alice.ID, model.FileTypePhoto)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "new photo", photos[0].Name)
	assert.Equal(t, "old photo", photos[1].Name)

	videos, err := repo.ListByOwner(ctx, alice.ID, model.FileTypeVideo)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "clip", videos[0].Name)
}

func TestDataStoreRepository_OwnerScoping(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewDataStoreRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	f := &model.DataStore{UserID: alice.ID, Name: "x", File: "uploads/x.jpg"}
	require.NoError(t, repo.Create(ctx, f))

	_, err := repo.FindByOwner(ctx, bob.ID, f.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteByOwner(ctx, bob.ID, f.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.DeleteByOwner(ctx, alice.ID, f.ID))
	_, err = repo.FindByOwner(ctx, alice.ID, f.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
