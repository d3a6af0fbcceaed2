package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bizdesk/internal/model"
)

func newInvoice(ownerID uint, number, customer string, status model.InvoiceStatus, total string) *model.Invoice {
	inv := &model.Invoice{
		UserID:          ownerID,
		InvoiceNumber:   number,
		Date:            date(2024, 3, 1),
		CustomerName:    customer,
		CustomerAddress: "1 Main Street",
		Status:          status,
	}
	if total != "" {
		inv.Services = []model.ServiceItem{{Name: "work", Cost: decimal.RequireFromString(total), Quantity: 1}}
	}
	inv.ComputeTotals()
	return inv
}

func TestInvoiceRepository_CreateWithServices(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")

	inv := newInvoice(alice.ID, "INV-1", "Acme", model.InvoiceStatusDraft, "")
	inv.Services = []model.ServiceItem{
		{Name: "design", Cost: decimal.RequireFromString("10.00"), Quantity: 3, Total: decimal.NewFromInt(999)},
		{Name: "hosting", Cost: decimal.RequireFromString("5.00"), Quantity: 0},
	}
	inv.ComputeTotals()
	require.NoError(t, repo.Create(ctx, inv))

	found, err := repo.FindByOwner(ctx, alice.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, found.Services, 2)
	assert.Equal(t, "design", found.Services[0].Name)
	assert.True(t, decimal.NewFromInt(30).Equal(found.Services[0].Total))
	assert.Equal(t, 0, found.Services[1].Quantity)
	assert.True(t, decimal.NewFromInt(30).Equal(found.TotalAmount))
}

func TestInvoiceRepository_ReplaceServicesInTransaction(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")

	inv := newInvoice(alice.ID, "INV-1", "Acme", model.InvoiceStatusDraft, "100")
	require.NoError(t, repo.Create(ctx, inv))

	err := repo.WithTransaction(ctx, func(ctx context.Context, tx InvoiceRepository) error {
		locked, err := tx.FindByOwnerForUpdate(ctx, alice.ID, inv.ID)
		if err != nil {
			return err
		}
		locked.Services = []model.ServiceItem{{Name: "new", Cost: decimal.NewFromInt(7), Quantity: 2}}
		locked.ComputeTotals()
		if err := tx.ReplaceServices(ctx, locked.ID, locked.Services); err != nil {
			return err
		}
		return tx.UpdateFields(ctx, locked)
	})
	require.NoError(t, err)

	found, err := repo.FindByOwner(ctx, alice.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, found.Services, 1)
	assert.Equal(t, "new", found.Services[0].Name)
	assert.True(t, decimal.NewFromInt(14).Equal(found.TotalAmount))

	var count int64
	require.NoError(t, gormDB.Model(&model.ServiceItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInvoiceRepository_TransactionRollsBack(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")

	inv := newInvoice(alice.ID, "INV-1", "Acme", model.InvoiceStatusDraft, "100")
	require.NoError(t, repo.Create(ctx, inv))

	err := repo.WithTransaction(ctx, func(ctx context.Context, tx InvoiceRepository) error {
		if err := tx.ReplaceServices(ctx, inv.ID, nil); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, alice.ID, 9999, model.InvoiceStatusPaid)
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindByOwner(ctx, alice.ID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, found.Services, 1)
}

func TestInvoiceRepository_SearchIsScopedAndCaseInsensitive(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "INV-ACME-1", "Globex", model.InvoiceStatusDraft, "")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "INV-2", "Acme Corp", model.InvoiceStatusDraft, "")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "INV-3", "Initech", model.InvoiceStatusDraft, "")))
	require.NoError(t, repo.Create(ctx, newInvoice(bob.ID, "INV-4", "acme", model.InvoiceStatusDraft, "")))

	found, err := repo.Search(ctx, alice.ID, "acme")
	require.NoError(t, err)
	numbers := make([]string, 0, len(found))
	for _, inv := range found {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	assert.ElementsMatch(t, []string{"INV-ACME-1", "INV-2"}, numbers)

	found, err = repo.Search(ctx, alice.ID, "MAIN street")
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestInvoiceRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")

	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "INV-1", "Globex", model.InvoiceStatusDraft, "")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "INV-2", "Acme", model.InvoiceStatusDraft, "")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "INV_3", "100% Fun!", model.InvoiceStatusDraft, "")))

	tests := []struct {
		query string
		want  []string
	}{
		{"%", []string{"INV_3"}},
		{"_", []string{"INV_3"}},
		{"!", []string{"INV_3"}},
		{"inv_", []string{"INV_3"}},
		{"inv-", []string{"INV-1", "INV-2"}},
		{"0% f", []string{"INV_3"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := repo.Search(ctx, alice.ID, tt.query)
			require.NoError(t, err)
			numbers := make([]string, 0, len(found))
			for _, inv := range found {
				numbers = append(numbers, inv.InvoiceNumber)
			}
			assert.ElementsMatch(t, tt.want, numbers)
		})
	}
}

func TestInvoiceRepository_Stats(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	empty, err := repo.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalInvoices)
	assert.True(t, empty.TotalRevenue.IsZero())

	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "A-1", "C", model.InvoiceStatusDraft, "10")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "A-2", "C", model.InvoiceStatusPaid, "100")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "A-3", "C", model.InvoiceStatusPaid, "50")))
	require.NoError(t, repo.Create(ctx, newInvoice(alice.ID, "A-4", "C", model.InvoiceStatusCancelled, "20")))
	require.NoError(t, repo.Create(ctx, newInvoice(bob.ID, "B-1", "C", model.InvoiceStatusPaid, "1000")))

	stats, err := repo.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalInvoices)
	assert.True(t, decimal.NewFromInt(150).Equal(stats.TotalRevenue), "got %s", stats.TotalRevenue)
	assert.Equal(t, int64(1), stats.PendingInvoices)
}

func TestInvoiceRepository_DeleteAndStatusScoping(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	inv := newInvoice(alice.ID, "A-1", "C", model.InvoiceStatusDraft, "10")
	require.NoError(t, repo.Create(ctx, inv))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, bob.ID, inv.ID, model.InvoiceStatusPaid), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteByOwner(ctx, bob.ID, inv.ID), gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, alice.ID, inv.ID, model.InvoiceStatusPaid))
	require.NoError(t, repo.UpdateStatus(ctx, alice.ID, inv.ID, model.InvoiceStatusPaid))
	found, err := repo.FindByOwner(ctx, alice.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, found.Status)

	require.NoError(t, repo.DeleteByOwner(ctx, alice.ID, inv.ID))
	var count int64
	require.NoError(t, gormDB.Model(&model.ServiceItem{}).Where("invoice_id = ?", inv.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInvoiceRepository_ExistsByNumber(t *testing.T) {
	gormDB := newTestDB(t)
	repo := NewInvoiceRepository(gormDB)
	ctx := context.Background()
	alice := createUser(t, gormDB, "alice@example.com")
	bob := createUser(t, gormDB, "bob@example.com")

	inv := newInvoice(alice.ID, "INV-1", "C", model.InvoiceStatusDraft, "")
	require.NoError(t, repo.Create(ctx, inv))

	exists, err := repo.ExistsByNumber(ctx, "INV-1", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNumber(ctx, "INV-1", inv.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Create(ctx, newInvoice(bob.ID, "INV-1", "C", model.InvoiceStatusDraft, ""))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
