package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bizdesk/internal/config"
	"bizdesk/internal/db"
	"bizdesk/internal/logger"
	"bizdesk/internal/model"
	"bizdesk/internal/repository"
	"bizdesk/internal/service"
)

const (
	demoEmail    = "demo@bizdesk.local"
	demoPassword = "demo-password"
)

type demoLead struct {
	name, email, price, event, status string
}

var demoLeads = []demoLead{
	{"Layla Hassan", "layla@example.com", "1200", "Wedding", model.CrmStatusNew},
	{"Omar Farouk", "omar@example.com", "450", "Birthday", model.CrmStatusFollowUp},
	{"Nour Adel", "nour@example.com", "3000", "Conference", model.CrmStatusClosed},
	{"Karim Said", "karim@example.com", "800", "Engagement", model.CrmStatusNew},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})
	log.Info().Msg("starting seed script")

	gormDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, db.GormLogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	if err := seed(ctx, gormDB, log); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Str("email", demoEmail).Msg("seed completed")
}

// seed is safe to run repeatedly: existing rows are left alone.
func seed(ctx context.Context, gormDB *gorm.DB, log zerolog.Logger) error {
	users := repository.NewUserRepository(gormDB)
	crmRepo := repository.NewCrmRepository(gormDB)

	user, err := ensureDemoUser(ctx, users, log)
	if err != nil {
		return err
	}

	existing, err := crmRepo.ListByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}
	if len(existing) == 0 {
		crmService := service.NewCrmService(crmRepo)
		for _, l := range demoLeads {
			if _, err := crmService.Create(ctx, user.ID, service.CrmInput{
				FullName:     &l.name,
				EmailAddress: &l.email,
				Price:        &l.price,
				EventType:    &l.event,
				Status:       &l.status,
			}); err != nil {
				return fmt.Errorf("create lead %s: %w", l.name, err)
			}
		}
		log.Info().Int("count", len(demoLeads)).Msg("leads created")
	} else {
		log.Info().Int("count", len(existing)).Msg("leads already present, skipping")
	}

	invoiceRepo := repository.NewInvoiceRepository(gormDB)
	invoiceService := service.NewInvoiceService(invoiceRepo)
	for _, in := range demoInvoices() {
		taken, err := invoiceRepo.ExistsByNumber(ctx, *in.InvoiceNumber, 0)
		if err != nil {
			return fmt.Errorf("check invoice %s: %w", *in.InvoiceNumber, err)
		}
		if taken {
			log.Info().Str("invoice_number", *in.InvoiceNumber).Msg("invoice already present, skipping")
			continue
		}
		inv, err := invoiceService.Create(ctx, user.ID, in)
		if err != nil {
			return fmt.Errorf("create invoice %s: %w", *in.InvoiceNumber, err)
		}
		log.Info().Str("invoice_number", inv.InvoiceNumber).Str("total", inv.TotalAmount.StringFixed(2)).Msg("invoice created")
	}
	return nil
}

func ensureDemoUser(ctx context.Context, users repository.UserRepository, log zerolog.Logger) (*model.User, error) {
	user, err := users.FindByEmail(ctx, demoEmail)
	if err == nil {
		log.Info().Uint("user_id", user.ID).Msg("demo user already present")
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find demo user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user = &model.User{
		Email:        demoEmail,
		Username:     "demo",
		FirstName:    "Demo",
		LastName:     "User",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create demo user: %w", err)
	}
	log.Info().Uint("user_id", user.ID).Str("password", demoPassword).Msg("demo user created")
	return user, nil
}

func demoInvoices() []service.InvoiceInput {
	day := func(offset int) *time.Time {
		d := time.Now().UTC().AddDate(0, 0, -offset).Truncate(24 * time.Hour)
		return &d
	}
	str := func(s string) *string { return &s }
	qty := func(n int) *int { return &n }
	rate := decimal.NewFromInt(14)
	sent := model.InvoiceStatusSent
	paid := model.InvoiceStatusPaid

	return []service.InvoiceInput{
		{
			InvoiceNumber:   str("DEMO-0001"),
			Date:            day(30),
			CustomerName:    str("Nile Events LLC"),
			CustomerAddress: str("12 Corniche St, Cairo"),
			PreparedBy:      str("Demo User"),
			TaxRate:         &rate,
			Status:          &paid,
			ReplaceServices: true,
			Services: []service.ServiceItemInput{
				{Name: "Venue decoration", Cost: decimal.RequireFromString("750.00"), Quantity: qty(1)},
				{Name: "Photography (hour)", Cost: decimal.RequireFromString("60.00"), Quantity: qty(5)},
			},
		},
		{
			InvoiceNumber:   str("DEMO-0002"),
			Date:            day(3),
			CustomerName:    str("Delta Conferences"),
			CustomerAddress: str("4 Tahrir Sq, Cairo"),
			PreparedBy:      str("Demo User"),
			TaxRate:         &rate,
			Status:          &sent,
			ReplaceServices: true,
			Services: []service.ServiceItemInput{
				{Name: "Stage setup", Cost: decimal.RequireFromString("1200.00")},
			},
		},
	}
}
