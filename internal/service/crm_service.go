package service

import (
	"context"
	"fmt"
	"time"

	"bizdesk/internal/model"
	"bizdesk/internal/repository"
)

// CrmInput carries lead fields. On a partial update nil fields are left
// unchanged; on a full update they are cleared.
type CrmInput struct {
	FullName     *string
	EmailAddress *string
	PhoneNumber  *string
	Price        *string
	EventType    *string
	Status       *string
}

// StatusCounts holds the number of leads per canonical status.
type StatusCounts struct {
	New      int `json:"New"`
	FollowUp int `json:"Follow-up"`
	Closed   int `json:"Closed"`
}

func (c *StatusCounts) add(status string) {
	switch status {
	case model.CrmStatusNew:
		c.New++
	case model.CrmStatusFollowUp:
		c.FollowUp++
	case model.CrmStatusClosed:
		c.Closed++
	}
}

// WeekdayStatusReport counts leads by creation weekday and canonical status.
type WeekdayStatusReport struct {
	Monday    StatusCounts `json:"Monday"`
	Tuesday   StatusCounts `json:"Tuesday"`
	Wednesday StatusCounts `json:"Wednesday"`
	Thursday  StatusCounts `json:"Thursday"`
	Friday    StatusCounts `json:"Friday"`
	Saturday  StatusCounts `json:"Saturday"`
	Sunday    StatusCounts `json:"Sunday"`
}

// Day returns the counts for day 0 (Monday) through 6 (Sunday).
func (r *WeekdayStatusReport) Day(i int) *StatusCounts {
	return [...]*StatusCounts{&r.Monday, &r.Tuesday, &r.Wednesday, &r.Thursday, &r.Friday, &r.Saturday, &r.Sunday}[i]
}

// CrmService manages the caller's leads.
type CrmService interface {
	List(ctx context.Context, ownerID uint) ([]model.Crm, error)
	Get(ctx context.Context, ownerID, id uint) (*model.Crm, error)
	Create(ctx context.Context, ownerID uint, in CrmInput) (*model.Crm, error)
	Update(ctx context.Context, ownerID, id uint, in CrmInput, partial bool) (*model.Crm, error)
	Delete(ctx context.Context, ownerID, id uint) error
	StatusByDay(ctx context.Context, ownerID uint) (WeekdayStatusReport, error)
}

type crmService struct {
	repo repository.CrmRepository
}

// NewCrmService creates a new CRM service.
func NewCrmService(repo repository.CrmRepository) CrmService {
	return &crmService{repo: repo}
}

func (s *crmService) List(ctx context.Context, ownerID uint) ([]model.Crm, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *crmService) Get(ctx context.Context, ownerID, id uint) (*model.Crm, error) {
	crm, err := s.repo.FindByOwner(ctx, ownerID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return crm, nil
}

// Create stores a lead owned by ownerID.
func (s *crmService) Create(ctx context.Context, ownerID uint, in CrmInput) (*model.Crm, error) {
	crm := &model.Crm{UserID: ownerID}
	in.apply(crm, false)
	if err := s.repo.Create(ctx, crm); err != nil {
		return nil, fmt.Errorf("create crm: %w", err)
	}
	return crm, nil
}

func (s *crmService) Update(ctx context.Context, ownerID, id uint, in CrmInput, partial bool) (*model.Crm, error) {
	crm, err := s.repo.FindByOwner(ctx, ownerID, id)
	if err != nil {
		return nil, notFound(err)
	}
	in.apply(crm, partial)
	if err := s.repo.Update(ctx, crm); err != nil {
		return nil, notFound(err)
	}
	return crm, nil
}

func (s *crmService) Delete(ctx context.Context, ownerID, id uint) error {
	return notFound(s.repo.DeleteByOwner(ctx, ownerID, id))
}

// StatusByDay pivots the caller's leads by creation weekday and status.
// Leads with a non-canonical status are not counted.
func (s *crmService) StatusByDay(ctx context.Context, ownerID uint) (WeekdayStatusReport, error) {
	var report WeekdayStatusReport
	rows, err := s.repo.StatusRows(ctx, ownerID, model.CanonicalCrmStatuses())
	if err != nil {
		return report, fmt.Errorf("load crm statuses: %w", err)
	}
	for _, row := range rows {
		report.Day(weekdayIndex(row.CreatedAt.UTC().Weekday())).add(row.Status)
	}
	return report, nil
}

// weekdayIndex maps the 1=Sunday..7=Saturday day number to 0=Monday..6=Sunday.
func weekdayIndex(wd time.Weekday) int {
	raw := int(wd) + 1
	return ((raw-2)%7 + 7) % 7
}

func (in CrmInput) apply(crm *model.Crm, partial bool) {
	assign := func(dst *string, v *string) {
		switch {
		case v != nil:
			*dst = *v
		case !partial:
			*dst = ""
		}
	}
	assign(&crm.FullName, in.FullName)
	assign(&crm.EmailAddress, in.EmailAddress)
	assign(&crm.PhoneNumber, in.PhoneNumber)
	assign(&crm.Price, in.Price)
	assign(&crm.EventType, in.EventType)
	assign(&crm.Status, in.Status)
}
