package model

import "time"

// Canonical CRM statuses used by the weekday report. The Status column itself
// is free text.
const (
	CrmStatusNew      = "New"
	CrmStatusFollowUp = "Follow-up"
	CrmStatusClosed   = "Closed"
)

// CanonicalCrmStatuses returns the report columns in display order.
func CanonicalCrmStatuses() []string {
	return []string{CrmStatusNew, CrmStatusFollowUp, CrmStatusClosed}
}

// Crm is a lead record owned by exactly one user.
type Crm struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user" gorm:"not null;index"`
	FullName     string    `json:"full_name" gorm:"size:255"`
	EmailAddress string    `json:"email_address" gorm:"size:255"`
	PhoneNumber  string    `json:"phone_number" gorm:"size:255"`
	Price        string    `json:"price" gorm:"size:255"`
	EventType    string    `json:"event_type" gorm:"size:255"`
	Status       string    `json:"status" gorm:"size:50;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
