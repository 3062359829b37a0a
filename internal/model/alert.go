package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subscription registers an email for alerts about a company.
type Subscription struct {
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
}

// Notification is an in-app message. Lists are kept newest-first.
type Notification struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

// NewNotification creates a notification stamped with now.
func NewNotification(message string, now time.Time) Notification {
	return Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Timestamp: now.UnixMilli(),
	}
}

// SubscriptionNotice is the message recorded when an alert is activated.
func SubscriptionNotice(company string) string {
	return fmt.Sprintf("Alert activated for %s", company)
}

// IsSubscribed reports whether any subscription names company, comparing
// normalized names.
func IsSubscribed(subs []Subscription, company string) bool {
	key := NormalizeName(company)
	for _, s := range subs {
		if NormalizeName(s.CompanyName) == key {
			return true
		}
	}
	return false
}
