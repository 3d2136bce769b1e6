package model

import "time"

// Notification type constants
const (
	NotifTypeVaccineDue = "vaccine_due"
)

type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dhKey"`
	AuthKey   string    `json:"authKey"`
	CreatedAt time.Time `json:"createdAt"`
}
