package model

import "time"

// Vaccine is a master catalog entry describing a vaccine and the age in
// weeks at which it is due. Rows flagged is_default make up the schedule
// generated for every newly registered child.
type Vaccine struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	AgeInWeeks int       `json:"ageInWeeks"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

const (
	StatusPending = "Pending"
	StatusDone    = "Done"
)

// ChildVaccine is one scheduled vaccine instance for a registered child.
// The scheduled date is computed once at registration from the date of
// birth and the catalog entry's age offset, and never recomputed.
type ChildVaccine struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"-"`
	BabyName      string    `json:"babyName"`
	DateOfBirth   time.Time `json:"dateOfBirth"`
	VaccineID     int64     `json:"vaccineId"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Vaccine carries the joined catalog entry on read paths.
	Vaccine *Vaccine `json:"vaccine,omitempty"`
}
