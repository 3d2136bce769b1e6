package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Phone                *string    `json:"phone"`
	Role                 string     `json:"role"`
	PregnancyWeek        *int       `json:"pregnancyWeek"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}
