package domain

import "time"

// Ticket is a purchase record. Email ties it back to a user by value only.
type Ticket struct {
	ID        string    `json:"id,omitempty"`
	FirstName string    `json:"fname"`
	LastName  string    `json:"lname"`
	Email     string    `json:"email"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
