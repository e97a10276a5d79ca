package dto

import "time"

// PurchaseRequest is the ticket purchase form.
type PurchaseRequest struct {
	FirstName string `form:"fname" json:"fname"`
	LastName  string `form:"lname" json:"lname"`
	Email     string `form:"email" json:"email"`
	Type      string `form:"type" json:"type"`
}

// TicketSummary is a purchase as shown in the history listing.
type TicketSummary struct {
	ID        string    `json:"id"`
	FirstName string    `json:"fname"`
	LastName  string    `json:"lname"`
	Email     string    `json:"email"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
