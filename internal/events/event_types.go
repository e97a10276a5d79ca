package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserUpdated     EventType = "user_updated"
	EventUserDeleted     EventType = "user_deleted"
	EventTicketPurchased EventType = "ticket_purchased"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	TicketsRemoved int    `json:"tickets_removed"`
}

// TicketPurchasedPayload payload.
type TicketPurchasedPayload struct {
	TicketID string `json:"ticket_id"`
	Email    string `json:"email"`
	Type     string `json:"type"`
}
