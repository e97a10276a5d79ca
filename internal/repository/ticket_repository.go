package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/persistence"
)

// TicketRepository encapsulates purchase record persistence.
type TicketRepository interface {
	Load(ctx context.Context) ([]domain.Ticket, error)
	Save(ctx context.Context, tickets []domain.Ticket) error
	// Mutate loads the collection, applies fn and saves what it returns while
	// holding the collection lock. Nothing is saved when fn fails.
	Mutate(ctx context.Context, fn func(tickets []domain.Ticket) ([]domain.Ticket, error)) error
	Append(ctx context.Context, ticket *domain.Ticket) error
	ListByEmail(ctx context.Context, email string) ([]domain.Ticket, error)
	DeleteByEmail(ctx context.Context, email string) (int, error)
}

type ticketRepository struct {
	store *persistence.RecordStore
	mu    sync.Mutex
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(store *persistence.RecordStore) TicketRepository {
	return &ticketRepository{store: store}
}

func (r *ticketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	tickets := []domain.Ticket{}
	if err := r.store.Load(ctx, persistence.CollectionTickets, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

func (r *ticketRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, tickets)
}

// save backfills ids for records written before tickets carried one.
func (r *ticketRepository) save(ctx context.Context, tickets []domain.Ticket) error {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	for i := range tickets {
		if tickets[i].ID == "" {
			tickets[i].ID = uuid.NewString()
		}
	}
	return r.store.Save(ctx, persistence.CollectionTickets, tickets)
}

func (r *ticketRepository) Mutate(ctx context.Context, fn func(tickets []domain.Ticket) ([]domain.Ticket, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tickets, err := r.Load(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(tickets)
	if err != nil {
		return err
	}
	return r.save(ctx, updated)
}

func (r *ticketRepository) Append(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	return r.Mutate(ctx, func(tickets []domain.Ticket) ([]domain.Ticket, error) {
		return append(tickets, *ticket), nil
	})
}

func (r *ticketRepository) ListByEmail(ctx context.Context, email string) ([]domain.Ticket, error) {
	tickets, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket.Email == email {
			matched = append(matched, ticket)
		}
	}
	return matched, nil
}

func (r *ticketRepository) DeleteByEmail(ctx context.Context, email string) (int, error) {
	removed := 0
	err := r.Mutate(ctx, func(tickets []domain.Ticket) ([]domain.Ticket, error) {
		kept := make([]domain.Ticket, 0, len(tickets))
		for _, ticket := range tickets {
			if ticket.Email == email {
				removed++
				continue
			}
			kept = append(kept, ticket)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
