package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ticketbooth/eventpass/internal/document"
	"github.com/ticketbooth/eventpass/internal/events"
	"github.com/ticketbooth/eventpass/internal/persistence"
	"github.com/ticketbooth/eventpass/internal/repository"
)

type fakeGenerator struct {
	calls [][]document.Field
	err   error
}

func (g *fakeGenerator) Generate(fields []document.Field) ([]byte, error) {
	g.calls = append(g.calls, fields)
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-fake"), nil
}

func (g *fakeGenerator) ContentType() string { return "application/pdf" }

func (g *fakeGenerator) Extension() string { return ".pdf" }

type fixture struct {
	backend    *persistence.FileBackend
	users      repository.UserRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	generator  *fakeGenerator
	accounts   *AccountService
	ticketSvc  *TicketService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := persistence.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := persistence.NewRecordStore(backend)

	f := &fixture{
		backend:    backend,
		users:      repository.NewUserRepository(store),
		tickets:    repository.NewTicketRepository(store),
		dispatcher: events.NewInMemoryDispatcher(),
		generator:  &fakeGenerator{},
	}
	f.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo: f.tickets,
		Generator:  f.generator,
		Dispatcher: f.dispatcher,
	})
	f.accounts = NewAccountService(AccountDependencies{
		UserRepo:      f.users,
		Tickets:       f.ticketSvc,
		Dispatcher:    f.dispatcher,
		BcryptCost:    bcrypt.MinCost,
		AdminUsername: "admin",
	})
	return f
}

type failingTickets struct{}

func (failingTickets) DeleteByEmail(_ context.Context, _ string) (int, error) {
	return 0, errors.New("disk full")
}
