package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/persistence"
)

func newStore(t *testing.T) (*persistence.RecordStore, *persistence.FileBackend) {
	t.Helper()
	backend, err := persistence.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return persistence.NewRecordStore(backend), backend
}

func TestUserRepository_LoadFillsUsername(t *testing.T) {
	store, _ := newStore(t)
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.Users{"ann": {Email: "ann@x.com"}}))

	user, err := repo.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
	assert.Equal(t, "ann@x.com", user.Email)

	_, err = repo.GetByUsername(ctx, "Ann")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_MutateErrorSavesNothing(t *testing.T) {
	store, _ := newStore(t)
	repo := NewUserRepository(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Mutate(ctx, func(users domain.Users) error {
		users["ann"] = domain.User{Email: "ann@x.com"}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	users, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_ConcurrentMutateKeepsEveryWrite(t *testing.T) {
	store, _ := newStore(t)
	repo := NewUserRepository(store)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user%02d", i)
			assert.NoError(t, repo.Mutate(ctx, func(users domain.Users) error {
				users[name] = domain.User{Email: name + "@x.com"}
				return nil
			}))
		}(i)
	}
	wg.Wait()

	users, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, users, writers)
}

func TestTicketRepository_AppendAndDeleteByEmail(t *testing.T) {
	store, _ := newStore(t)
	repo := NewTicketRepository(store)
	ctx := context.Background()

	for _, email := range []string{"ann@x.com", "bob@x.com", "ann@x.com"} {
		require.NoError(t, repo.Append(ctx, &domain.Ticket{FirstName: "F", LastName: "L", Email: email, Type: "GA"}))
	}

	anns, err := repo.ListByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Len(t, anns, 2)

	removed, err := repo.DeleteByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	rest, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "bob@x.com", rest[0].Email)

	removed, err = repo.DeleteByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestTicketRepository_BackfillsIDs(t *testing.T) {
	store, backend := newStore(t)
	repo := NewTicketRepository(store)
	ctx := context.Background()

	legacy := `[{"fname":"Ann","lname":"Lee","email":"ann@x.com","type":"VIP"}]`
	require.NoError(t, os.WriteFile(backend.Path(persistence.CollectionTickets), []byte(legacy), 0o600))

	tickets, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Empty(t, tickets[0].ID)

	require.NoError(t, repo.Append(ctx, &domain.Ticket{FirstName: "Bob", Email: "bob@x.com"}))

	tickets, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.NotEmpty(t, tickets[0].ID)
	assert.NotEqual(t, tickets[0].ID, tickets[1].ID)
	assert.Equal(t, "VIP", tickets[0].Type)
}

func TestTicketRepository_EmptyLoadIsNonNil(t *testing.T) {
	store, _ := newStore(t)
	repo := NewTicketRepository(store)

	tickets, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}
