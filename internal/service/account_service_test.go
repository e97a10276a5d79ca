package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/events"
	"github.com/ticketbooth/eventpass/internal/persistence"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

func TestAccountService_RegisterThenAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.accounts.Register(ctx, "ann", "pw1", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, "pw1", user.PasswordHash)

	got, err := f.accounts.Authenticate(ctx, "ann", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)

	_, err = f.accounts.Authenticate(ctx, "ann", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = f.accounts.Authenticate(ctx, "nobody", "pw1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = f.accounts.Authenticate(ctx, "Ann", "pw1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "usernames are case-sensitive")
}

func TestAccountService_RegisterConflictsLeaveCollectionUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, "ann", "pw1", "ann@x.com")
	require.NoError(t, err)
	before, err := f.users.Load(ctx)
	require.NoError(t, err)

	_, err = f.accounts.Register(ctx, "ann", "pw2", "bob@x.com")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "username taken")

	_, err = f.accounts.Register(ctx, "bob", "pw2", "ann@x.com")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "email taken")

	after, err := f.users.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = f.accounts.Authenticate(ctx, "ann", "pw1")
	assert.NoError(t, err)
}

func TestAccountService_RegisterRequiresFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.Register(context.Background(), "ann", "", "ann@x.com")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestAccountService_ConcurrentRegistrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.accounts.Register(ctx, fmt.Sprintf("user%d", i), "pw", fmt.Sprintf("user%d@x.com", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	users, err := f.accounts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, n)
}

func TestAccountService_Edit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, "ann", "pw1", "ann@x.com")
	require.NoError(t, err)

	updated, err := f.accounts.Edit(ctx, "ann", EditInput{Name: "Ann Lee", Email: "lee@x.com", Password: "pw9"})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", updated.Name)
	assert.Equal(t, "lee@x.com", updated.Email)

	_, err = f.accounts.Authenticate(ctx, "ann", "pw1")
	assert.Error(t, err)
	_, err = f.accounts.Authenticate(ctx, "ann", "pw9")
	assert.NoError(t, err)

	stored, err := f.accounts.Get(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "lee@x.com", stored.Email)

	_, err = f.accounts.Edit(ctx, "ghost", EditInput{Name: "x", Email: "x", Password: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAccountService_DeleteCascadesOnlyMatchingTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, "ann", "pw1", "ann@x.com")
	require.NoError(t, err)
	_, err = f.accounts.Register(ctx, "bob", "pw2", "bob@x.com")
	require.NoError(t, err)

	for _, email := range []string{"ann@x.com", "bob@x.com", "ann@x.com", "carol@x.com"} {
		_, err := f.ticketSvc.Purchase(ctx, PurchaseInput{FirstName: "F", LastName: "L", Email: email, Type: "GA"})
		require.NoError(t, err)
	}

	var deleted []events.Event
	f.dispatcher.Subscribe(events.EventUserDeleted, func(_ context.Context, e events.Event) error {
		deleted = append(deleted, e)
		return nil
	})

	removed, err := f.accounts.Delete(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	users, err := f.accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	tickets, err := f.ticketSvc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "bob@x.com", tickets[0].Email)
	assert.Equal(t, "carol@x.com", tickets[1].Email)

	require.Len(t, deleted, 1)
	assert.Equal(t, "ann", deleted[0].Subject)

	_, err = f.accounts.Delete(ctx, "ann")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAccountService_DeleteKeepsUserWhenCascadeFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.accounts.Register(ctx, "ann", "pw1", "ann@x.com")
	require.NoError(t, err)

	accounts := NewAccountService(AccountDependencies{UserRepo: f.users, Tickets: failingTickets{}, BcryptCost: 4})
	_, err = accounts.Delete(ctx, "ann")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIOFailure))

	_, err = f.accounts.Get(ctx, "ann")
	assert.NoError(t, err)
}

func TestAccountService_LegacyPlaintextUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	store := persistence.NewRecordStore(f.backend)
	require.NoError(t, store.Save(ctx, persistence.CollectionUsers, map[string]map[string]string{
		"ann": {"password": "pw1", "email": "ann@x.com"},
	}))

	_, err := f.accounts.Authenticate(ctx, "ann", "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	user, err := f.accounts.Authenticate(ctx, "ann", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.Empty(t, user.LegacyPassword)
	assert.Equal(t, domain.RoleUser, user.Role)

	stored, err := f.users.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Empty(t, stored.LegacyPassword)

	_, err = f.accounts.Authenticate(ctx, "ann", "pw1")
	assert.NoError(t, err)
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.EnsureAdmin(ctx, "admin", "", "admin@x.com"))
	_, err := f.accounts.Get(ctx, "admin")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "no password, no account")

	require.NoError(t, f.accounts.EnsureAdmin(ctx, "admin", "secret", "admin@x.com"))
	admin, err := f.accounts.Authenticate(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	require.NoError(t, f.accounts.EnsureAdmin(ctx, "admin", "other", "admin@x.com"))
	_, err = f.accounts.Authenticate(ctx, "admin", "secret")
	assert.NoError(t, err, "existing admin keeps its password")

	_, err = f.accounts.Register(ctx, "admin", "pw", "someone@x.com")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestAccountService_EnsureAdminPromotesLegacyRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.Save(ctx, domain.Users{
		"root": {Email: "root@x.com", LegacyPassword: "pw"},
	}))
	require.NoError(t, f.accounts.EnsureAdmin(ctx, "root", "", ""))

	user, err := f.accounts.Authenticate(ctx, "root", "pw")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestAccountService_EnsureAdminNeverPromotesRegularUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// no ADMIN_PASSWORD: nothing is created and the name stays reserved
	require.NoError(t, f.accounts.EnsureAdmin(ctx, "admin", "", "admin@x.com"))
	_, err := f.accounts.Register(ctx, "admin", "attacker", "evil@x.com")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	// an account registered under a name that later became the admin name
	_, err = f.accounts.Register(ctx, "root", "attacker", "evil@x.com")
	require.NoError(t, err)
	require.NoError(t, f.accounts.EnsureAdmin(ctx, "root", "secret", "root@x.com"))

	user, err := f.accounts.Authenticate(ctx, "root", "attacker")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin())
	_, err = f.accounts.Authenticate(ctx, "root", "secret")
	assert.Error(t, err)
}

func TestAccountService_ListSorted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"carol", "ann", "bob"} {
		_, err := f.accounts.Register(ctx, name, "pw", name+"@x.com")
		require.NoError(t, err)
	}

	users, err := f.accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"ann", "bob", "carol"}, []string{users[0].Username, users[1].Username, users[2].Username})
}
