package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketbooth/eventpass/internal/auth"
	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/events"
	"github.com/ticketbooth/eventpass/internal/repository"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

// TicketPurger removes purchase records owned by an email.
type TicketPurger interface {
	DeleteByEmail(ctx context.Context, email string) (int, error)
}

// AccountService manages the users collection.
type AccountService struct {
	users      repository.UserRepository
	tickets    TicketPurger
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	adminName  string
	now        func() time.Time
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	UserRepo   repository.UserRepository
	Tickets    TicketPurger
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	// AdminUsername is reserved for the bootstrap admin and cannot be
	// self-registered.
	AdminUsername string
}

// EditInput replaces every editable field of an account.
type EditInput struct {
	Name     string
	Email    string
	Password string
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		users:      deps.UserRepo,
		tickets:    deps.Tickets,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
		adminName:  deps.AdminUsername,
		now:        time.Now,
	}
}

// Register creates an account with the user role. Usernames are
// case-sensitive; both username and email must be unused.
func (s *AccountService) Register(ctx context.Context, username, password, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" || email == "" {
		return nil, apperrors.NewValidationError("username, password, email required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now().UTC()
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.users.Mutate(ctx, func(users domain.Users) error {
		if _, exists := users[username]; exists || users.EmailTaken(email) || username == s.adminName {
			return apperrors.NewConflict("Username or Email already exists", nil)
		}
		users[username] = user
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err, "register", username)
	}

	s.publish(ctx, events.EventUserRegistered, username, events.UserRegisteredPayload{Username: username, Email: email})
	return &user, nil
}

// Authenticate checks credentials. Accounts still carrying a plaintext
// password are upgraded to a hash on success.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	invalid := apperrors.NewUnauthorized("Invalid username or password")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, s.mapRepoError(err, "authenticate", username)
	}

	if user.PasswordHash != "" {
		if auth.ComparePassword(user.PasswordHash, password) != nil {
			return nil, invalid
		}
		return user, nil
	}

	if user.LegacyPassword == "" || !auth.CompareLegacyPassword(user.LegacyPassword, password) {
		return nil, invalid
	}
	if upgraded, err := s.upgradeLegacyPassword(ctx, username, password); err != nil {
		s.logger.Warn("legacy password upgrade failed", zap.String("username", username), zap.Error(err))
	} else {
		user = upgraded
	}
	return user, nil
}

func (s *AccountService) upgradeLegacyPassword(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	var upgraded domain.User
	err = s.users.Mutate(ctx, func(users domain.Users) error {
		user, ok := users[username]
		if !ok {
			return repository.ErrNotFound
		}
		user.PasswordHash = hash
		user.LegacyPassword = ""
		if user.Role == "" {
			user.Role = domain.RoleUser
		}
		user.UpdatedAt = s.now().UTC()
		users[username] = user
		upgraded = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &upgraded, nil
}

// Edit overwrites name, email and password of an existing account.
func (s *AccountService) Edit(ctx context.Context, username string, input EditInput) (*domain.User, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username required", nil)
	}
	if input.Password == "" {
		return nil, apperrors.NewValidationError("new_password required", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var updated domain.User
	err = s.users.Mutate(ctx, func(users domain.Users) error {
		user, ok := users[username]
		if !ok {
			return apperrors.NewNotFound("User", map[string]any{"username": username})
		}
		user.Name = input.Name
		user.Email = input.Email
		user.PasswordHash = hash
		user.LegacyPassword = ""
		user.UpdatedAt = s.now().UTC()
		users[username] = user
		updated = user
		return nil
	})
	if err != nil {
		return nil, s.mapRepoError(err, "edit_user", username)
	}

	s.publish(ctx, events.EventUserUpdated, username, nil)
	return &updated, nil
}

// Delete removes the account and every ticket bought with its email. The
// tickets are purged before the users collection is written; if that write
// fails the tickets stay deleted.
func (s *AccountService) Delete(ctx context.Context, username string) (int, error) {
	if username == "" {
		return 0, apperrors.NewValidationError("username required", nil)
	}

	var (
		email   string
		removed int
	)
	err := s.users.Mutate(ctx, func(users domain.Users) error {
		user, ok := users[username]
		if !ok {
			return apperrors.NewNotFound("User", map[string]any{"username": username})
		}
		email = user.Email
		delete(users, username)

		n, err := s.tickets.DeleteByEmail(ctx, email)
		if err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.logger.Info("attempted to delete non-existent user", zap.String("username", username))
		}
		return 0, s.mapRepoError(err, "delete_user", username)
	}

	s.publish(ctx, events.EventUserDeleted, username, events.UserDeletedPayload{
		Username:       username,
		Email:          email,
		TicketsRemoved: removed,
	})
	return removed, nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User", map[string]any{"username": username})
		}
		return nil, s.mapRepoError(err, "get_user", username)
	}
	return user, nil
}

// List returns every account ordered by username.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return nil, s.mapRepoError(err, "list_users", "")
	}
	list := make([]domain.User, 0, len(users))
	for _, user := range users {
		list = append(list, user)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

// EnsureAdmin bootstraps the administrator account. An existing record with
// that username is promoted only when it carries no role, i.e. it predates
// roles; a regular user account is never promoted.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, password, email string) error {
	if username == "" {
		return apperrors.NewValidationError("admin username required", nil)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil && existing.IsAdmin():
		return nil
	case err == nil && existing.Role != "":
		s.logger.Warn("account with the admin username is not an admin; leaving it unchanged",
			zap.String("username", username), zap.String("role", string(existing.Role)))
		return nil
	case err == nil:
		err = s.users.Mutate(ctx, func(users domain.Users) error {
			user, ok := users[username]
			if !ok || user.Role != "" {
				return nil
			}
			user.Role = domain.RoleAdmin
			user.UpdatedAt = s.now().UTC()
			users[username] = user
			return nil
		})
		if err != nil {
			return s.mapRepoError(err, "promote_admin", username)
		}
		s.logger.Info("promoted account to admin", zap.String("username", username))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return s.mapRepoError(err, "ensure_admin", username)
	}

	if password == "" {
		s.logger.Warn("ADMIN_PASSWORD not set; admin account not created", zap.String("username", username))
		return nil
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	now := s.now().UTC()
	err = s.users.Mutate(ctx, func(users domain.Users) error {
		if _, exists := users[username]; exists {
			return nil
		}
		users[username] = domain.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return s.mapRepoError(err, "create_admin", username)
	}
	s.logger.Info("created admin account", zap.String("username", username))
	return nil
}

func (s *AccountService) mapRepoError(err error, operation, target string) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return apperrors.NewIOFailure(operation, target, err)
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
