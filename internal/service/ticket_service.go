package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/ticketbooth/eventpass/internal/document"
	"github.com/ticketbooth/eventpass/internal/domain"
	"github.com/ticketbooth/eventpass/internal/events"
	"github.com/ticketbooth/eventpass/internal/repository"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

// TicketService coordinates ticket purchases.
type TicketService struct {
	tickets    repository.TicketRepository
	generator  document.Generator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	archiveDir string
	now        func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Generator  document.Generator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// ArchiveDir, when set, receives a copy of every generated document.
	ArchiveDir string
}

// PurchaseInput describes the attendee submitted with a purchase.
type PurchaseInput struct {
	FirstName string
	LastName  string
	Email     string
	Type      string
}

// Purchase is the outcome of a successful purchase.
type Purchase struct {
	Ticket      domain.Ticket
	Document    []byte
	FileName    string
	ContentType string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		generator:  deps.Generator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		archiveDir: deps.ArchiveDir,
		now:        time.Now,
	}
}

// Purchase generates the ticket document and only then records the
// purchase, so a failed generation leaves no record behind.
func (s *TicketService) Purchase(ctx context.Context, input PurchaseInput) (*Purchase, error) {
	input = PurchaseInput{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Type:      strings.TrimSpace(input.Type),
	}
	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Type == "" {
		return nil, apperrors.NewValidationError("fname, lname, email, type required", nil)
	}

	doc, err := s.generator.Generate([]document.Field{
		{Label: "First Name", Value: input.FirstName},
		{Label: "Family Name", Value: input.LastName},
		{Label: "Email", Value: input.Email},
		{Label: "Ticket Type", Value: input.Type},
	})
	if err != nil {
		return nil, apperrors.NewGenerationFailure(input.Email, err)
	}

	fileName := ticketFileName(input.FirstName, input.LastName, s.generator.Extension())
	if s.archiveDir != "" {
		if err := s.archive(fileName, doc); err != nil {
			return nil, apperrors.NewIOFailure("archive_ticket", fileName, err)
		}
	}

	ticket := domain.Ticket{
		ID:        uuid.NewString(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Type:      input.Type,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tickets.Append(ctx, &ticket); err != nil {
		s.discardArchive(fileName)
		return nil, apperrors.NewIOFailure("purchase", input.Email, err)
	}

	s.publish(ctx, events.EventTicketPurchased, input.Email, events.TicketPurchasedPayload{
		TicketID: ticket.ID,
		Email:    ticket.Email,
		Type:     ticket.Type,
	})

	return &Purchase{
		Ticket:      ticket,
		Document:    doc,
		FileName:    fileName,
		ContentType: s.generator.ContentType(),
	}, nil
}

func (s *TicketService) archive(fileName string, doc []byte) error {
	if err := os.MkdirAll(s.archiveDir, 0o750); err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(s.archiveDir, fileName), bytes.NewReader(doc))
}

// discardArchive removes an archived document whose purchase was not recorded.
func (s *TicketService) discardArchive(fileName string) {
	if s.archiveDir == "" {
		return
	}
	path := filepath.Join(s.archiveDir, fileName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove orphaned ticket document", zap.String("file", fileName), zap.Error(err))
	}
}

// ListAll returns every purchase record in purchase order.
func (s *TicketService) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.Load(ctx)
	if err != nil {
		return nil, apperrors.NewIOFailure("list_tickets", "", err)
	}
	return tickets, nil
}

// ListByEmail returns the purchase records bought with email.
func (s *TicketService) ListByEmail(ctx context.Context, email string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewIOFailure("list_tickets", email, err)
	}
	return tickets, nil
}

// DeleteByEmail removes every purchase record bought with email.
func (s *TicketService) DeleteByEmail(ctx context.Context, email string) (int, error) {
	removed, err := s.tickets.DeleteByEmail(ctx, email)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return 0, domainErr
		}
		return 0, apperrors.NewIOFailure("delete_tickets", email, err)
	}
	return removed, nil
}

// ticketFileName mirrors "<fname>_<lname>_ticket" with anything outside
// letters, digits, '-' and '_' replaced so names cannot escape a directory.
func ticketFileName(firstName, lastName, ext string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
				return r
			}
			return '_'
		}, s)
	}
	return fmt.Sprintf("%s_%s_ticket%s", clean(firstName), clean(lastName), ext)
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
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
