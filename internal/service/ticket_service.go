package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload. Status may be empty.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Status      string
}

// TicketListFilter describes listing filters. Empty strings do not filter.
type TicketListFilter struct {
	Category string
	Priority string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

// TicketPatchInput holds the raw values of a partial update. Keys outside
// these three are discarded before the service sees them.
type TicketPatchInput struct {
	Status   *string
	Category *string
	Priority *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket validates and stores a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	if title == "" {
		details["title"] = "required"
	} else if utf8.RuneCountInString(title) > domain.TitleMaxLength {
		details["title"] = "too long"
	}
	if description == "" {
		details["description"] = "required"
	}

	category := domain.TicketCategory(input.Category)
	if !category.Valid() {
		details["category"] = choiceError(input.Category, domain.CategoryValues())
	}
	priority := domain.TicketPriority(input.Priority)
	if !priority.Valid() {
		details["priority"] = choiceError(input.Priority, domain.PriorityValues())
	}
	status := domain.TicketStatusOpen
	if input.Status != "" {
		status = domain.TicketStatus(input.Status)
		if !status.Valid() {
			details["status"] = choiceError(input.Status, domain.StatusValues())
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      status,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
			Status:   ticket.Status,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	details := map[string]any{}
	if filter.Category != "" {
		c := domain.TicketCategory(filter.Category)
		if !c.Valid() {
			details["category"] = choiceError(filter.Category, domain.CategoryValues())
		}
		repoFilter.Category = &c
	}
	if filter.Priority != "" {
		p := domain.TicketPriority(filter.Priority)
		if !p.Valid() {
			details["priority"] = choiceError(filter.Priority, domain.PriorityValues())
		}
		repoFilter.Priority = &p
	}
	if filter.Status != "" {
		st := domain.TicketStatus(filter.Status)
		if !st.Valid() {
			details["status"] = choiceError(filter.Status, domain.StatusValues())
		}
		repoFilter.Status = &st
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid filter", details)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		repoFilter.SearchTerm = &search
	}
	return s.tickets.List(ctx, repoFilter)
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return s.tickets.GetByID(ctx, id)
}

// PatchTicket applies a partial update of status, category and priority.
// Either every supplied field is applied or none is.
func (s *TicketService) PatchTicket(ctx context.Context, id string, input TicketPatchInput) (*domain.Ticket, error) {
	patch, err := buildPatch(input)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	before, after, err := s.tickets.ApplyPatch(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if changes := diff(before, after); len(changes) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: after.ID,
			Payload:  events.TicketUpdatedPayload{Changes: changes},
		})
	}
	return after, nil
}

func buildPatch(input TicketPatchInput) (domain.TicketPatch, error) {
	var patch domain.TicketPatch
	details := map[string]any{}
	if input.Status != nil {
		st := domain.TicketStatus(*input.Status)
		if !st.Valid() {
			details["status"] = choiceError(*input.Status, domain.StatusValues())
		}
		patch.Status = &st
	}
	if input.Category != nil {
		c := domain.TicketCategory(*input.Category)
		if !c.Valid() {
			details["category"] = choiceError(*input.Category, domain.CategoryValues())
		}
		patch.Category = &c
	}
	if input.Priority != nil {
		p := domain.TicketPriority(*input.Priority)
		if !p.Valid() {
			details["priority"] = choiceError(*input.Priority, domain.PriorityValues())
		}
		patch.Priority = &p
	}
	if patch.IsEmpty() {
		return domain.TicketPatch{}, apperrors.NewValidationError("nothing to update", map[string]any{
			"allowed_fields": []string{"status", "category", "priority"},
		})
	}
	if len(details) > 0 {
		return domain.TicketPatch{}, apperrors.NewValidationError("invalid patch", details)
	}
	return patch, nil
}

func diff(before, after *domain.Ticket) map[string]events.FieldChange {
	changes := map[string]events.FieldChange{}
	if before.Status != after.Status {
		changes["status"] = events.FieldChange{Old: string(before.Status), New: string(after.Status)}
	}
	if before.Category != after.Category {
		changes["category"] = events.FieldChange{Old: string(before.Category), New: string(after.Category)}
	}
	if before.Priority != after.Priority {
		changes["priority"] = events.FieldChange{Old: string(before.Priority), New: string(after.Priority)}
	}
	return changes
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func choiceError(value string, allowed []string) string {
	return "\"" + value + "\" is not one of: " + strings.Join(allowed, ", ")
}
