package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
)

// StatsService computes the aggregate report over all tickets.
type StatsService struct {
	tickets repository.TicketRepository
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository) *StatsService {
	return &StatsService{tickets: tickets}
}

// ComputeStats reads the store fresh on every call. An empty collection is a
// valid input; only store failures are returned.
//
// The scalar aggregates come from one read. The breakdowns are separate
// reads, so a write landing between them can leave the breakdown sums one
// step apart from the totals.
func (s *StatsService) ComputeStats(ctx context.Context) (*domain.StatsReport, error) {
	agg, err := s.tickets.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate tickets: %w", err)
	}
	byPriority, err := s.tickets.CountByPriority(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by priority: %w", err)
	}
	byCategory, err := s.tickets.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}

	report := &domain.StatsReport{
		TotalTickets:      agg.Total,
		OpenTickets:       agg.Open,
		AvgTicketsPerDay:  AveragePerDay(agg.Total, agg.FirstCreatedAt, agg.LastCreatedAt),
		PriorityBreakdown: make(map[domain.TicketPriority]int64, len(domain.Priorities())),
		CategoryBreakdown: make(map[domain.TicketCategory]int64, len(domain.Categories())),
	}
	for _, p := range domain.Priorities() {
		report.PriorityBreakdown[p] = byPriority[p]
	}
	for _, c := range domain.Categories() {
		report.CategoryBreakdown[c] = byCategory[c]
	}
	return report, nil
}

// AveragePerDay spreads total over the whole days between first and last.
// A collection with no span counts as a single day, and a span shorter than
// one day is clamped to one day.
func AveragePerDay(total int64, first, last *time.Time) float64 {
	if first == nil || last == nil || first.Equal(*last) {
		return float64(total)
	}
	days := int64(last.Sub(*first) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return float64(total) / float64(days)
}
