package domain

// StatsReport summarizes the whole ticket collection. Both breakdowns carry
// an entry for every vocabulary value, zero counts included.
type StatsReport struct {
	TotalTickets      int64
	OpenTickets       int64
	AvgTicketsPerDay  float64
	PriorityBreakdown map[TicketPriority]int64
	CategoryBreakdown map[TicketCategory]int64
}
