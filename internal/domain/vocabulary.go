package domain

// The closed vocabularies below are the only definition of valid category,
// priority and status values. The database schema, the stats breakdowns and
// the classifier validation all read from these slices, in this order.

var categories = []TicketCategory{
	TicketCategoryBilling,
	TicketCategoryTechnical,
	TicketCategoryAccount,
	TicketCategoryGeneral,
}

var priorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

var statuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Categories returns every valid category in display order.
func Categories() []TicketCategory {
	return append([]TicketCategory(nil), categories...)
}

// Priorities returns every valid priority from lowest to highest.
func Priorities() []TicketPriority {
	return append([]TicketPriority(nil), priorities...)
}

// Statuses returns every valid status.
func Statuses() []TicketStatus {
	return append([]TicketStatus(nil), statuses...)
}

// Valid reports membership in the category vocabulary.
func (c TicketCategory) Valid() bool {
	for _, candidate := range categories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Valid reports membership in the priority vocabulary.
func (p TicketPriority) Valid() bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Valid reports membership in the status vocabulary.
func (s TicketStatus) Valid() bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CategoryValues returns the vocabulary as plain strings.
func CategoryValues() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// PriorityValues returns the vocabulary as plain strings.
func PriorityValues() []string {
	out := make([]string, len(priorities))
	for i, p := range priorities {
		out[i] = string(p)
	}
	return out
}

// StatusValues returns the vocabulary as plain strings.
func StatusValues() []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
