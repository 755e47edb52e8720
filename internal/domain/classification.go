package domain

// ClassificationSuggestion is a category/priority pair proposed for a
// description. It is never persisted.
type ClassificationSuggestion struct {
	Category TicketCategory
	Priority TicketPriority
}

// DefaultSuggestion is returned whenever the classifier cannot be trusted.
func DefaultSuggestion() ClassificationSuggestion {
	return ClassificationSuggestion{
		Category: TicketCategoryGeneral,
		Priority: TicketPriorityLow,
	}
}

// ClassificationOutcome names the terminal state a classification reached.
type ClassificationOutcome string

const (
	OutcomeSuccess           ClassificationOutcome = "success"
	OutcomeNoInput           ClassificationOutcome = "no_input"
	OutcomeCredentialMissing ClassificationOutcome = "credential_missing"
	OutcomeThrottled         ClassificationOutcome = "throttled"
	OutcomeCallFailed        ClassificationOutcome = "call_failed"
	OutcomeTimeout           ClassificationOutcome = "timeout"
	OutcomeParseFailed       ClassificationOutcome = "parse_failed"
	OutcomeInvalidShape      ClassificationOutcome = "invalid_shape"
	OutcomeOutOfVocabulary   ClassificationOutcome = "out_of_vocabulary"
)

// ClassificationOutcomes lists every outcome in state machine order.
func ClassificationOutcomes() []ClassificationOutcome {
	return []ClassificationOutcome{
		OutcomeSuccess,
		OutcomeNoInput,
		OutcomeCredentialMissing,
		OutcomeThrottled,
		OutcomeCallFailed,
		OutcomeTimeout,
		OutcomeParseFailed,
		OutcomeInvalidShape,
		OutcomeOutOfVocabulary,
	}
}
