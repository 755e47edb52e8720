package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/spec-kit/ticket-triage/internal/classifier"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
)

const (
	keySuggestedCategory = "suggested_category"
	keySuggestedPriority = "suggested_priority"

	defaultClassifyTimeout = 10 * time.Second
	outcomeRecordTimeout   = 500 * time.Millisecond
)

var (
	errNotObject      = errors.New("completion is not a JSON object")
	errShape          = errors.New("completion must hold exactly suggested_category and suggested_priority as strings")
	errOutOfVocab     = errors.New("suggested value outside the ticket vocabulary")
	errClientPanicked = errors.New("classifier client panicked")
)

// ClassificationInstruction is the fixed system message sent with every
// description.
var ClassificationInstruction = fmt.Sprintf(
	"You are an automated support ticket classifier.\n"+
		"Given a ticket description, output a JSON object with exactly two keys: %s and %s.\n"+
		"Categories must be one of: %s.\n"+
		"Priorities must be one of: %s.\n"+
		"Respond only with valid JSON, no additional text.",
	keySuggestedCategory, keySuggestedPriority,
	strings.Join(domain.CategoryValues(), ", "),
	strings.Join(domain.PriorityValues(), ", "),
)

// ClassificationService suggests a category and priority for a description.
// It never returns an error: every failure resolves to
// domain.DefaultSuggestion.
type ClassificationService struct {
	client   classifier.Client
	limiter  *rate.Limiter
	outcomes repository.OutcomeStore
	timeout  time.Duration
	logger   *zap.Logger
}

// ClassificationOption configures a ClassificationService.
type ClassificationOption func(*ClassificationService)

// WithClassifyTimeout bounds each outbound classifier call.
func WithClassifyTimeout(d time.Duration) ClassificationOption {
	return func(s *ClassificationService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRateLimit caps outbound calls with a token bucket. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) ClassificationOption {
	return func(s *ClassificationService) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithOutcomeStore records every terminal state.
func WithOutcomeStore(store repository.OutcomeStore) ClassificationOption {
	return func(s *ClassificationService) { s.outcomes = store }
}

// WithClassificationLogger sets the logger.
func WithClassificationLogger(logger *zap.Logger) ClassificationOption {
	return func(s *ClassificationService) { s.logger = logger }
}

// NewClassificationService builds the gateway. A nil client means no
// classifier credential is configured.
func NewClassificationService(client classifier.Client, opts ...ClassificationOption) *ClassificationService {
	s := &ClassificationService{
		client:  client,
		timeout: defaultClassifyTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify returns a validated suggestion for description.
func (s *ClassificationService) Classify(ctx context.Context, description string) domain.ClassificationSuggestion {
	suggestion, _ := s.Suggest(ctx, description)
	return suggestion
}

// Suggest is Classify plus the terminal state that produced the result.
func (s *ClassificationService) Suggest(ctx context.Context, description string) (domain.ClassificationSuggestion, domain.ClassificationOutcome) {
	suggestion, outcome, err := s.run(ctx, description)
	if outcome != domain.OutcomeSuccess {
		suggestion = domain.DefaultSuggestion()
	}
	s.observe(ctx, outcome, err)
	return suggestion, outcome
}

// OutcomeCounts reports how often each terminal state was reached.
func (s *ClassificationService) OutcomeCounts(ctx context.Context) (map[domain.ClassificationOutcome]int64, error) {
	if s.outcomes == nil {
		return repository.NewMemoryOutcomeStore().Counts(ctx)
	}
	return s.outcomes.Counts(ctx)
}

func (s *ClassificationService) run(ctx context.Context, description string) (domain.ClassificationSuggestion, domain.ClassificationOutcome, error) {
	if strings.TrimSpace(description) == "" {
		return domain.ClassificationSuggestion{}, domain.OutcomeNoInput, nil
	}
	if s.client == nil {
		return domain.ClassificationSuggestion{}, domain.OutcomeCredentialMissing, nil
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return domain.ClassificationSuggestion{}, domain.OutcomeThrottled, nil
	}

	text, err := s.call(ctx, description)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ClassificationSuggestion{}, domain.OutcomeTimeout, err
		}
		return domain.ClassificationSuggestion{}, domain.OutcomeCallFailed, err
	}
	return ParseSuggestion(text)
}

func (s *ClassificationService) call(ctx context.Context, description string) (text string, err error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errClientPanicked, r)
		}
	}()

	text, err = s.client.Complete(callCtx, ClassificationInstruction, description)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return text, err
}

// ParseSuggestion accepts only a JSON object holding exactly the two
// suggestion keys, both strings inside the ticket vocabularies.
func ParseSuggestion(text string) (domain.ClassificationSuggestion, domain.ClassificationOutcome, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &fields); err != nil {
		return domain.ClassificationSuggestion{}, domain.OutcomeParseFailed, err
	}
	if fields == nil {
		return domain.ClassificationSuggestion{}, domain.OutcomeParseFailed, errNotObject
	}
	if len(fields) != 2 {
		return domain.ClassificationSuggestion{}, domain.OutcomeInvalidShape, errShape
	}

	category, okCategory := stringField(fields, keySuggestedCategory)
	priority, okPriority := stringField(fields, keySuggestedPriority)
	if !okCategory || !okPriority {
		return domain.ClassificationSuggestion{}, domain.OutcomeInvalidShape, errShape
	}

	suggestion := domain.ClassificationSuggestion{
		Category: domain.TicketCategory(category),
		Priority: domain.TicketPriority(priority),
	}
	if !suggestion.Category.Valid() || !suggestion.Priority.Valid() {
		return domain.ClassificationSuggestion{}, domain.OutcomeOutOfVocabulary, errOutOfVocab
	}
	return suggestion, domain.OutcomeSuccess, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func (s *ClassificationService) observe(ctx context.Context, outcome domain.ClassificationOutcome, err error) {
	fields := []zap.Field{zap.String("outcome", string(outcome))}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Log(outcomeLevel(outcome), "ticket classification", fields...)

	if s.outcomes == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeRecordTimeout)
	defer cancel()
	if recErr := s.outcomes.Record(recordCtx, outcome); recErr != nil {
		s.logger.Warn("record classification outcome", zap.Error(recErr))
	}
}

func outcomeLevel(outcome domain.ClassificationOutcome) zapcore.Level {
	switch outcome {
	case domain.OutcomeSuccess, domain.OutcomeNoInput:
		return zapcore.DebugLevel
	case domain.OutcomeCredentialMissing, domain.OutcomeThrottled:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}
