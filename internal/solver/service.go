// Package solver interprets challenge problems: it embeds the reference
// data in an instructional prompt, invokes a completion backend, and
// extracts a validated numeric answer from the model's reply.
package solver

import (
	"context"
	"fmt"
	"math"

	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"

	"go.uber.org/zap"
)

// Service interprets challenges through an injected Completer. It is
// stateless; every call is a fresh interpretation with no retries of its
// own (the completion backend handles those).
type Service struct {
	completer         domain.Completer
	filterMentions    bool
	resolveHomeworlds bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMentionFilter shrinks the prompt to the records mentioned in the
// problem text, falling back to the full datasets when nothing matches.
func WithMentionFilter(enabled bool) ServiceOption {
	return func(s *Service) { s.filterMentions = enabled }
}

// WithHomeworldResolution replaces character homeworld URLs with planet
// names for prompt readability.
func WithHomeworldResolution(enabled bool) ServiceOption {
	return func(s *Service) { s.resolveHomeworlds = enabled }
}

// NewService creates a solver around the given completion backend.
func NewService(completer domain.Completer, opts ...ServiceOption) *Service {
	s := &Service{
		completer:         completer,
		resolveHomeworlds: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// llmReply is the mandated reply shape.
type llmReply struct {
	Reasoning string   `json:"reasoning"`
	Solution  *float64 `json:"solution"`
}

// Interpret produces an Answer for the challenge from the reference
// data. The returned Solution is nil when the model declared the data
// insufficient, and rounded to 10 decimal places otherwise. Every
// failure surfaces as a description-bearing error.
func (s *Service) Interpret(ctx context.Context, ch *domain.Challenge, data *domain.ReferenceData) (*domain.Answer, error) {
	l := logger.Get()

	if ch == nil || ch.Problem == "" {
		return nil, domain.NewInvalidInputError("El contexto del problema es requerido")
	}
	if err := validateReferenceData(data); err != nil {
		return nil, err
	}

	prepared := s.prepareContext(ch.Problem, data)
	messages, err := buildMessages(ch.Problem, prepared)
	if err != nil {
		return nil, domain.NewInternalError("failed to build prompt", err)
	}

	l.Info("Interpreting challenge",
		zap.String("id", ch.ID),
		zap.Int("planets", len(prepared.Planets)),
		zap.Int("characters", len(prepared.Characters)),
		zap.Int("creatures", len(prepared.Creatures)))

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	l.Debug("Raw completion reply", zap.String("reply", reply))

	jsonStr, err := ExtractJSONObject(reply)
	if err != nil {
		return nil, domain.NewLLMServiceError(fmt.Errorf("%w: %s", err, truncate(reply, 200)))
	}

	var parsed llmReply
	if err := ParseLenientJSON(jsonStr, &parsed); err != nil {
		return nil, domain.NewLLMServiceError(fmt.Errorf("failed to parse completion JSON %q: %w", truncate(jsonStr, 200), err))
	}

	answer := &domain.Answer{
		ProblemID: ch.ID,
		Reasoning: parsed.Reasoning,
	}
	if parsed.Solution != nil {
		v := *parsed.Solution
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, domain.NewInvalidAnswerError("La solución debe ser un número válido o null si faltan datos")
		}
		rounded := Round10(v)
		answer.Solution = &rounded
	}

	l.Info("Interpreted challenge",
		zap.String("id", ch.ID),
		zap.Any("solution", answer.Solution))
	return answer, nil
}

func validateReferenceData(data *domain.ReferenceData) error {
	if data == nil {
		return domain.NewInvalidInputError("El contexto del problema es requerido")
	}
	if len(data.Planets) == 0 {
		return domain.NewInvalidInputError("Se requieren datos de planetas de Star Wars")
	}
	if len(data.Characters) == 0 {
		return domain.NewInvalidInputError("Se requieren datos de personajes de Star Wars")
	}
	if len(data.Creatures) == 0 {
		return domain.NewInvalidInputError("Se requieren datos de Pokémon")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
