package conversation

import (
	"context"
	"fmt"

	"tracking_ivr/src/model"

	"github.com/cloudwego/eino/schema"
)

// Service wraps a Repository with the context strategy used for extraction
type Service struct {
	repo     Repository
	strategy ContextStrategy
}

func NewService(repo Repository, strategy ContextStrategy) *Service {
	return &Service{repo: repo, strategy: strategy}
}

// NewServiceFromConfig builds the thread store matching the session backend
func NewServiceFromConfig(ctx context.Context, sessions model.SessionConfig, quotes model.QuotationConfig) (*Service, error) {
	strategy := NewExtractionContextStrategy(quotes.ThreadTurns)
	switch sessions.Backend {
	case "redis":
		repo, err := NewRedisRepository(ctx, sessions.RedisURL, sessions.TTL)
		if err != nil {
			return nil, err
		}
		return NewService(repo, strategy), nil
	default:
		return NewService(NewMemoryRepository(sessions.TTL), strategy), nil
	}
}

// Open starts a new thread
func (s *Service) Open(ctx context.Context) (string, error) {
	return s.repo.Open(ctx)
}

// ProcessMessage records the caller's transcript and returns the recent
// context that precedes it, formatted for the extraction prompt.
func (s *Service) ProcessMessage(ctx context.Context, threadID, transcript string) (string, error) {
	history, err := s.repo.Load(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("conversation: load %s: %w", threadID, err)
	}
	conversationContext := s.strategy.BuildContext(history.Messages)

	if err := s.repo.AddMessage(ctx, threadID, schema.UserMessage(transcript)); err != nil {
		return "", fmt.Errorf("conversation: add message: %w", err)
	}
	return conversationContext, nil
}

// SaveResponse saves the extraction result to the thread
func (s *Service) SaveResponse(ctx context.Context, threadID, response string) error {
	return s.repo.AddMessage(ctx, threadID, schema.AssistantMessage(response, nil))
}

// GetHistory returns the full thread
func (s *Service) GetHistory(ctx context.Context, threadID string) (*ConversationHistory, error) {
	return s.repo.Load(ctx, threadID)
}

// Close releases the thread
func (s *Service) Close(ctx context.Context, threadID string) error {
	return s.repo.Close(ctx, threadID)
}

// Sweep drops lapsed threads
func (s *Service) Sweep(ctx context.Context) int {
	return s.repo.Sweep(ctx)
}
