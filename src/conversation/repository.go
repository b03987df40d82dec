package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"
)

const DefaultThreadTTL = 30 * time.Minute

var ErrThreadClosed = errors.New("conversation: thread not found or closed")

// ConversationHistory holds the messages of one AI thread
type ConversationHistory struct {
	Messages []*schema.Message `json:"messages"`
}

// Repository stores AI conversation threads. A thread lives from Open until
// Close or until its TTL lapses.
type Repository interface {
	Open(ctx context.Context) (string, error)
	Load(ctx context.Context, threadID string) (*ConversationHistory, error)
	AddMessage(ctx context.Context, threadID string, message *schema.Message) error
	Close(ctx context.Context, threadID string) error
	// Sweep drops threads whose TTL lapsed and reports how many went
	Sweep(ctx context.Context) int
}
