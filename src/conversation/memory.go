package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

type memoryThread struct {
	messages  []*schema.Message
	expiresAt time.Time
}

// MemoryRepository keeps threads in process
type MemoryRepository struct {
	mu      sync.Mutex
	threads map[string]*memoryThread
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	if ttl <= 0 {
		ttl = DefaultThreadTTL
	}
	return &MemoryRepository{
		threads: make(map[string]*memoryThread),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemoryRepository) Open(ctx context.Context) (string, error) {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[id] = &memoryThread{expiresAt: r.now().Add(r.ttl)}
	return id, nil
}

func (r *MemoryRepository) Load(ctx context.Context, threadID string) (*ConversationHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.liveLocked(threadID)
	if err != nil {
		return nil, err
	}
	t.expiresAt = r.now().Add(r.ttl)
	msgs := make([]*schema.Message, len(t.messages))
	copy(msgs, t.messages)
	return &ConversationHistory{Messages: msgs}, nil
}

func (r *MemoryRepository) AddMessage(ctx context.Context, threadID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.liveLocked(threadID)
	if err != nil {
		return err
	}
	t.messages = append(t.messages, message)
	t.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *MemoryRepository) Close(ctx context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, threadID)
	return nil
}

// Sweep removes every lapsed thread. Callers that hang up mid-quotation never
// touch their thread again, so this is the only path that frees it.
func (r *MemoryRepository) Sweep(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, t := range r.threads {
		if now.After(t.expiresAt) {
			delete(r.threads, id)
			removed++
		}
	}
	return removed
}

// Len is the number of open threads
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

func (r *MemoryRepository) liveLocked(threadID string) (*memoryThread, error) {
	t, ok := r.threads[threadID]
	if !ok {
		return nil, ErrThreadClosed
	}
	if r.now().After(t.expiresAt) {
		delete(r.threads, threadID)
		return nil, ErrThreadClosed
	}
	return t, nil
}
