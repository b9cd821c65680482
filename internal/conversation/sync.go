package conversation

import (
	"context"
	"fmt"

	"github.com/0fflineDocs/Cipher/internal/logging"
)

// Persistence is the backend's conversation storage.
type Persistence interface {
	ListConversations(ctx context.Context) ([]Summary, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	CreateConversation(ctx context.Context) (*Conversation, error)
}

// Sync reconciles a Store with the persisted copy.
type Sync struct {
	store       *Store
	persistence Persistence
	logger      *logging.Logger
}

// NewSync creates a Sync. logger may be nil.
func NewSync(store *Store, persistence Persistence, logger *logging.Logger) *Sync {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Sync{store: store, persistence: persistence, logger: logger}
}

// Store returns the store this Sync writes to.
func (s *Sync) Store() *Store { return s.store }

// RefreshSummaries refetches the conversation list.
func (s *Sync) RefreshSummaries(ctx context.Context) error {
	list, err := s.persistence.ListConversations(ctx)
	if err != nil {
		s.logger.Error("failed to refresh conversation list", "error", err.Error())
		return fmt.Errorf("refresh conversations: %w", err)
	}
	s.store.SetSummaries(list)
	s.logger.Debug("conversation list refreshed", "count", len(list))
	return nil
}

// Open fetches a conversation and makes it the loaded one.
func (s *Sync) Open(ctx context.Context, id string) error {
	conv, err := s.persistence.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("open conversation %s: %w", id, err)
	}
	s.store.Replace(*conv)
	s.logger.WithConversation(id).Info("conversation opened", "messages", len(conv.Messages))
	return nil
}

// Reload refetches the conversation and replaces the loaded copy, but only if
// id is still the loaded conversation once the fetch returns. It reports
// whether the store was updated.
func (s *Sync) Reload(ctx context.Context, id string) (bool, error) {
	log := s.logger.WithConversation(id)
	if !s.store.IsLoaded(id) {
		log.Debug("skipping reload of conversation that is no longer loaded")
		return false, nil
	}
	conv, err := s.persistence.GetConversation(ctx, id)
	if err != nil {
		log.Error("failed to reload conversation", "error", err.Error())
		return false, fmt.Errorf("reload conversation %s: %w", id, err)
	}
	if !s.store.IsLoaded(id) {
		log.Debug("discarding reload of conversation that is no longer loaded")
		return false, nil
	}
	s.store.Replace(*conv)
	log.Info("conversation reconciled with persisted copy", "messages", len(conv.Messages))
	return true, nil
}

// Create asks the backend for a new conversation, prepends its summary with a
// message count of zero, and loads it.
func (s *Sync) Create(ctx context.Context) (Summary, error) {
	conv, err := s.persistence.CreateConversation(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("create conversation: %w", err)
	}
	sum := s.store.Create(*conv)
	s.logger.WithConversation(conv.ID).Info("conversation created")
	return sum, nil
}
