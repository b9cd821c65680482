package conversation

import (
	"slices"
	"sync"

	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/event"
)

// Store owns the summary list and the single loaded conversation.
// It is safe for concurrent use. Events are published after the lock is
// released, so handlers may read the store.
type Store struct {
	mu        sync.RWMutex
	summaries []Summary
	loaded    *Conversation
	bus       *event.Bus
}

// NewStore creates an empty store. bus may be nil.
func NewStore(bus *event.Bus) *Store {
	return &Store{bus: bus}
}

// Summaries returns a copy of the conversation list, newest first.
func (s *Store) Summaries() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.summaries)
}

// SetSummaries replaces the conversation list.
func (s *Store) SetSummaries(list []Summary) {
	s.mu.Lock()
	s.summaries = slices.Clone(list)
	n := len(s.summaries)
	s.mu.Unlock()

	s.bus.Publish(event.NewSummariesChangedEvent(n))
}

// PrependSummary inserts a summary at the head of the list. An existing entry
// with the same ID is replaced.
func (s *Store) PrependSummary(sum Summary) {
	s.mu.Lock()
	s.summaries = slices.DeleteFunc(s.summaries, func(x Summary) bool { return x.ID == sum.ID })
	s.summaries = slices.Insert(s.summaries, 0, sum)
	n := len(s.summaries)
	s.mu.Unlock()

	s.bus.Publish(event.NewSummariesChangedEvent(n))
}

// Loaded returns a copy of the loaded conversation.
func (s *Store) Loaded() (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loaded == nil {
		return Conversation{}, false
	}
	return s.loaded.Clone(), true
}

// LoadedID returns the ID of the loaded conversation, or "" if none.
func (s *Store) LoadedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loaded == nil {
		return ""
	}
	return s.loaded.ID
}

// IsLoaded reports whether conversationID is the loaded conversation.
func (s *Store) IsLoaded(conversationID string) bool {
	return conversationID != "" && s.LoadedID() == conversationID
}

// Replace makes conv the loaded conversation. Messages without a local ID are
// assigned one.
func (s *Store) Replace(conv Conversation) {
	c := conv.Clone()
	for i, m := range c.Messages {
		if m.MessageID() == "" {
			c.Messages[i] = m.withID(NewMessageID())
		}
	}

	s.mu.Lock()
	s.loaded = &c
	s.mu.Unlock()

	s.bus.Publish(event.NewConversationLoadedEvent(c.ID, len(c.Messages)))
}

// Create registers a newly created conversation: its summary is prepended
// with a message count of zero and the conversation becomes the loaded one.
func (s *Store) Create(conv Conversation) Summary {
	sum := conv.Summary()
	sum.MessageCount = 0
	s.PrependSummary(sum)
	s.Replace(conv)
	return sum
}

// Append adds messages to the end of the loaded conversation and returns
// their IDs in order. Messages without an ID are assigned one.
func (s *Store) Append(conversationID string, msgs ...Message) ([]string, error) {
	ids := make([]string, len(msgs))
	s.mu.Lock()
	if s.loaded == nil || s.loaded.ID != conversationID {
		s.mu.Unlock()
		return nil, errors.ErrConversationNotLoaded
	}
	for i, m := range msgs {
		if m.MessageID() == "" {
			m = m.withID(NewMessageID())
		}
		ids[i] = m.MessageID()
		s.loaded.Messages = append(s.loaded.Messages, m)
	}
	s.mu.Unlock()

	s.bus.Publish(event.NewMessagesAppendedEvent(conversationID, ids))
	return ids, nil
}

// Remove deletes the messages with the given IDs from the loaded conversation
// and returns how many were removed. Other messages are untouched.
func (s *Store) Remove(conversationID string, ids ...string) int {
	s.mu.Lock()
	if s.loaded == nil || s.loaded.ID != conversationID {
		s.mu.Unlock()
		return 0
	}
	before := len(s.loaded.Messages)
	s.loaded.Messages = slices.DeleteFunc(s.loaded.Messages, func(m Message) bool {
		return slices.Contains(ids, m.MessageID())
	})
	removed := before - len(s.loaded.Messages)
	s.mu.Unlock()

	if removed > 0 {
		s.bus.Publish(event.NewMessagesRemovedEvent(conversationID, ids))
	}
	return removed
}

// Message returns the message with the given ID from the loaded conversation.
func (s *Store) Message(conversationID, id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loaded == nil || s.loaded.ID != conversationID {
		return nil, false
	}
	for _, m := range s.loaded.Messages {
		if m.MessageID() == id {
			return m, true
		}
	}
	return nil, false
}

// UpdateMessage replaces the message with the given ID by fn's result. It
// reports false, and does not call fn, when conversationID is not loaded or no
// such message exists. A nil result leaves the message unchanged. The message
// keeps its ID regardless of what fn returns.
func (s *Store) UpdateMessage(conversationID, id string, fn func(Message) Message) bool {
	s.mu.Lock()
	if s.loaded == nil || s.loaded.ID != conversationID {
		s.mu.Unlock()
		return false
	}
	idx := slices.IndexFunc(s.loaded.Messages, func(m Message) bool { return m.MessageID() == id })
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	next := fn(s.loaded.Messages[idx])
	if next == nil {
		s.mu.Unlock()
		return false
	}
	s.loaded.Messages[idx] = next.withID(id)
	s.mu.Unlock()

	s.bus.Publish(event.NewMessageUpdatedEvent(conversationID, id))
	return true
}

// UpdateLast applies fn to the final message of the loaded conversation.
func (s *Store) UpdateLast(conversationID string, fn func(Message) Message) bool {
	s.mu.RLock()
	if s.loaded == nil || s.loaded.ID != conversationID || len(s.loaded.Messages) == 0 {
		s.mu.RUnlock()
		return false
	}
	id := s.loaded.Messages[len(s.loaded.Messages)-1].MessageID()
	s.mu.RUnlock()
	return s.UpdateMessage(conversationID, id, fn)
}

// UpdateChat applies fn to the chat message with the given ID. It reports
// false if the message is not a ChatMessage.
func (s *Store) UpdateChat(conversationID, id string, fn func(*ChatMessage)) bool {
	applied := false
	ok := s.UpdateMessage(conversationID, id, func(m Message) Message {
		chat, isChat := m.(ChatMessage)
		if !isChat {
			return nil
		}
		fn(&chat)
		applied = true
		return chat
	})
	return ok && applied
}
