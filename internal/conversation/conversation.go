// Package conversation holds the client-side model of Cipher conversations:
// the summary list, the single loaded conversation and its tagged message
// log, and the Store that owns them.
//
// All mutations go through the [Store], which publishes an event on the
// configured bus after each change. A [Sync] keeps the store reconciled with
// the backend's persisted copy.
package conversation

// UntitledLabel is shown for conversations whose title is not yet known.
const UntitledLabel = "New Conversation"

// Summary is one entry of the conversation list.
type Summary struct {
	ID           string  `json:"id"`
	CreatedAt    string  `json:"created_at"`
	Title        *string `json:"title"`
	MessageCount int     `json:"message_count"`
}

// DisplayTitle returns the title, or UntitledLabel when absent.
func (s Summary) DisplayTitle() string {
	if s.Title == nil || *s.Title == "" {
		return UntitledLabel
	}
	return *s.Title
}

// Conversation is a full conversation with its ordered message log.
type Conversation struct {
	ID        string
	CreatedAt string
	Title     *string
	Messages  []Message
}

// Summary derives the list entry for this conversation.
func (c Conversation) Summary() Summary {
	return Summary{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		Title:        c.Title,
		MessageCount: len(c.Messages),
	}
}

// Clone returns a copy whose message slice can be modified independently.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	if c.Title != nil {
		t := *c.Title
		out.Title = &t
	}
	return out
}

// Last returns the final message, if any.
func (c Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return nil, false
	}
	return c.Messages[len(c.Messages)-1], true
}
