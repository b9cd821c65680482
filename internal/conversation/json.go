package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewMessageID returns a fresh local message identifier.
func NewMessageID() string {
	return uuid.NewString()
}

// UnmarshalJSON accepts both the "name" and the legacy "persona" key for the
// member name.
func (r *Stage1Result) UnmarshalJSON(data []byte) error {
	type plain Stage1Result
	var wire struct {
		plain
		Persona string `json:"persona"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Stage1Result(wire.plain)
	if r.Name == "" {
		r.Name = wire.Persona
	}
	return nil
}

// UnmarshalJSON accepts both the "name" and the legacy "persona" key for the
// member name.
func (r *Stage2Result) UnmarshalJSON(data []byte) error {
	type plain Stage2Result
	var wire struct {
		plain
		Persona string `json:"persona"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Stage2Result(wire.plain)
	if r.Name == "" {
		r.Name = wire.Persona
	}
	return nil
}

// UnmarshalJSON accepts either a bare string (the synthesis text) or an
// object carrying the chairman's identity alongside the response.
func (r *Stage3Result) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*r = Stage3Result{Response: text}
		return nil
	}
	type plain Stage3Result
	var wire struct {
		plain
		Persona string `json:"persona"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Stage3Result(wire.plain)
	if r.Name == "" {
		r.Name = wire.Persona
	}
	return nil
}

// wireMessage is the persisted shape of any message. Which fields are set
// decides the variant.
type wireMessage struct {
	Role     Role             `json:"role"`
	Content  string           `json:"content,omitempty"`
	Stage1   []Stage1Result   `json:"stage1,omitempty"`
	Stage2   []Stage2Result   `json:"stage2,omitempty"`
	Stage3   *Stage3Result    `json:"stage3,omitempty"`
	Metadata *RankingMetadata `json:"metadata,omitempty"`
	Openings []Statement      `json:"openings,omitempty"`
	Rounds   [][]Statement    `json:"rounds,omitempty"`
	Verdict  *Verdict         `json:"verdict,omitempty"`
}

// DecodeMessage decodes one persisted message and assigns it a fresh local ID.
// Assistant messages carrying openings, rounds or a verdict decode as a
// DebateMessage; every other assistant message is a ChatMessage.
func DecodeMessage(data []byte) (Message, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	id := NewMessageID()
	switch w.Role {
	case RoleUser:
		return UserMessage{ID: id, Content: w.Content}, nil
	case RoleAssistant, "":
	default:
		return nil, fmt.Errorf("decode message: unknown role %q", w.Role)
	}

	_, hasOpenings := keys["openings"]
	_, hasRounds := keys["rounds"]
	_, hasVerdict := keys["verdict"]
	if hasOpenings || hasRounds || hasVerdict {
		return DebateMessage{
			ID:       id,
			Openings: w.Openings,
			Rounds:   w.Rounds,
			Verdict:  w.Verdict,
		}, nil
	}
	return ChatMessage{
		ID:       id,
		Stage1:   w.Stage1,
		Stage2:   w.Stage2,
		Stage3:   w.Stage3,
		Metadata: w.Metadata,
	}, nil
}

// EncodeMessage renders a message in its persisted shape. Local IDs and
// loading flags are not part of it.
func EncodeMessage(m Message) ([]byte, error) {
	var w wireMessage
	switch msg := m.(type) {
	case UserMessage:
		w = wireMessage{Role: RoleUser, Content: msg.Content}
	case ChatMessage:
		w = wireMessage{
			Role:     RoleAssistant,
			Stage1:   msg.Stage1,
			Stage2:   msg.Stage2,
			Stage3:   msg.Stage3,
			Metadata: msg.Metadata,
		}
	case DebateMessage:
		w = wireMessage{
			Role:     RoleAssistant,
			Openings: msg.Openings,
			Rounds:   msg.Rounds,
			Verdict:  msg.Verdict,
		}
	default:
		return nil, fmt.Errorf("encode message: unsupported type %T", m)
	}
	return json.Marshal(w)
}

type wireConversation struct {
	ID        string            `json:"id"`
	CreatedAt string            `json:"created_at"`
	Title     *string           `json:"title"`
	Messages  []json.RawMessage `json:"messages"`
}

// UnmarshalJSON decodes a persisted conversation, assigning local IDs to
// every message.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var w wireConversation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	msgs := make([]Message, 0, len(w.Messages))
	for i, raw := range w.Messages {
		m, err := DecodeMessage(raw)
		if err != nil {
			return fmt.Errorf("conversation %s message %d: %w", w.ID, i, err)
		}
		msgs = append(msgs, m)
	}
	*c = Conversation{
		ID:        w.ID,
		CreatedAt: w.CreatedAt,
		Title:     w.Title,
		Messages:  msgs,
	}
	return nil
}

// MarshalJSON encodes the conversation in its persisted shape.
func (c Conversation) MarshalJSON() ([]byte, error) {
	w := wireConversation{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		Title:     c.Title,
		Messages:  make([]json.RawMessage, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		raw, err := EncodeMessage(m)
		if err != nil {
			return nil, err
		}
		w.Messages = append(w.Messages, raw)
	}
	return json.Marshal(w)
}
