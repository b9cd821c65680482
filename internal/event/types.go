package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "message.updated").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeConversationLoaded = "conversation.loaded"
	TypeMessagesAppended   = "messages.appended"
	TypeMessagesRemoved    = "messages.removed"
	TypeMessageUpdated     = "message.updated"
	TypeSummariesChanged   = "summaries.changed"
	TypePipelineStarted    = "pipeline.started"
	TypePipelineFinished   = "pipeline.finished"
	TypeDebateProgress     = "debate.progress"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Store Events
// -----------------------------------------------------------------------------

// ConversationLoadedEvent is emitted when the loaded conversation is replaced
// wholesale (opened, created, or reconciled with the persisted copy).
type ConversationLoadedEvent struct {
	baseEvent
	ConversationID string
	MessageCount   int
}

// NewConversationLoadedEvent creates a ConversationLoadedEvent.
func NewConversationLoadedEvent(conversationID string, messageCount int) ConversationLoadedEvent {
	return ConversationLoadedEvent{
		baseEvent:      newBaseEvent(TypeConversationLoaded),
		ConversationID: conversationID,
		MessageCount:   messageCount,
	}
}

// MessagesAppendedEvent is emitted when messages are appended to the loaded conversation.
type MessagesAppendedEvent struct {
	baseEvent
	ConversationID string
	MessageIDs     []string
}

// NewMessagesAppendedEvent creates a MessagesAppendedEvent.
func NewMessagesAppendedEvent(conversationID string, ids []string) MessagesAppendedEvent {
	return MessagesAppendedEvent{
		baseEvent:      newBaseEvent(TypeMessagesAppended),
		ConversationID: conversationID,
		MessageIDs:     ids,
	}
}

// MessagesRemovedEvent is emitted when optimistic messages are rolled back.
type MessagesRemovedEvent struct {
	baseEvent
	ConversationID string
	MessageIDs     []string
}

// NewMessagesRemovedEvent creates a MessagesRemovedEvent.
func NewMessagesRemovedEvent(conversationID string, ids []string) MessagesRemovedEvent {
	return MessagesRemovedEvent{
		baseEvent:      newBaseEvent(TypeMessagesRemoved),
		ConversationID: conversationID,
		MessageIDs:     ids,
	}
}

// MessageUpdatedEvent is emitted after an in-flight message was replaced by
// its updated value.
type MessageUpdatedEvent struct {
	baseEvent
	ConversationID string
	MessageID      string
}

// NewMessageUpdatedEvent creates a MessageUpdatedEvent.
func NewMessageUpdatedEvent(conversationID, messageID string) MessageUpdatedEvent {
	return MessageUpdatedEvent{
		baseEvent:      newBaseEvent(TypeMessageUpdated),
		ConversationID: conversationID,
		MessageID:      messageID,
	}
}

// SummariesChangedEvent is emitted when the conversation summary list changes.
type SummariesChangedEvent struct {
	baseEvent
	Count int
}

// NewSummariesChangedEvent creates a SummariesChangedEvent.
func NewSummariesChangedEvent(count int) SummariesChangedEvent {
	return SummariesChangedEvent{
		baseEvent: newBaseEvent(TypeSummariesChanged),
		Count:     count,
	}
}

// -----------------------------------------------------------------------------
// Pipeline Events
// -----------------------------------------------------------------------------

// PipelineStartedEvent is emitted when a controller begins a send.
type PipelineStartedEvent struct {
	baseEvent
	Pipeline       string // "chat" or "debate"
	ConversationID string
}

// NewPipelineStartedEvent creates a PipelineStartedEvent.
func NewPipelineStartedEvent(pipeline, conversationID string) PipelineStartedEvent {
	return PipelineStartedEvent{
		baseEvent:      newBaseEvent(TypePipelineStarted),
		Pipeline:       pipeline,
		ConversationID: conversationID,
	}
}

// Outcome describes how a send ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeFailed     Outcome = "failed"      // in-band error, partial results kept
	OutcomeRolledBack Outcome = "rolled_back" // transport failure, optimistic entries removed
)

// PipelineFinishedEvent is emitted when a send terminates.
type PipelineFinishedEvent struct {
	baseEvent
	Pipeline       string
	ConversationID string
	Outcome        Outcome
	Error          string
}

// NewPipelineFinishedEvent creates a PipelineFinishedEvent.
func NewPipelineFinishedEvent(pipeline, conversationID string, outcome Outcome, errMsg string) PipelineFinishedEvent {
	return PipelineFinishedEvent{
		baseEvent:      newBaseEvent(TypePipelineFinished),
		Pipeline:       pipeline,
		ConversationID: conversationID,
		Outcome:        outcome,
		Error:          errMsg,
	}
}

// DebateProgressEvent is emitted whenever the ephemeral debate state changes.
type DebateProgressEvent struct {
	baseEvent
	ConversationID  string
	Phase           string
	Round           int
	CompletedRounds int
}

// NewDebateProgressEvent creates a DebateProgressEvent.
func NewDebateProgressEvent(conversationID, phase string, round, completedRounds int) DebateProgressEvent {
	return DebateProgressEvent{
		baseEvent:       newBaseEvent(TypeDebateProgress),
		ConversationID:  conversationID,
		Phase:           phase,
		Round:           round,
		CompletedRounds: completedRounds,
	}
}
