package pipeline

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/logging"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

// scriptedTransport replays a fixed event sequence, then returns err.
type scriptedTransport struct {
	events []stream.Event
	err    error
	// before runs ahead of delivering events[i].
	before func(i int)
	// started is closed when a stream opens; the stream then waits on
	// release if it is set.
	started chan struct{}
	release chan struct{}

	mu     sync.Mutex
	calls  int
	params SendParams
}

func (s *scriptedTransport) OpenSendStream(ctx context.Context, conversationID, content string, params SendParams, dispatch func(stream.Event)) error {
	s.mu.Lock()
	s.calls++
	s.params = params
	s.mu.Unlock()

	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	for i, e := range s.events {
		if s.before != nil {
			s.before(i)
		}
		dispatch(e)
	}
	return s.err
}

func (s *scriptedTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedTransport) lastParams() SendParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// memoryPersistence is an in-memory backend.
type memoryPersistence struct {
	mu            sync.Mutex
	conversations map[string]conversation.Conversation
	listCalls     int
	getCalls      map[string]int
	// onGet runs before a GetConversation returns.
	onGet func(id string)
}

func newMemoryPersistence(convs ...conversation.Conversation) *memoryPersistence {
	p := &memoryPersistence{
		conversations: map[string]conversation.Conversation{},
		getCalls:      map[string]int{},
	}
	for _, c := range convs {
		p.conversations[c.ID] = c
	}
	return p
}

func (p *memoryPersistence) set(conv conversation.Conversation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conversations[conv.ID] = conv
}

func (p *memoryPersistence) ListConversations(ctx context.Context) ([]conversation.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	out := make([]conversation.Summary, 0, len(p.conversations))
	for _, c := range p.conversations {
		out = append(out, c.Summary())
	}
	return out, nil
}

func (p *memoryPersistence) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	p.mu.Lock()
	p.getCalls[id]++
	conv, ok := p.conversations[id]
	hook := p.onGet
	p.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if !ok {
		return nil, errors.NewNotFoundError("conversation", id)
	}
	c := conv.Clone()
	return &c, nil
}

func (p *memoryPersistence) CreateConversation(ctx context.Context) (*conversation.Conversation, error) {
	conv := conversation.Conversation{ID: "created", CreatedAt: "now"}
	p.set(conv)
	return &conv, nil
}

func (p *memoryPersistence) lists() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listCalls
}

func (p *memoryPersistence) gets(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getCalls[id]
}

type harness struct {
	store       *conversation.Store
	syncer      *conversation.Sync
	persistence *memoryPersistence
	bus         *event.Bus
	logs        *bytes.Buffer
	logger      *logging.Logger
}

// newHarness loads conversation c-1 holding one earlier exchange.
func newHarness(t *testing.T) *harness {
	t.Helper()
	var logs bytes.Buffer
	logger := logging.NewWriterLogger(&logs, logging.LevelDebug)
	bus := event.NewBus(event.WithLogger(logger))
	store := conversation.NewStore(bus)
	persistence := newMemoryPersistence(
		conversation.Conversation{
			ID: "c-1",
			Messages: []conversation.Message{
				conversation.UserMessage{Content: "earlier"},
				conversation.ChatMessage{Stage3: &conversation.Stage3Result{Response: "earlier answer"}},
			},
		},
		conversation.Conversation{ID: "c-2"},
	)
	syncer := conversation.NewSync(store, persistence, logger)
	if err := syncer.Open(context.Background(), "c-1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return &harness{
		store:       store,
		syncer:      syncer,
		persistence: persistence,
		bus:         bus,
		logs:        &logs,
		logger:      logger,
	}
}

func (h *harness) chat(transport Transport) *ChatController {
	return NewChatController(transport, h.syncer, WithLogger(h.logger), WithBus(h.bus))
}

func (h *harness) debate(transport Transport) *DebateController {
	return NewDebateController(transport, h.syncer, WithLogger(h.logger), WithBus(h.bus))
}

func (h *harness) loaded(t *testing.T) conversation.Conversation {
	t.Helper()
	conv, ok := h.store.Loaded()
	if !ok {
		t.Fatal("no conversation loaded")
	}
	return conv
}

// lastChat returns the final message of the loaded conversation as a chat message.
func (h *harness) lastChat(t *testing.T) conversation.ChatMessage {
	t.Helper()
	last, ok := h.loaded(t).Last()
	if !ok {
		t.Fatal("loaded conversation is empty")
	}
	chat, ok := last.(conversation.ChatMessage)
	if !ok {
		t.Fatalf("last message is %T, want ChatMessage", last)
	}
	return chat
}

func ev(kind stream.Kind, payload map[string]any) stream.Event {
	return stream.NewEvent(kind, payload)
}

var (
	stage1Data = []map[string]any{{"persona": "A", "response": "hi"}}
	stage2Data = []map[string]any{{"name": "A", "ranking": "FINAL RANKING:\n1. Response A", "parsed_ranking": []string{"Response A"}}}
	stage2Meta = map[string]any{
		"label_to_model":     map[string]any{"Response A": map[string]any{"name": "A", "model": "m1"}},
		"aggregate_rankings": []map[string]any{{"name": "A", "model": "m1", "average_rank": 1.0, "rankings_count": 1}},
	}
)

// chatStages returns the events of k completed stages.
func chatStages(k int) []stream.Event {
	all := [][]stream.Event{
		{ev(stream.KindStage1Start, nil), ev(stream.KindStage1Complete, map[string]any{"data": stage1Data})},
		{ev(stream.KindStage2Start, nil), ev(stream.KindStage2Complete, map[string]any{"data": stage2Data, "metadata": stage2Meta})},
		{ev(stream.KindStage3Start, nil), ev(stream.KindStage3Complete, map[string]any{"data": "final answer"})},
	}
	var out []stream.Event
	for _, stage := range all[:k] {
		out = append(out, stage...)
	}
	return out
}
