// Package internal contains integration tests that verify the client, the
// pipeline controllers and the conversation store work together against a
// streaming backend.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/0fflineDocs/Cipher/internal/client"
	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/selection"
)

// backend is an in-memory stand-in for the Cipher API. Stream requests are
// answered with frames, a status for the stream endpoint may be forced, and
// every request path is recorded.
type backend struct {
	frames       []string
	delay        time.Duration
	streamStatus int
	persisted    map[string]any

	mu       sync.Mutex
	requests []string
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.mu.Unlock()
}

func (b *backend) count(request string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r == request {
			n++
		}
	}
	return n
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/conversations", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		title := "Ransomware response"
		writeJSON(w, []conversation.Summary{{ID: "c-1", CreatedAt: "2026-01-01T10:00:00", Title: &title, MessageCount: 2}})
	})
	mux.HandleFunc("GET /api/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		persisted := map[string]any{"id": r.PathValue("id"), "created_at": "2026-01-01T10:00:00", "title": nil, "messages": []any{}}
		if b.persisted != nil {
			persisted = b.persisted
		}
		writeJSON(w, persisted)
	})
	mux.HandleFunc("POST /api/conversations/{id}/message/stream", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if b.streamStatus != 0 {
			w.WriteHeader(b.streamStatus)
			fmt.Fprint(w, `{"detail": "backend unavailable"}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, f := range b.frames {
			if b.delay > 0 {
				time.Sleep(b.delay)
			}
			fmt.Fprintf(w, "data: %s\n\n", f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// harness wires a real client, store and bus to a backend and records every
// event published on the bus.
type harness struct {
	backend *backend
	client  *client.Client
	bus     *event.Bus
	store   *conversation.Store
	syncer  *conversation.Sync

	mu     sync.Mutex
	events []event.Event
}

func newHarness(t *testing.T, b *backend) *harness {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	c, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	h := &harness{backend: b, client: c, bus: event.NewBus()}
	h.store = conversation.NewStore(h.bus)
	h.syncer = conversation.NewSync(h.store, c, nil)
	h.bus.SubscribeAll(func(e event.Event) {
		h.mu.Lock()
		h.events = append(h.events, e)
		h.mu.Unlock()
	})

	if err := h.syncer.Open(context.Background(), "c-1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return h
}

func (h *harness) finished(t *testing.T) event.PipelineFinishedEvent {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var found []event.PipelineFinishedEvent
	for _, e := range h.events {
		if f, ok := e.(event.PipelineFinishedEvent); ok {
			found = append(found, f)
		}
	}
	if len(found) != 1 {
		t.Fatalf("pipeline finished %d times, want 1", len(found))
	}
	return found[0]
}

func (h *harness) messages(t *testing.T) []conversation.Message {
	t.Helper()
	conv, ok := h.store.Loaded()
	if !ok {
		t.Fatal("no conversation loaded")
	}
	return conv.Messages
}

var councilFrames = []string{
	`{"type": "stage1_start"}`,
	`{"type": "stage1_complete", "data": [{"name": "Security Architect", "model": "m1", "response": "Isolate."}]}`,
	`{"type": "stage2_start"}`,
	`{"type": "stage2_complete", "data": [{"name": "Security Architect", "ranking": "1. Response A", "parsed_ranking": ["Response A"]}], "metadata": {"label_to_model": {}, "aggregate_rankings": []}}`,
	`{"type": "stage3_start"}`,
	`{"type": "stage3_complete", "data": {"name": "Strategic Principal", "response": "Contain, then restore."}}`,
	`{"type": "title_complete", "data": {"title": "Ransomware response"}}`,
	`{"type": "complete"}`,
}

// TestChatPipelineIntegration streams a full council run and checks that the
// store shows each stage as it lands and is reconciled afterwards.
func TestChatPipelineIntegration(t *testing.T) {
	b := &backend{
		frames: councilFrames,
		delay:  5 * time.Millisecond,
		persisted: map[string]any{
			"id": "c-1", "created_at": "2026-01-01T10:00:00", "title": "Ransomware response",
			"messages": []any{
				map[string]any{"role": "user", "content": "How do we respond?"},
				map[string]any{"role": "assistant", "stage3": map[string]any{"response": "Contain, then restore."}},
			},
		},
	}
	h := newHarness(t, b)

	// Record the stage count of the assistant message on every update.
	var mu sync.Mutex
	var progress []int
	h.bus.Subscribe(event.TypeMessageUpdated, func(e event.Event) {
		ev := e.(event.MessageUpdatedEvent)
		m, ok := h.store.Message(ev.ConversationID, ev.MessageID)
		if !ok {
			return
		}
		if chat, ok := m.(conversation.ChatMessage); ok {
			mu.Lock()
			progress = append(progress, chat.CompletedStages())
			mu.Unlock()
		}
	})

	chat := pipeline.NewChatController(h.client, h.syncer, pipeline.WithBus(h.bus))
	council := selection.DefaultCouncil()
	if err := chat.Send(context.Background(), "c-1", "How do we respond?", council.Members(), council.Chairman()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if f := h.finished(t); f.Outcome != event.OutcomeCompleted || f.Pipeline != pipeline.PipelineChat {
		t.Errorf("finished = %+v", f)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(progress) == 0 || progress[len(progress)-1] != 3 {
		t.Fatalf("stage progress = %v, want to end at 3", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("stage progress went backwards: %v", progress)
		}
	}

	msgs := h.messages(t)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2 after reconcile", len(msgs))
	}
	if got := msgs[1].(conversation.ChatMessage).Stage3.Response; got != "Contain, then restore." {
		t.Errorf("stage 3 = %q", got)
	}
	if n := b.count("GET /api/conversations"); n != 2 {
		t.Errorf("summary refreshes = %d, want 2 (title and reconcile)", n)
	}
	if n := b.count("GET /api/conversations/c-1"); n != 2 {
		t.Errorf("conversation fetches = %d, want 2 (open and reconcile)", n)
	}
}

// TestChatPipelineIntegration_RejectedStreamRollsBack checks that a refused
// stream leaves the conversation as it was.
func TestChatPipelineIntegration_RejectedStreamRollsBack(t *testing.T) {
	h := newHarness(t, &backend{streamStatus: http.StatusServiceUnavailable})

	chat := pipeline.NewChatController(h.client, h.syncer, pipeline.WithBus(h.bus))
	err := chat.Send(context.Background(), "c-1", "hello", selection.DefaultMembers, selection.DefaultChairman)
	if !errors.IsRollback(err) {
		t.Fatalf("Send() error = %v, want a rollback", err)
	}
	var transportErr *errors.TransportError
	if errors.As(err, &transportErr) && transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", transportErr.StatusCode)
	}
	if msgs := h.messages(t); len(msgs) != 0 {
		t.Errorf("messages = %d, want 0 after rollback", len(msgs))
	}
	if f := h.finished(t); f.Outcome != event.OutcomeRolledBack {
		t.Errorf("outcome = %s, want %s", f.Outcome, event.OutcomeRolledBack)
	}
}

// TestChatPipelineIntegration_InBandErrorKeepsStages checks that stages that
// completed before an error event stay visible.
func TestChatPipelineIntegration_InBandErrorKeepsStages(t *testing.T) {
	h := newHarness(t, &backend{frames: []string{
		councilFrames[0],
		councilFrames[1],
		`{"type": "stage2_start"}`,
		`{"type": "error", "message": "Rate limit exceeded"}`,
	}})

	chat := pipeline.NewChatController(h.client, h.syncer, pipeline.WithBus(h.bus))
	err := chat.Send(context.Background(), "c-1", "hello", selection.DefaultMembers, selection.DefaultChairman)

	var streamErr *errors.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Send() error = %v, want StreamError", err)
	}
	if streamErr.Message != "Rate limit exceeded" || streamErr.CompletedStages != 1 {
		t.Errorf("StreamError = %+v", streamErr)
	}

	msgs := h.messages(t)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	assistant := msgs[1].(conversation.ChatMessage)
	if len(assistant.Stage1) != 1 || assistant.Stage2 != nil || assistant.Loading.Any() {
		t.Errorf("assistant = %+v", assistant)
	}
}

// TestDebatePipelineIntegration runs a one-round debate with a verdict and
// follows the ephemeral state through the bus.
func TestDebatePipelineIntegration(t *testing.T) {
	h := newHarness(t, &backend{frames: []string{
		`{"type": "openings_start"}`,
		`{"type": "openings_complete", "data": [{"persona": "The Hawk", "side": "for", "content": "Yes."}, {"persona": "The Dove", "side": "against", "content": "No."}]}`,
		`{"type": "round_start", "round": 1}`,
		`{"type": "round_complete", "round": 1, "data": [{"persona": "The Hawk", "side": "for", "content": "Still yes."}]}`,
		`{"type": "verdict_start"}`,
		`{"type": "verdict_complete", "data": {"moderator": "Strategic Principal", "content": "The Hawk wins."}}`,
		`{"type": "complete"}`,
	}})

	debate := pipeline.NewDebateController(h.client, h.syncer, pipeline.WithBus(h.bus))

	var mu sync.Mutex
	var statuses []string
	h.bus.Subscribe(event.TypeDebateProgress, func(e event.Event) {
		s, ok := debate.State()
		if !ok {
			return
		}
		mu.Lock()
		statuses = append(statuses, fmt.Sprintf("%s/%d/%d", s.Phase, s.Round, len(s.Rounds)))
		mu.Unlock()
	})

	cfg := selection.DebateConfig{DebaterFor: "hawk", DebaterAgainst: "dove", Moderator: "Strategic Principal", NumRounds: 1}
	if err := debate.Send(context.Background(), "c-1", "Ban passwords?", cfg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if _, ok := debate.State(); ok {
		t.Error("state should be cleared after completion")
	}
	if f := h.finished(t); f.Outcome != event.OutcomeCompleted || f.Pipeline != pipeline.PipelineDebate {
		t.Errorf("finished = %+v", f)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"openings/0/0", "round/0/0", "round/1/0", "round/1/1", "verdict/1/1", "verdict/1/1"}
	if len(statuses) < len(want) {
		t.Fatalf("statuses = %v, want at least %v", statuses, want)
	}
	for i, w := range want {
		if statuses[i] != w {
			t.Errorf("statuses[%d] = %s, want %s (all: %v)", i, statuses[i], w, statuses)
		}
	}
}
