package pipeline

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/selection"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

func statements(side conversation.Side, names ...string) []map[string]any {
	out := make([]map[string]any, 0, len(names))
	for _, n := range names {
		out = append(out, map[string]any{"persona": n, "side": string(side), "content": n + " says"})
	}
	return out
}

func roundEvents(n int) []stream.Event {
	return []stream.Event{
		ev(stream.KindRoundStart, map[string]any{"round": n}),
		ev(stream.KindRoundComplete, map[string]any{
			"round": n,
			"data":  append(statements(conversation.SideFor, "Pro"), statements(conversation.SideAgainst, "Con")...),
		}),
	}
}

func openingEvents() []stream.Event {
	return []stream.Event{
		ev(stream.KindOpeningsStart, nil),
		ev(stream.KindOpeningsComplete, map[string]any{
			"data": append(statements(conversation.SideFor, "Pro"), statements(conversation.SideAgainst, "Con")...),
		}),
	}
}

func verdictEvents() []stream.Event {
	return []stream.Event{
		ev(stream.KindVerdictStart, nil),
		ev(stream.KindVerdictComplete, map[string]any{"data": map[string]any{"moderator": "M", "content": "Pro wins"}}),
	}
}

func twoRoundConfig() selection.DebateConfig {
	return selection.DebateConfig{DebaterFor: "pro", DebaterAgainst: "con", Moderator: "M", NumRounds: 2}
}

func TestDebateSend_Completes(t *testing.T) {
	h := newHarness(t)
	var events []stream.Event
	events = append(events, openingEvents()...)
	events = append(events, roundEvents(1)...)
	events = append(events, roundEvents(2)...)
	events = append(events, verdictEvents()...)
	events = append(events, ev(stream.KindComplete, nil))
	transport := &scriptedTransport{events: events}
	debate := h.debate(transport)

	var before DebateState
	var hadState bool
	h.persistence.onGet = func(string) { before, hadState = debate.State() }

	if err := debate.Send(context.Background(), "c-1", "Should we?", twoRoundConfig()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if !hadState {
		t.Fatal("no debate state before reconciliation")
	}
	if len(before.Openings) != 2 {
		t.Errorf("openings = %d, want 2", len(before.Openings))
	}
	if len(before.Rounds) != 2 {
		t.Errorf("rounds = %d, want 2", len(before.Rounds))
	}
	if before.Verdict == nil || before.Verdict.Moderator != "M" {
		t.Errorf("verdict = %+v", before.Verdict)
	}
	if before.Topic != "Should we?" || before.Phase != PhaseVerdict {
		t.Errorf("state = %+v", before)
	}

	if _, ok := debate.State(); ok {
		t.Error("debate state kept after complete")
	}
	if debate.Busy() {
		t.Error("busy flag still set")
	}
	if h.persistence.gets("c-1") != 2 {
		t.Errorf("conversation fetches = %d, want 2", h.persistence.gets("c-1"))
	}

	params := transport.lastParams()
	want := SendParams{Content: "Should we?", DebaterFor: "pro", DebaterAgainst: "con", Moderator: "M", NumRounds: 2}
	if params.Content != want.Content || params.DebaterFor != want.DebaterFor ||
		params.DebaterAgainst != want.DebaterAgainst || params.Moderator != want.Moderator ||
		params.NumRounds != want.NumRounds || len(params.CouncilMembers) != 0 {
		t.Errorf("params = %+v, want %+v", params, want)
	}
	if !params.IsDebate() {
		t.Error("IsDebate() = false")
	}
}

func TestDebateSend_DropsRoundsBeyondConfigured(t *testing.T) {
	h := newHarness(t)
	var events []stream.Event
	events = append(events, openingEvents()...)
	events = append(events, roundEvents(1)...)
	events = append(events, roundEvents(2)...)
	events = append(events, roundEvents(3)...)
	events = append(events, ev(stream.KindError, map[string]any{"message": "stop"}))
	debate := h.debate(&scriptedTransport{events: events})

	_ = debate.Send(context.Background(), "c-1", "topic", twoRoundConfig())

	s, ok := debate.State()
	if !ok {
		t.Fatal("state discarded after in-band error")
	}
	if len(s.Rounds) != 2 {
		t.Errorf("rounds = %d, want 2", len(s.Rounds))
	}
	if s.Rounds[1][0].Persona != "Pro" || s.Rounds[1][1].Side != conversation.SideAgainst {
		t.Errorf("round 2 = %+v", s.Rounds[1])
	}
}

func TestDebateSend_TitleCompleteLeavesStateAlone(t *testing.T) {
	h := newHarness(t)
	title := ev(stream.KindTitleComplete, map[string]any{"data": map[string]any{"title": "Should we?"}})
	var events []stream.Event
	events = append(events, openingEvents()...)
	events = append(events, roundEvents(1)...)
	firstTitle := len(events)
	events = append(events, title, title)
	events = append(events, roundEvents(2)...)
	events = append(events, verdictEvents()...)
	events = append(events, ev(stream.KindComplete, nil))

	transport := &scriptedTransport{events: events}
	debate := h.debate(transport)

	var beforeTitles, afterTitles DebateState
	transport.before = func(i int) {
		switch i {
		case firstTitle:
			beforeTitles, _ = debate.State()
		case firstTitle + 2:
			afterTitles, _ = debate.State()
		}
	}
	var final DebateState
	h.persistence.onGet = func(string) { final, _ = debate.State() }

	if err := debate.Send(context.Background(), "c-1", "Should we?", twoRoundConfig()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if !reflect.DeepEqual(beforeTitles, afterTitles) {
		t.Errorf("title_complete changed the state:\nbefore %+v\nafter  %+v", beforeTitles, afterTitles)
	}
	if len(final.Openings) != 2 || len(final.Rounds) != 2 || final.Verdict == nil {
		t.Errorf("state before reconcile = %+v", final)
	}
	// One refresh for the titles, one for the reconcile after complete.
	if got := h.persistence.lists(); got != 2 {
		t.Errorf("summary refreshes = %d, want 2", got)
	}
}

func TestRoundInProgress(t *testing.T) {
	tests := []struct {
		name      string
		phase     Phase
		round     int
		completed int
		want      bool
	}{
		{"round started", PhaseRound, 1, 0, true},
		{"round finished", PhaseRound, 1, 1, false},
		{"second round started", PhaseRound, 2, 1, true},
		{"openings", PhaseOpenings, 0, 0, false},
		{"verdict", PhaseVerdict, 2, 2, false},
		{"after openings before round", PhaseRound, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundInProgress(tt.phase, tt.round, tt.completed); got != tt.want {
				t.Errorf("RoundInProgress(%q, %d, %d) = %v, want %v", tt.phase, tt.round, tt.completed, got, tt.want)
			}
		})
	}
}

func TestDebateSend_ErrorRetainsState(t *testing.T) {
	h := newHarness(t)
	var events []stream.Event
	events = append(events, openingEvents()...)
	events = append(events, ev(stream.KindRoundStart, map[string]any{"round": 1}))
	events = append(events, ev(stream.KindError, map[string]any{"message": "model unavailable"}))
	debate := h.debate(&scriptedTransport{events: events})

	err := debate.Send(context.Background(), "c-1", "topic", twoRoundConfig())

	var streamErr *errors.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Send() error = %v, want *StreamError", err)
	}
	if streamErr.Message != "model unavailable" || streamErr.Pipeline != PipelineDebate {
		t.Errorf("StreamError = %+v", streamErr)
	}
	if streamErr.CompletedStages != 1 {
		t.Errorf("CompletedStages = %d, want 1", streamErr.CompletedStages)
	}

	s, ok := debate.State()
	if !ok {
		t.Fatal("state discarded after in-band error")
	}
	if s.Phase != PhaseNone || s.Err != "model unavailable" {
		t.Errorf("phase = %q, err = %q", s.Phase, s.Err)
	}
	if len(s.Openings) != 2 || s.RoundInProgress() {
		t.Errorf("state = %+v", s)
	}
	if got := len(h.loaded(t).Messages); got != 3 {
		t.Errorf("message count = %d, want topic kept", got)
	}

	debate.Discard()
	if _, ok := debate.State(); ok {
		t.Error("Discard() kept the state")
	}
}

func TestDebateSend_TransportFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	debate := h.debate(&scriptedTransport{err: io.ErrUnexpectedEOF})
	countBefore := len(h.loaded(t).Messages)

	err := debate.Send(context.Background(), "c-1", "topic", twoRoundConfig())

	if !errors.IsRollback(err) || !errors.Is(err, errors.ErrStreamOpen) {
		t.Fatalf("Send() error = %v, want transport error", err)
	}
	if got := len(h.loaded(t).Messages); got != countBefore {
		t.Errorf("message count = %d, want %d", got, countBefore)
	}
	if _, ok := debate.State(); ok {
		t.Error("state kept after transport failure")
	}
}

func TestDebateSend_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  selection.DebateConfig
		want error
	}{
		{"same debater", selection.DebateConfig{DebaterFor: "a", DebaterAgainst: "a", NumRounds: 2}, errors.ErrSameDebater},
		{"missing side", selection.DebateConfig{DebaterFor: "a", NumRounds: 2}, errors.ErrInvalidInput},
		{"too many rounds", selection.DebateConfig{DebaterFor: "a", DebaterAgainst: "b", NumRounds: 9}, errors.ErrInvalidRounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			transport := &scriptedTransport{}
			debate := h.debate(transport)
			countBefore := len(h.loaded(t).Messages)

			err := debate.Send(context.Background(), "c-1", "topic", tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("Send() error = %v, want %v", err, tt.want)
			}
			if transport.callCount() != 0 {
				t.Error("transport opened for an invalid config")
			}
			if got := len(h.loaded(t).Messages); got != countBefore {
				t.Error("invalid config appended a message")
			}
		})
	}
}

func TestDebateSend_DefaultRounds(t *testing.T) {
	h := newHarness(t)
	transport := &scriptedTransport{events: []stream.Event{ev(stream.KindComplete, nil)}}
	debate := h.debate(transport)

	cfg := selection.DebateConfig{DebaterFor: "pro", DebaterAgainst: "con"}
	if err := debate.Send(context.Background(), "c-1", "topic", cfg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := transport.lastParams().NumRounds; got != selection.DefaultRounds {
		t.Errorf("NumRounds = %d, want %d", got, selection.DefaultRounds)
	}
}

func TestDebateSend_PublishesProgress(t *testing.T) {
	h := newHarness(t)
	var events []stream.Event
	events = append(events, openingEvents()...)
	events = append(events, roundEvents(1)...)
	events = append(events, ev(stream.KindComplete, nil))
	debate := h.debate(&scriptedTransport{events: events})

	var progress []event.DebateProgressEvent
	h.bus.Subscribe(event.TypeDebateProgress, func(e event.Event) {
		progress = append(progress, e.(event.DebateProgressEvent))
	})
	var started int
	h.bus.Subscribe(event.TypePipelineStarted, func(event.Event) { started++ })

	cfg := twoRoundConfig()
	cfg.NumRounds = 1
	if err := debate.Send(context.Background(), "c-1", "topic", cfg); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if started != 1 {
		t.Errorf("pipeline started events = %d, want 1", started)
	}
	// openings_start, openings_complete, round_start, round_complete, then
	// the cleared state after complete.
	if len(progress) != 5 {
		t.Fatalf("progress events = %d, want 5", len(progress))
	}
	if p := progress[2]; p.Phase != string(PhaseRound) || p.Round != 1 || p.CompletedRounds != 0 {
		t.Errorf("round start progress = %+v", p)
	}
	if p := progress[3]; p.CompletedRounds != 1 {
		t.Errorf("round complete progress = %+v", p)
	}
	if p := progress[4]; p.Phase != "" || p.Round != 0 {
		t.Errorf("final progress = %+v", p)
	}
}

func TestDebateSend_StaleEventsDropped(t *testing.T) {
	h := newHarness(t)
	events := append(openingEvents(), ev(stream.KindError, map[string]any{"message": "stop"}))
	transport := &scriptedTransport{events: events}
	transport.before = func(i int) {
		if i == 1 {
			if err := h.syncer.Open(context.Background(), "c-2"); err != nil {
				t.Errorf("Open(c-2) error = %v", err)
			}
		}
	}
	debate := h.debate(transport)

	_ = debate.Send(context.Background(), "c-1", "topic", twoRoundConfig())

	s, ok := debate.State()
	if !ok {
		t.Fatal("state discarded after in-band error")
	}
	if len(s.Openings) != 0 {
		t.Error("openings applied after the conversation was switched")
	}
	if h.persistence.gets("c-1") != 1 {
		t.Error("stale conversation was reloaded")
	}
}
