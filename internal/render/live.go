package render

import (
	"sync"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
)

// DebateSource exposes the progress of a debate send.
type DebateSource interface {
	State() (pipeline.DebateState, bool)
}

// Live prints pipeline progress incrementally as bus events arrive. Each
// stage, opening, round and verdict is printed once.
type Live struct {
	p      *Printer
	store  *conversation.Store
	debate DebateSource

	mu      sync.Mutex
	chats   map[string]*chatProgress
	current debateProgress
}

type chatProgress struct {
	announced [3]bool
	printed   [3]bool
}

type debateProgress struct {
	status   string
	openings bool
	rounds   int
	verdict  bool
}

// NewLive creates a Live printer. debate may be nil when only chat sends are
// followed.
func NewLive(p *Printer, store *conversation.Store, debate DebateSource) *Live {
	return &Live{
		p:      p,
		store:  store,
		debate: debate,
		chats:  make(map[string]*chatProgress),
	}
}

// Attach subscribes to bus and returns a function that unsubscribes.
func (l *Live) Attach(bus *event.Bus) func() {
	ids := []string{
		bus.Subscribe(event.TypeMessageUpdated, l.onMessageUpdated),
		bus.Subscribe(event.TypeDebateProgress, l.onDebateProgress),
		bus.Subscribe(event.TypePipelineStarted, l.onPipelineStarted),
	}
	return func() {
		for _, id := range ids {
			bus.Unsubscribe(id)
		}
	}
}

func (l *Live) onPipelineStarted(event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = debateProgress{}
}

func (l *Live) onMessageUpdated(e event.Event) {
	ev, ok := e.(event.MessageUpdatedEvent)
	if !ok {
		return
	}
	m, ok := l.store.Message(ev.ConversationID, ev.MessageID)
	if !ok {
		return
	}
	chat, ok := m.(conversation.ChatMessage)
	if !ok {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	progress, ok := l.chats[ev.MessageID]
	if !ok {
		progress = &chatProgress{}
		l.chats[ev.MessageID] = progress
	}

	stages := []struct {
		loading bool
		done    bool
		print   func(conversation.ChatMessage)
	}{
		{chat.Loading.Stage1, chat.Stage1 != nil, l.p.Stage1},
		{chat.Loading.Stage2, chat.Stage2 != nil, l.p.Stage2},
		{chat.Loading.Stage3, chat.Stage3 != nil, l.p.Stage3},
	}
	for i, st := range stages {
		switch {
		case st.done && !progress.printed[i]:
			progress.printed[i] = true
			progress.announced[i] = true
			st.print(chat)
		case st.loading && !st.done && !progress.announced[i]:
			progress.announced[i] = true
			st.print(chat)
		}
	}
}

func (l *Live) onDebateProgress(e event.Event) {
	if l.debate == nil {
		return
	}
	ev, ok := e.(event.DebateProgressEvent)
	if !ok {
		return
	}
	s, ok := l.debate.State()
	if !ok || s.ConversationID != ev.ConversationID {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	cur := &l.current
	if s.Openings != nil && !cur.openings {
		cur.openings = true
		l.p.Openings(s.Openings)
	}
	for cur.rounds < len(s.Rounds) {
		cur.rounds++
		l.p.Round(cur.rounds, s.Rounds[cur.rounds-1])
	}
	if s.Verdict != nil && !cur.verdict {
		cur.verdict = true
		l.p.Verdict(*s.Verdict)
	}
	if status := DebateStatus(s); status != "" && status != cur.status {
		l.p.line(1, l.p.s.warning.Render(status))
	}
	cur.status = DebateStatus(s)
}
