package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/logging"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

// PipelineChat names the council pipeline in logs, events and errors.
const PipelineChat = "chat"

// ChatController runs the three-stage council pipeline.
type ChatController struct {
	transport Transport
	syncer    *conversation.Sync
	bus       *event.Bus
	logger    *logging.Logger
	busy      atomic.Bool
}

// NewChatController creates a ChatController.
func NewChatController(transport Transport, syncer *conversation.Sync, opts ...Option) *ChatController {
	cfg := newControllerConfig(PipelineChat, opts)
	return &ChatController{
		transport: transport,
		syncer:    syncer,
		bus:       cfg.bus,
		logger:    cfg.logger,
	}
}

// Busy reports whether a send is in flight.
func (c *ChatController) Busy() bool {
	return c.busy.Load()
}

// chatRun is the state of one send.
type chatRun struct {
	conversationID string
	messageID      string
	appended       []string
	store          *conversation.Store
	logger         *logging.Logger
	refresher      *summaryRefresher
	end            terminal
	// completed marks the stages whose _complete arrived in this send.
	completed [3]bool
}

// Send asks the council about content in the loaded conversation and blocks
// until the stream ends.
//
// It returns nil once the backend completed and the conversation was
// reconciled; a *errors.StreamError carrying the backend's message when the
// pipeline failed in-band, with committed stages kept; or a
// *errors.TransportError when the stream never delivered an event, in which
// case the appended messages were removed.
func (c *ChatController) Send(ctx context.Context, conversationID, content string, members []string, chairman string) error {
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Warn("send rejected while another is in flight")
		return errors.ErrSendInFlight
	}
	defer c.busy.Store(false)

	store := c.syncer.Store()
	if !store.IsLoaded(conversationID) {
		return errors.ErrConversationNotLoaded
	}

	log := c.logger.WithConversation(conversationID)
	ids, err := store.Append(conversationID,
		conversation.UserMessage{Content: content},
		conversation.ChatMessage{},
	)
	if err != nil {
		return err
	}

	run := &chatRun{
		conversationID: conversationID,
		messageID:      ids[1],
		appended:       ids,
		store:          store,
		logger:         log,
		refresher:      &summaryRefresher{syncer: c.syncer, logger: log},
	}

	d := stream.NewDispatcher(log)
	run.install(ctx, d)

	log.Info("chat send started", "members", len(members), "chairman", chairman)
	c.bus.Publish(event.NewPipelineStartedEvent(PipelineChat, conversationID))

	params := SendParams{Content: content, CouncilMembers: members, Chairman: chairman}
	streamErr := c.transport.OpenSendStream(ctx, conversationID, content, params, d.Dispatch)
	d.Close()
	run.refresher.wait()

	return c.finish(ctx, run, d, streamErr)
}

func (c *ChatController) finish(ctx context.Context, run *chatRun, d *stream.Dispatcher, streamErr error) error {
	log := run.logger

	switch {
	case run.end.failed:
		run.clearLoading()
		err := c.streamError(run, run.end.errMsg, streamErr)
		log.Error("chat pipeline failed", "error", run.end.errMsg, "completed_stages", err.CompletedStages)
		c.publishFinished(run.conversationID, event.OutcomeFailed, err)
		return err

	case run.end.completed:
		if streamErr != nil {
			log.Warn("stream errored after complete", "error", streamErr.Error())
		}
		c.reconcile(detached(ctx), run.conversationID, log)
		log.Info("chat send completed")
		c.publishFinished(run.conversationID, event.OutcomeCompleted, nil)
		return nil

	case streamErr != nil && d.Delivered() == 0:
		removed := run.store.Remove(run.conversationID, run.appended...)
		err := transportFailure(run.conversationID, streamErr)
		log.Error("chat stream failed before any event", "error", streamErr.Error(), "removed", removed)
		c.publishFinished(run.conversationID, event.OutcomeRolledBack, err)
		return err

	case streamErr != nil:
		run.clearLoading()
		err := c.streamError(run, streamErr.Error(), streamErr)
		log.Error("chat stream broke mid-pipeline", "error", streamErr.Error())
		c.publishFinished(run.conversationID, event.OutcomeFailed, err)
		return err

	default:
		run.clearLoading()
		err := c.streamError(run, errors.ErrStreamIncomplete.Error(), errors.ErrStreamIncomplete)
		log.Error("chat stream ended without completion", "events", d.Delivered())
		c.publishFinished(run.conversationID, event.OutcomeFailed, err)
		return err
	}
}

func (c *ChatController) streamError(run *chatRun, msg string, cause error) *errors.StreamError {
	err := errors.NewStreamError(msg).
		WithPipeline(PipelineChat).
		WithConversationID(run.conversationID).
		WithCompletedStages(run.completedStages())
	if cause != nil {
		err.WithCause(cause)
	}
	return err
}

// reconcile replaces the loaded copy with the persisted conversation and
// refreshes the list. A conversation the user switched away from is left
// alone, but the list is still refreshed.
func (c *ChatController) reconcile(ctx context.Context, conversationID string, log *logging.Logger) {
	if _, err := c.syncer.Reload(ctx, conversationID); err != nil {
		log.Error("reconcile failed", "error", err.Error())
	}
	if err := c.syncer.RefreshSummaries(ctx); err != nil {
		log.Error("summary refresh failed", "error", err.Error())
	}
}

func (c *ChatController) publishFinished(conversationID string, outcome event.Outcome, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.bus.Publish(event.NewPipelineFinishedEvent(PipelineChat, conversationID, outcome, msg))
}

// install registers the stage handlers for one send.
func (r *chatRun) install(ctx context.Context, d *stream.Dispatcher) {
	d.Handle(stream.KindStage1Start, func(stream.Event) {
		r.apply("stage1_start", func(m *conversation.ChatMessage) { m.Loading.Stage1 = true })
	})
	d.Handle(stream.KindStage1Complete, func(e stream.Event) {
		var p stage1Payload
		if !r.decode(e, &p) {
			return
		}
		if p.Data == nil {
			p.Data = []conversation.Stage1Result{}
		}
		r.completed[0] = true
		r.apply("stage1_complete", func(m *conversation.ChatMessage) {
			m.Stage1 = p.Data
			m.Loading.Stage1 = false
		})
	})
	d.Handle(stream.KindStage2Start, func(stream.Event) {
		if !r.follows(1, "stage2_start") {
			return
		}
		r.apply("stage2_start", func(m *conversation.ChatMessage) { m.Loading.Stage2 = true })
	})
	d.Handle(stream.KindStage2Complete, func(e stream.Event) {
		var p stage2Payload
		if !r.decode(e, &p) {
			return
		}
		if p.Data == nil {
			p.Data = []conversation.Stage2Result{}
		}
		r.completed[1] = true
		r.apply("stage2_complete", func(m *conversation.ChatMessage) {
			m.Stage2 = p.Data
			m.Metadata = p.Metadata
			m.Loading.Stage2 = false
		})
	})
	d.Handle(stream.KindStage3Start, func(stream.Event) {
		if !r.follows(2, "stage3_start") {
			return
		}
		r.apply("stage3_start", func(m *conversation.ChatMessage) { m.Loading.Stage3 = true })
	})
	d.Handle(stream.KindStage3Complete, func(e stream.Event) {
		var p stage3Payload
		if !r.decode(e, &p) {
			return
		}
		if p.Data == nil {
			p.Data = &conversation.Stage3Result{}
		}
		r.completed[2] = true
		r.apply("stage3_complete", func(m *conversation.ChatMessage) {
			m.Stage3 = p.Data
			m.Loading.Stage3 = false
		})
	})
	d.Handle(stream.KindTitleComplete, func(stream.Event) {
		r.refresher.trigger(detached(ctx))
	})
	installTerminal(d, &r.end, r.logger)
}

func (r *chatRun) decode(e stream.Event, v any) bool {
	if err := e.Decode(v); err != nil {
		r.logger.Warn("dropping malformed stream event", "event_type", e.Type, "error", err.Error())
		return false
	}
	return true
}

// follows reports whether stage prior completed in this send.
// An out-of-order start is logged and dropped.
func (r *chatRun) follows(prior int, kind string) bool {
	if r.completed[prior-1] {
		return true
	}
	r.logger.Warn("dropping out-of-order stream event", "event_type", kind, "awaiting", fmt.Sprintf("stage%d_complete", prior))
	return false
}

// apply mutates the in-flight message. Events for a conversation that is no
// longer loaded are dropped.
func (r *chatRun) apply(kind string, fn func(*conversation.ChatMessage)) {
	if !r.store.UpdateChat(r.conversationID, r.messageID, fn) {
		r.logger.Debug("dropping stale stream event", "event_type", kind, "message_id", r.messageID)
		return
	}
	r.logger.Debug("applied stream event", "event_type", kind)
}

func (r *chatRun) clearLoading() {
	r.store.UpdateChat(r.conversationID, r.messageID, func(m *conversation.ChatMessage) {
		m.Loading = conversation.StageLoading{}
	})
}

func (r *chatRun) completedStages() int {
	m, ok := r.store.Message(r.conversationID, r.messageID)
	if !ok {
		return 0
	}
	chat, ok := m.(conversation.ChatMessage)
	if !ok {
		return 0
	}
	return chat.CompletedStages()
}
