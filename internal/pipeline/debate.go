package pipeline

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/logging"
	"github.com/0fflineDocs/Cipher/internal/selection"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

// PipelineDebate names the debate pipeline in logs, events and errors.
const PipelineDebate = "debate"

// Phase is the debate step currently running.
type Phase string

const (
	PhaseNone     Phase = ""
	PhaseOpenings Phase = "openings"
	PhaseRound    Phase = "round"
	PhaseVerdict  Phase = "verdict"
)

// DebateState is the ephemeral progress of a debate send. It exists from the
// start of a send until complete, a transport failure, or Discard after an
// in-band error.
type DebateState struct {
	ConversationID string
	Topic          string
	Config         selection.DebateConfig
	Phase          Phase
	Openings       []conversation.Statement
	Rounds         [][]conversation.Statement
	Round          int
	Verdict        *conversation.Verdict
	// Err is the backend's message after an in-band error.
	Err string
}

// RoundInProgress reports whether a rebuttal round has started but not yet
// completed.
func (s DebateState) RoundInProgress() bool {
	return RoundInProgress(s.Phase, s.Round, len(s.Rounds))
}

// RoundInProgress derives "round N in progress" from the phase, the current
// round number and the count of completed rounds.
func RoundInProgress(phase Phase, round, completed int) bool {
	return phase == PhaseRound && round > completed
}

func (s DebateState) clone() DebateState {
	out := s
	out.Openings = slices.Clone(s.Openings)
	out.Rounds = slices.Clone(s.Rounds)
	if s.Verdict != nil {
		v := *s.Verdict
		out.Verdict = &v
	}
	return out
}

// DebateController runs the debate pipeline.
type DebateController struct {
	transport Transport
	syncer    *conversation.Sync
	bus       *event.Bus
	logger    *logging.Logger
	busy      atomic.Bool

	mu    sync.RWMutex
	state *DebateState
}

// NewDebateController creates a DebateController.
func NewDebateController(transport Transport, syncer *conversation.Sync, opts ...Option) *DebateController {
	cfg := newControllerConfig(PipelineDebate, opts)
	return &DebateController{
		transport: transport,
		syncer:    syncer,
		bus:       cfg.bus,
		logger:    cfg.logger,
	}
}

// Busy reports whether a send is in flight.
func (c *DebateController) Busy() bool {
	return c.busy.Load()
}

// State returns a snapshot of the debate in progress, if any.
func (c *DebateController) State() (DebateState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return DebateState{}, false
	}
	return c.state.clone(), true
}

// Discard drops the state retained after an in-band error. It is a no-op
// while a send is in flight.
func (c *DebateController) Discard() {
	if c.busy.Load() {
		return
	}
	c.mu.Lock()
	c.state = nil
	c.mu.Unlock()
}

// debateRun is the state of one send.
type debateRun struct {
	c              *DebateController
	conversationID string
	topicID        string
	numRounds      int
	logger         *logging.Logger
	refresher      *summaryRefresher
	end            terminal
}

// Send starts a debate on topic in the loaded conversation and blocks until
// the stream ends. Errors are reported as for ChatController.Send. A zero
// round count uses selection.DefaultRounds.
func (c *DebateController) Send(ctx context.Context, conversationID, topic string, cfg selection.DebateConfig) error {
	if cfg.NumRounds == 0 {
		cfg.NumRounds = selection.DefaultRounds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
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
	ids, err := store.Append(conversationID, conversation.UserMessage{Content: topic})
	if err != nil {
		return err
	}

	run := &debateRun{
		c:              c,
		conversationID: conversationID,
		topicID:        ids[0],
		numRounds:      cfg.NumRounds,
		logger:         log,
		refresher:      &summaryRefresher{syncer: c.syncer, logger: log},
	}
	c.setState(&DebateState{
		ConversationID: conversationID,
		Topic:          topic,
		Config:         cfg,
		Phase:          PhaseOpenings,
	})

	d := stream.NewDispatcher(log)
	run.install(ctx, d)

	log.Info("debate send started",
		"debater_for", cfg.DebaterFor,
		"debater_against", cfg.DebaterAgainst,
		"moderator", cfg.Moderator,
		"num_rounds", cfg.NumRounds)
	c.bus.Publish(event.NewPipelineStartedEvent(PipelineDebate, conversationID))

	params := SendParams{
		Content:        topic,
		DebaterFor:     cfg.DebaterFor,
		DebaterAgainst: cfg.DebaterAgainst,
		Moderator:      cfg.Moderator,
		NumRounds:      cfg.NumRounds,
	}
	streamErr := c.transport.OpenSendStream(ctx, conversationID, topic, params, d.Dispatch)
	d.Close()
	run.refresher.wait()

	return c.finish(ctx, run, d, streamErr)
}

func (c *DebateController) finish(ctx context.Context, run *debateRun, d *stream.Dispatcher, streamErr error) error {
	log := run.logger

	switch {
	case run.end.failed:
		err := c.fail(run, run.end.errMsg, streamErr)
		log.Error("debate pipeline failed", "error", run.end.errMsg, "completed_phases", err.CompletedStages)
		return err

	case run.end.completed:
		if streamErr != nil {
			log.Warn("stream errored after complete", "error", streamErr.Error())
		}
		ctx = detached(ctx)
		if _, err := c.syncer.Reload(ctx, run.conversationID); err != nil {
			log.Error("reconcile failed", "error", err.Error())
		}
		if err := c.syncer.RefreshSummaries(ctx); err != nil {
			log.Error("summary refresh failed", "error", err.Error())
		}
		c.setState(nil)
		log.Info("debate send completed")
		c.publishProgress(run.conversationID)
		c.publishFinished(run.conversationID, event.OutcomeCompleted, nil)
		return nil

	case streamErr != nil && d.Delivered() == 0:
		removed := c.syncer.Store().Remove(run.conversationID, run.topicID)
		c.setState(nil)
		err := transportFailure(run.conversationID, streamErr)
		log.Error("debate stream failed before any event", "error", streamErr.Error(), "removed", removed)
		c.publishProgress(run.conversationID)
		c.publishFinished(run.conversationID, event.OutcomeRolledBack, err)
		return err

	case streamErr != nil:
		err := c.fail(run, streamErr.Error(), streamErr)
		log.Error("debate stream broke mid-pipeline", "error", streamErr.Error())
		return err

	default:
		err := c.fail(run, errors.ErrStreamIncomplete.Error(), errors.ErrStreamIncomplete)
		log.Error("debate stream ended without completion", "events", d.Delivered())
		return err
	}
}

// fail clears the phase, keeps the committed openings, rounds and verdict
// for display, and builds the StreamError.
func (c *DebateController) fail(run *debateRun, msg string, cause error) *errors.StreamError {
	completed := 0
	c.mu.Lock()
	if c.state != nil {
		c.state.Phase = PhaseNone
		c.state.Err = msg
		completed = c.state.completedPhases()
	}
	c.mu.Unlock()

	err := errors.NewStreamError(msg).
		WithPipeline(PipelineDebate).
		WithConversationID(run.conversationID).
		WithCompletedStages(completed)
	if cause != nil {
		err.WithCause(cause)
	}
	c.publishProgress(run.conversationID)
	c.publishFinished(run.conversationID, event.OutcomeFailed, err)
	return err
}

// completedPhases counts committed openings, rounds and the verdict.
func (s *DebateState) completedPhases() int {
	n := len(s.Rounds)
	if s.Openings != nil {
		n++
	}
	if s.Verdict != nil {
		n++
	}
	return n
}

func (c *DebateController) setState(s *DebateState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *DebateController) publishProgress(conversationID string) {
	var phase string
	var round, completed int
	if s, ok := c.State(); ok {
		phase, round, completed = string(s.Phase), s.Round, len(s.Rounds)
	}
	c.bus.Publish(event.NewDebateProgressEvent(conversationID, phase, round, completed))
}

func (c *DebateController) publishFinished(conversationID string, outcome event.Outcome, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.bus.Publish(event.NewPipelineFinishedEvent(PipelineDebate, conversationID, outcome, msg))
}

// install registers the debate handlers for one send.
func (r *debateRun) install(ctx context.Context, d *stream.Dispatcher) {
	d.Handle(stream.KindOpeningsStart, func(stream.Event) {
		r.apply("openings_start", func(s *DebateState) bool {
			s.Phase = PhaseOpenings
			return true
		})
	})
	d.Handle(stream.KindOpeningsComplete, func(e stream.Event) {
		var p statementsPayload
		if !r.decode(e, &p) {
			return
		}
		if p.Data == nil {
			p.Data = []conversation.Statement{}
		}
		r.apply("openings_complete", func(s *DebateState) bool {
			s.Openings = p.Data
			s.Phase = PhaseRound
			return true
		})
	})
	d.Handle(stream.KindRoundStart, func(e stream.Event) {
		var p roundPayload
		if !r.decode(e, &p) {
			return
		}
		r.apply("round_start", func(s *DebateState) bool {
			s.Phase = PhaseRound
			s.Round = p.Round
			return true
		})
	})
	d.Handle(stream.KindRoundComplete, func(e stream.Event) {
		var p statementsPayload
		if !r.decode(e, &p) {
			return
		}
		r.apply("round_complete", func(s *DebateState) bool {
			if len(s.Rounds) >= r.numRounds {
				r.logger.Warn("dropping round beyond configured count",
					"round", p.Round, "num_rounds", r.numRounds)
				return false
			}
			s.Rounds = append(slices.Clone(s.Rounds), p.Data)
			return true
		})
	})
	d.Handle(stream.KindVerdictStart, func(stream.Event) {
		r.apply("verdict_start", func(s *DebateState) bool {
			s.Phase = PhaseVerdict
			return true
		})
	})
	d.Handle(stream.KindVerdictComplete, func(e stream.Event) {
		var p verdictPayload
		if !r.decode(e, &p) {
			return
		}
		r.apply("verdict_complete", func(s *DebateState) bool {
			s.Verdict = p.Data
			return true
		})
	})
	d.Handle(stream.KindTitleComplete, func(stream.Event) {
		r.refresher.trigger(detached(ctx))
	})
	installTerminal(d, &r.end, r.logger)
}

func (r *debateRun) decode(e stream.Event, v any) bool {
	if err := e.Decode(v); err != nil {
		r.logger.Warn("dropping malformed stream event", "event_type", e.Type, "error", err.Error())
		return false
	}
	return true
}

// apply mutates the debate state. Events for a conversation that is no longer
// loaded are dropped. fn reports whether it changed anything.
func (r *debateRun) apply(kind string, fn func(*DebateState) bool) {
	c := r.c
	if !c.syncer.Store().IsLoaded(r.conversationID) {
		r.logger.Debug("dropping stale stream event", "event_type", kind)
		return
	}
	c.mu.Lock()
	if c.state == nil || c.state.ConversationID != r.conversationID {
		c.mu.Unlock()
		r.logger.Debug("dropping event without debate state", "event_type", kind)
		return
	}
	changed := fn(c.state)
	c.mu.Unlock()

	if changed {
		r.logger.Debug("applied stream event", "event_type", kind)
		c.publishProgress(r.conversationID)
	}
}
