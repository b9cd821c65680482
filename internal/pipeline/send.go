package pipeline

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/logging"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

// summaryRefresher runs at most one background summary refresh per send.
type summaryRefresher struct {
	syncer *conversation.Sync
	logger *logging.Logger
	once   sync.Once
	wg     conc.WaitGroup
}

func (r *summaryRefresher) trigger(ctx context.Context) {
	r.once.Do(func() {
		r.logger.Debug("refreshing conversation list after title")
		r.wg.Go(func() {
			if err := r.syncer.RefreshSummaries(ctx); err != nil {
				r.logger.Warn("title refresh failed", "error", err.Error())
			}
		})
	})
}

func (r *summaryRefresher) wait() {
	r.wg.Wait()
}

// terminal records how a stream ended, as reported by its events.
type terminal struct {
	completed bool
	errMsg    string
	failed    bool
}

// installTerminal registers the complete and error handlers. Both close the
// dispatcher so nothing is applied after the stream's terminal event.
func installTerminal(d *stream.Dispatcher, t *terminal, logger *logging.Logger) {
	d.Handle(stream.KindComplete, func(stream.Event) {
		t.completed = true
		d.Close()
	})
	d.Handle(stream.KindError, func(e stream.Event) {
		var p errorPayload
		if err := e.Decode(&p); err != nil {
			logger.Warn("malformed error event", "error", err.Error())
		}
		if p.Message == "" {
			p.Message = "unknown error"
		}
		t.failed = true
		t.errMsg = p.Message
		d.Close()
	})
}

// transportFailure wraps err as a TransportError for conversationID.
func transportFailure(conversationID string, err error) error {
	var te *errors.TransportError
	if errors.As(err, &te) {
		if te.ConversationID == "" {
			te.WithConversationID(conversationID)
		}
		return te
	}
	return errors.NewTransportError("open event stream", err).WithConversationID(conversationID)
}

// detached returns a context for follow-up requests that should finish even if
// the send's context is canceled once the stream has completed.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
