package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

// OpenSendStream posts a message and feeds each server-sent event to
// dispatch on the calling goroutine until the stream ends.
//
// A stream that cannot be opened, or answers with a non-2xx status, returns a
// *errors.TransportError. A body that breaks after opening returns the read
// error unchanged.
func (c *Client) OpenSendStream(ctx context.Context, conversationID, content string, params pipeline.SendParams, dispatch func(stream.Event)) error {
	params.Content = content
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := c.endpoint("api", "conversations", conversationID, "message", "stream")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return errors.NewTransportError("create stream request", err).WithConversationID(conversationID)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	log := c.logger.WithConversation(conversationID)
	resp, err := c.stream.Do(req)
	if err != nil {
		log.Warn("failed to open event stream", "error", err.Error())
		return errors.NewTransportError("open event stream", err).WithConversationID(conversationID)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := c.apiError(http.MethodPost, req.URL.Path, resp)
		log.Warn("event stream rejected", "status", resp.StatusCode, "body", apiErr.Body)
		return errors.NewTransportError("open event stream", apiErr).
			WithConversationID(conversationID).
			WithStatusCode(resp.StatusCode)
	}

	log.Debug("event stream opened", "debate", params.IsDebate())
	if err := stream.ReadAll(resp.Body, dispatch); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("event stream canceled: %w", errors.Join(errors.ErrCanceled, ctxErr))
		}
		return err
	}
	return nil
}
