package pipeline

import (
	"context"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/stream"
)

// Transport opens the backend's send stream.
//
// OpenSendStream blocks until the stream ends, calling dispatch for every
// event in arrival order on the calling goroutine. It returns nil when the
// stream closed normally and an error if it could not be opened or broke.
// Controllers treat an error with no delivered events as a transport failure
// and any later error as an in-band failure.
type Transport interface {
	OpenSendStream(ctx context.Context, conversationID, content string, params SendParams, dispatch func(stream.Event)) error
}

// Persistence is the backend's conversation storage.
type Persistence = conversation.Persistence

// SendParams is the request body of a send, in the backend's field names.
// Chat sends set the council fields; debate sends set the debate fields.
type SendParams struct {
	Content        string   `json:"content"`
	CouncilMembers []string `json:"council_members,omitempty"`
	Chairman       string   `json:"chairman,omitempty"`
	DebaterFor     string   `json:"debater_for,omitempty"`
	DebaterAgainst string   `json:"debater_against,omitempty"`
	Moderator      string   `json:"moderator,omitempty"`
	NumRounds      int      `json:"num_rounds,omitempty"`
}

// IsDebate reports whether the params select the debate pipeline.
func (p SendParams) IsDebate() bool {
	return p.DebaterFor != "" || p.DebaterAgainst != ""
}
