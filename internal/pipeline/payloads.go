package pipeline

import "github.com/0fflineDocs/Cipher/internal/conversation"

// Wire payloads of the stream events each controller consumes.

type stage1Payload struct {
	Data []conversation.Stage1Result `json:"data"`
}

type stage2Payload struct {
	Data     []conversation.Stage2Result   `json:"data"`
	Metadata *conversation.RankingMetadata `json:"metadata"`
}

type stage3Payload struct {
	Data *conversation.Stage3Result `json:"data"`
}

type roundPayload struct {
	Round int `json:"round"`
}

type statementsPayload struct {
	Round int                      `json:"round"`
	Data  []conversation.Statement `json:"data"`
}

type verdictPayload struct {
	Data *conversation.Verdict `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}
