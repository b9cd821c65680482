// Package stream decodes and routes the backend's server-sent pipeline events.
//
// A [Reader] turns a text/event-stream body into [Event] values, and a
// [Dispatcher] routes each event to the handler registered for its [Kind],
// one at a time and in arrival order.
package stream

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of pipeline event types.
type Kind int

const (
	KindUnknown Kind = iota
	KindStage1Start
	KindStage1Complete
	KindStage2Start
	KindStage2Complete
	KindStage3Start
	KindStage3Complete
	KindOpeningsStart
	KindOpeningsComplete
	KindRoundStart
	KindRoundComplete
	KindVerdictStart
	KindVerdictComplete
	KindTitleComplete
	KindComplete
	KindError
)

var kindNames = map[Kind]string{
	KindStage1Start:      "stage1_start",
	KindStage1Complete:   "stage1_complete",
	KindStage2Start:      "stage2_start",
	KindStage2Complete:   "stage2_complete",
	KindStage3Start:      "stage3_start",
	KindStage3Complete:   "stage3_complete",
	KindOpeningsStart:    "openings_start",
	KindOpeningsComplete: "openings_complete",
	KindRoundStart:       "round_start",
	KindRoundComplete:    "round_complete",
	KindVerdictStart:     "verdict_start",
	KindVerdictComplete:  "verdict_complete",
	KindTitleComplete:    "title_complete",
	KindComplete:         "complete",
	KindError:            "error",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// ParseKind maps a wire type name to its Kind. Unrecognized names map to
// KindUnknown.
func ParseKind(name string) Kind {
	if k, ok := kindsByName[name]; ok {
		return k
	}
	return KindUnknown
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the kind ends a stream.
func (k Kind) Terminal() bool {
	return k == KindComplete || k == KindError
}

// Event is one decoded server-sent event. Payload is the whole JSON object,
// including its "type" field.
type Event struct {
	Type    string
	Payload json.RawMessage
}

// NewEvent builds an Event of the given kind from a payload value. The "type"
// field is added to the encoded object. It is mostly useful in tests.
func NewEvent(kind Kind, payload map[string]any) Event {
	obj := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		obj[k] = v
	}
	obj["type"] = kind.String()
	data, err := json.Marshal(obj)
	if err != nil {
		panic(fmt.Sprintf("stream: encode %s payload: %v", kind, err))
	}
	return Event{Type: kind.String(), Payload: data}
}

// Kind returns the event's kind.
func (e Event) Kind() Kind {
	return ParseKind(e.Type)
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("decode %s event: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s event: %w", e.Type, err)
	}
	return nil
}
