package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/0fflineDocs/Cipher/internal/logging"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewDispatcher(logging.NewWriterLogger(&buf, logging.LevelDebug)), &buf
}

func TestDispatcher_RoutesInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got []string
	record := func(e Event) { got = append(got, e.Type) }
	d.Handle(KindStage1Start, record)
	d.Handle(KindStage1Complete, record)
	d.Handle(KindComplete, record)

	for _, k := range []Kind{KindStage1Start, KindStage1Complete, KindComplete} {
		d.Dispatch(NewEvent(k, nil))
	}

	if strings.Join(got, ",") != "stage1_start,stage1_complete,complete" {
		t.Errorf("delivery order = %v", got)
	}
	if d.Delivered() != 3 {
		t.Errorf("Delivered() = %d, want 3", d.Delivered())
	}
}

func TestDispatcher_UnhandledArm(t *testing.T) {
	d, buf := newTestDispatcher(t)
	d.Handle(KindComplete, func(Event) {})

	d.Dispatch(Event{Type: "stage9_start", Payload: []byte(`{"type":"stage9_start"}`)})
	d.Dispatch(NewEvent(KindRoundStart, map[string]any{"round": 1}))

	if d.Unhandled() != 2 {
		t.Errorf("Unhandled() = %d, want 2", d.Unhandled())
	}
	if d.Delivered() != 2 {
		t.Errorf("Delivered() = %d, want 2", d.Delivered())
	}
	logs := buf.String()
	if !strings.Contains(logs, "unhandled stream event") || !strings.Contains(logs, "stage9_start") {
		t.Errorf("unhandled events not logged: %s", logs)
	}
}

func TestDispatcher_ReentrantDispatchDropped(t *testing.T) {
	d, buf := newTestDispatcher(t)

	nested := 0
	d.Handle(KindStage1Start, func(e Event) {
		d.Dispatch(NewEvent(KindStage1Complete, nil))
	})
	d.Handle(KindStage1Complete, func(Event) { nested++ })

	d.Dispatch(NewEvent(KindStage1Start, nil))

	if nested != 0 {
		t.Error("re-entrant dispatch should be dropped")
	}
	if !strings.Contains(buf.String(), "re-entrant") {
		t.Errorf("re-entrant dispatch not logged: %s", buf.String())
	}

	// After the outer dispatch returns, delivery works again.
	d.Dispatch(NewEvent(KindStage1Complete, nil))
	if nested != 1 {
		t.Errorf("nested = %d after normal dispatch, want 1", nested)
	}
}

func TestDispatcher_Close(t *testing.T) {
	d, _ := newTestDispatcher(t)
	calls := 0
	d.Handle(KindComplete, func(Event) { calls++ })

	d.Close()
	d.Dispatch(NewEvent(KindComplete, nil))

	if calls != 0 {
		t.Error("event delivered after Close")
	}
	if d.Delivered() != 0 {
		t.Errorf("Delivered() = %d after Close", d.Delivered())
	}
	if !d.Closed() {
		t.Error("Closed() = false")
	}
}

func TestDispatcher_HandlerPanicRecovered(t *testing.T) {
	d, buf := newTestDispatcher(t)
	d.Handle(KindStage2Start, func(Event) { panic("bad handler") })
	after := 0
	d.Handle(KindStage2Complete, func(Event) { after++ })

	d.Dispatch(NewEvent(KindStage2Start, nil))
	d.Dispatch(NewEvent(KindStage2Complete, nil))

	if after != 1 {
		t.Error("dispatcher stopped delivering after a handler panic")
	}
	if !strings.Contains(buf.String(), "stream handler panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestDispatcher_HandleReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)
	var which string
	d.Handle(KindComplete, func(Event) { which = "first" })
	d.Handle(KindComplete, func(Event) { which = "second" })

	d.Dispatch(NewEvent(KindComplete, nil))

	if which != "second" {
		t.Errorf("handler = %q, want second", which)
	}
}
