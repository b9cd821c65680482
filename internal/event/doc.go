// Package event provides a pub-sub event bus for change notifications in Cipher.
//
// The conversation store publishes an event after every mutation of the loaded
// conversation or the summary list, and the pipeline controllers publish send
// lifecycle and debate progress events. Renderers subscribe to redraw without
// holding a writable reference to the store.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeMessageUpdated, func(e event.Event) {
//	    updated := e.(event.MessageUpdatedEvent)
//	    redraw(updated.ConversationID)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("event: %s", e.EventType())
//	})
//
// # Thread Safety
//
// The [Bus] is safe for concurrent use. Handlers are called synchronously on
// the publishing goroutine; a panicking handler is logged and does not stop
// delivery to the remaining handlers.
package event
