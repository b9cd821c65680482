// Package pipeline drives the two streaming send pipelines against the
// loaded conversation.
//
// # Chat
//
// [ChatController.Send] appends the user's prompt and an empty assistant
// message to the [conversation.Store], opens the event stream through the
// [Transport], and applies each stage event to the in-flight message by its
// stable ID. On complete the conversation is reconciled with the persisted
// copy. On an in-band error the stages already committed stay in place. If
// the stream fails before any event arrives, exactly the appended messages
// are removed again.
//
// # Debate
//
// [DebateController.Send] appends the topic and tracks openings, rounds and
// the verdict in an ephemeral [DebateState] until the persisted debate
// message replaces it on complete.
//
// # Concurrency
//
// Each controller runs one send at a time; a second concurrent Send returns
// [errors.ErrSendInFlight]. Events are applied sequentially on the goroutine
// that delivers them, and every mutation is dropped if the originating
// conversation is no longer the loaded one.
//
// # Usage
//
//	store := conversation.NewStore(bus)
//	cs := conversation.NewSync(store, client, logger)
//	chat := pipeline.NewChatController(client, cs, pipeline.WithLogger(logger), pipeline.WithBus(bus))
//
//	err := chat.Send(ctx, convID, "How do we start?", council.Members(), council.Chairman())
//	var streamErr *errors.StreamError
//	if errors.As(err, &streamErr) {
//	    fmt.Println("council failed:", streamErr.Message)
//	}
package pipeline
