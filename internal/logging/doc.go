// Package logging provides structured logging for Cipher.
//
// This package wraps Go's log/slog to write JSON lines, with child loggers
// carrying persistent context such as the conversation being synchronized
// and the pipeline driving it.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	chatLog := logger.WithPipeline("chat").WithConversation("c-123")
//	chatLog.Info("send started", "members", 4)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"send started","pipeline":"chat","conversation_id":"c-123","members":4}
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a buffer to
// assert on emitted entries.
package logging
