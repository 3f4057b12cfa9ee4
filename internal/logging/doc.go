// Package logging provides structured logging for redcode.
//
// The [Logger] type wraps log/slog with a JSON handler and carries persistent
// attributes (session id, document id, locator) into every record. Output goes
// to a size-rotated file in the state directory because the terminal belongs to
// the editor UI. Use [NopLogger] in tests.
//
//	logger, err := logging.NewLogger(stateDir, logging.LevelInfo, logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	docLogger := logger.WithSession(sessionID).WithDocument(docID)
//	docLogger.Info("document saved", "locator", locator, "bytes", n)
//
// All types in this package are safe for concurrent use.
package logging
