// Package event provides a pub-sub event bus that lets the session manager
// notify the presentation layer without depending on it.
//
// # Main Types
//
//   - [Event]: Interface that all events implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Session structure:
//   - [DocumentInsertedEvent]: a document was appended
//   - [DocumentRemovedEvent]: a document was closed
//   - [ActiveChangedEvent]: the active tab changed
//
// Document state:
//   - [DocumentChangedEvent]: a clean document became dirty
//   - [DocumentSavedEvent]: a write completed
//   - [SaveFailedEvent]: a write failed or was cancelled
//   - [ExternalChangeEvent]: another program modified the document's file
//
// Write claims:
//   - [LocatorClaimEvent], [LocatorReleaseEvent]
//
// # Thread Safety
//
// Handlers are called synchronously on the publishing goroutine, outside the
// bus lock. A panicking handler is recovered and logged so the remaining
// handlers still run. Saves publish from their own goroutine, so UI handlers
// must hand events over to their own loop rather than touch UI state directly.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeDocumentSaved, func(e event.Event) {
//	    saved := e.(event.DocumentSavedEvent)
//	    fmt.Println("saved", saved.Locator)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType())
//	})
package event
