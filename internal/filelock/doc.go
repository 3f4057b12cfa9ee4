// Package filelock tracks write claims on document locators.
//
// A [Registry] maps each locator to the document currently writing it. The
// session manager claims a save's target before touching storage and
// releases it when the write finishes, which serializes writes per locator
// across all open tabs. Claim and release events are published to the
// event bus.
//
//	reg := filelock.NewRegistry(bus)
//	if err := reg.Claim(docID, "/home/me/notes.txt"); err != nil {
//	    // another tab is saving the same file
//	}
//	defer reg.Release(docID, "/home/me/notes.txt")
//
// All [Registry] methods are safe for concurrent use.
package filelock
