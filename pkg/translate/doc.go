// Package translate runs streaming translations.
//
// A Dispatcher validates a request against the caller's settings and starts
// one Session per translation on its own goroutine. The Session sends the
// prompt to the provider, decodes the event stream as it arrives, and pushes
// every text fragment to a Listener in arrival order. Each started session
// ends with exactly one OnComplete or OnError notification, after all of its
// OnToken notifications.
//
// Sessions are independent: they share no mutable state, and a slow or
// failing session never affects another. There is no cancellation; a
// session always runs until the provider stream ends.
package translate
