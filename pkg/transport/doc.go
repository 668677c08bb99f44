// Package transport defines the handler interfaces and middleware chain for
// the simple-translate HTTP/SSE front end.
//
// The transport layer bridges local clients (a desktop UI, a browser
// extension, the translate CLI) and the translation pipeline in package
// translate. It decodes incoming requests, dispatches them, and relays
// listener notifications back to the client as server-sent events.
//
// # Handler Interfaces
//
//   - Translator starts a translation and reports progress to a
//     translate.Listener. *translate.Dispatcher implements it.
//   - ModelLister lists the models available to a credential.
//   - SettingsStore loads and saves the user's settings.
//
// # Middleware
//
// The middleware chain wraps a Translator with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging of each translation's outcome
// via log/slog.
package transport
