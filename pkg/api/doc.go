// Package api defines the wire types shared by the translation pipeline,
// the local HTTP API and the terminal client.
//
// Core types:
//   - [TranslationRequest]: text plus the language pair to translate between
//   - [TranslationResponse]: the assembled translation, produced once per successful session
//   - [Event]: a listener notification (token, completion or error) as it
//     travels over the SSE relay
//   - [APIError]: structured error with type, code, param, and message
//
// The package performs no I/O.
package api
