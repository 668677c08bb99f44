// Package openai implements provider.Provider against the OpenAI Chat
// Completions API and any backend that speaks the same wire format.
//
// Streaming requests go through a plain net/http client so the response body
// can be handed to the session untouched; the model listing endpoint is a
// one-shot JSON call and uses resty.
package openai
