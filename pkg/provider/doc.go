// Package provider defines the contract between the translation session and
// an LLM chat-completion backend. A provider opens a streaming completion and
// knows how to pull text deltas out of the events its stream carries; SSE
// framing itself is protocol-generic and lives in package sse.
package provider
