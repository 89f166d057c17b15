// Package model defines the provider-agnostic backend contract personas use
// to talk to language models, plus a scripted MockModel for tests.
//
// The contract exposes two explicit operations instead of one polymorphic call:
//
//   - Converse: free-form mode. The backend may answer with text, zero or more
//     tool calls, or both.
//   - Decide: structured mode. The backend must return a value conforming to a
//     declared Schema; unparseable output fails with core.ErrSchemaViolation.
//
// Both operations receive the full ordered history on every call. Backends
// keep no conversation state of their own.
//
// Providers (openai, gemini, anthropic) live in sub-packages so higher layers
// (agent, fleet) stay decoupled from vendor SDKs.
package model
