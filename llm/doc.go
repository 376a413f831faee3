// Package llm provides language model providers for bughound: a Gemini
// client built on the official google.golang.org/genai SDK and a generic
// client for OpenAI-compatible chat completion endpoints.
//
// Both providers classify rate limits, server errors and network failures
// as transient so the pipeline's invoker can retry them; everything else
// (bad requests, auth failures) surfaces as a permanent error.
package llm
